package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	checkoutControllers "github.com/templateverse/marketplace-api/controllers/checkout"
	orderControllers "github.com/templateverse/marketplace-api/controllers/order"
	"github.com/templateverse/marketplace-api/models"
	"github.com/templateverse/marketplace-api/paypal"
	"github.com/templateverse/marketplace-api/reconcile"
	"github.com/templateverse/marketplace-api/routes"
	"github.com/templateverse/marketplace-api/storage"
)

func main() {
	log.Println("✅ Starting application...")

	// Load environment variables
	_ = godotenv.Load()

	// Init DB
	db := initDatabase()

	// Auto-migrate all tables
	if err := db.AutoMigrate(
		&models.Template{},
		&models.Order{},
		&models.OrderItem{},
		&models.Favorite{},
		&models.AllAccessPass{},
		&models.UserRole{},
		&models.CartRecord{},
		&models.PaymentReconciliation{},
	); err != nil {
		log.Fatalf("❌ AutoMigrate failed: %v", err)
	}

	// PayPal broker
	paypalCfg, err := paypal.ConfigFromEnv()
	if err != nil {
		log.Fatalf("❌ PayPal configuration failed: %v", err)
	}
	broker := checkoutControllers.NewBroker(db, paypal.NewClient(paypalCfg))
	broker.Broadcast = orderControllers.BroadcastNewOrder

	// Supabase storage for template assets (optional in local dev)
	uploads, err := storage.NewClientFromEnv()
	if err != nil {
		log.Println("⚠️ Supabase storage not configured, asset uploads disabled:", err)
		uploads = nil
	}

	// Gin setup
	r := gin.Default()

	// CORS settings: the storefront and the hosted PayPal widget call the
	// brokers cross-origin.
	r.Use(cors.New(cors.Config{
		AllowOrigins:              []string{"*"},
		AllowMethods:              []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:              []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:             []string{"Content-Length", "Content-Disposition"},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: 200,
	}))

	// Setup routes
	routes.SetupRoutes(r, db, broker, uploads)

	// Replay captured-but-unrecorded payments in the background
	worker := reconcile.NewWorker(db, time.Minute)
	go worker.Run(context.Background())

	// Drop checkout attempts abandoned for more than a day
	go pruneCheckoutAttempts(broker)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Server running on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// initDatabase sets up the GORM DB connection
func initDatabase() *gorm.DB {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
		if err != nil {
			log.Fatalf("❌ DB connection failed: %v", err)
		}
		return db
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbname, port,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ Failed to connect DB: %v", err)
	}
	return db
}

func pruneCheckoutAttempts(broker *checkoutControllers.Broker) {
	for {
		time.Sleep(time.Hour)
		if removed := broker.Tracker.Prune(24 * time.Hour); removed > 0 {
			log.Printf("🧹 Pruned %d stale checkout attempt(s)", removed)
		}
	}
}

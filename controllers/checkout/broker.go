// Package checkoutControllers implements the two PayPal broker endpoints:
// remote order creation and capture-plus-persistence.
package checkoutControllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/templateverse/marketplace-api/cart"
	"github.com/templateverse/marketplace-api/checkout"
	"github.com/templateverse/marketplace-api/models"
	"github.com/templateverse/marketplace-api/paypal"
)

type Broker struct {
	PayPal  *paypal.Client
	Tracker *checkout.Tracker
	Catalog Catalog
	Orders  OrderStore
	Passes  PassStore
	Recons  ReconciliationStore
	Carts   cart.Repository

	// Broadcast pushes a freshly persisted order to admin dashboards.
	// Optional.
	Broadcast func(models.Order)
}

// NewBroker wires the broker against gorm-backed stores.
func NewBroker(db *gorm.DB, pp *paypal.Client) *Broker {
	return &Broker{
		PayPal:  pp,
		Tracker: checkout.NewTracker(),
		Catalog: gormCatalog{db: db},
		Orders:  gormOrders{db: db},
		Passes:  gormPasses{db: db},
		Recons:  gormRecons{db: db},
		Carts:   cart.NewGormRepository(db),
	}
}

type createOrderRequest struct {
	Items          []cart.Item `json:"items"`
	Total          float64     `json:"total"`
	IdempotencyKey string      `json:"idempotencyKey"`
}

// POST /checkout/paypal/orders
func (b *Broker) CreateOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	userEmail := c.GetString("user_email")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	lines, total, err := derivePricing(c.Request.Context(), b.Catalog, req.Items, req.Total)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token := req.IdempotencyKey
	if token == "" {
		token = checkout.NewToken()
	}
	if _, err := b.Tracker.Begin(token, userID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	accessToken, err := b.PayPal.AccessToken(c.Request.Context())
	if err != nil {
		log.Println("❌ PayPal auth failed:", err)
		b.Tracker.Fail(token)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	paypalItems := make([]paypal.LineItem, 0, len(lines))
	for _, line := range lines {
		paypalItems = append(paypalItems, paypal.LineItem{Name: line.Title, UnitPrice: line.Price})
	}

	remoteOrderID, err := b.PayPal.CreateOrder(c.Request.Context(), accessToken, paypalItems, total)
	if err != nil {
		log.Println("❌ PayPal order creation failed:", err)
		b.Tracker.Fail(token)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := b.Tracker.OrderCreated(token, remoteOrderID); err != nil {
		log.Println("⚠️ Failed to record checkout attempt for order", remoteOrderID, ":", err)
	}

	log.Println("✅ PayPal order created:", remoteOrderID)
	c.JSON(http.StatusOK, gin.H{
		"orderId":        remoteOrderID,
		"userId":         userID,
		"userEmail":      userEmail,
		"idempotencyKey": token,
	})
}

type captureOrderRequest struct {
	PayPalOrderID  string      `json:"paypalOrderId"`
	Items          []cart.Item `json:"items"`
	Total          float64     `json:"total"`
	IdempotencyKey string      `json:"idempotencyKey"`
}

// POST /checkout/paypal/orders/capture
//
// Strictly sequential: re-auth, token exchange, capture, then order plus
// line items in one transaction. A capture that succeeds but cannot be
// recorded is pushed onto the reconciliation queue instead of being lost.
func (b *Broker) CaptureOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	userEmail := c.GetString("user_email")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req captureOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if req.PayPalOrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "PayPal order ID is required"})
		return
	}

	// Replay of an already-recorded attempt returns the existing order
	// without touching PayPal again.
	if req.IdempotencyKey != "" {
		existing, err := b.Orders.ByIdempotencyKey(c.Request.Context(), req.IdempotencyKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check order record"})
			return
		}
		if existing != nil {
			c.JSON(http.StatusOK, gin.H{
				"success":       true,
				"orderId":       existing.ID,
				"paypalOrderId": existing.PayPalOrderID,
			})
			return
		}
	}

	lines, total, err := derivePricing(c.Request.Context(), b.Catalog, req.Items, req.Total)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token := req.IdempotencyKey
	if token == "" {
		token = checkout.NewToken()
	}
	if _, err := b.Tracker.BeginCapture(token, userID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	accessToken, err := b.PayPal.AccessToken(c.Request.Context())
	if err != nil {
		log.Println("❌ PayPal auth failed:", err)
		b.Tracker.Fail(token)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	captureResult, err := b.PayPal.CaptureOrder(c.Request.Context(), accessToken, req.PayPalOrderID)
	if err != nil {
		log.Println("❌ PayPal capture failed:", err)
		b.Tracker.Fail(token)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Println("✅ PayPal payment captured:", captureResult.ID)

	paypalOrderID := captureResult.ID
	if paypalOrderID == "" {
		paypalOrderID = req.PayPalOrderID
	}

	order := models.Order{
		ID:             uuid.NewString(),
		UserID:         userID,
		UserEmail:      userEmail,
		Status:         models.OrderStatusCompleted,
		TotalAmount:    total,
		PayPalOrderID:  paypalOrderID,
		IdempotencyKey: token,
	}
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			TemplateID:    line.TemplateID,
			TemplateTitle: line.Title,
			LicenseType:   line.License,
			Price:         line.Price,
		})
	}

	if err := b.Orders.CreateWithItems(c.Request.Context(), &order, items); err != nil {
		// Money is captured but the order wasn't recorded. Never drop
		// this on the floor: queue it for the reconciliation worker.
		log.Println("❌ Order persistence failed after capture:", err)
		b.enqueueReconciliation(c, paypalOrderID, userID, userEmail, total, items)
		b.Tracker.Fail(token)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order record"})
		return
	}

	if hasAllAccess(lines) {
		if err := b.Passes.Grant(c.Request.Context(), userID, cart.AllAccessPrice); err != nil {
			log.Println("⚠️ Failed to grant all-access pass for order", order.ID, ":", err)
		}
	}

	b.Tracker.Complete(token)

	if err := b.Carts.Clear(c.Request.Context(), userID); err != nil {
		log.Println("⚠️ Failed to clear cart for user", userID, ":", err)
	}
	if b.Broadcast != nil {
		b.Broadcast(order)
	}

	log.Println("✅ Order created:", order.ID)
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"orderId":       order.ID,
		"paypalOrderId": paypalOrderID,
	})
}

func (b *Broker) enqueueReconciliation(c *gin.Context, paypalOrderID, userID, userEmail string, total float64, items []models.OrderItem) {
	payload, err := json.Marshal(items)
	if err != nil {
		payload = []byte("[]")
	}
	rec := models.PaymentReconciliation{
		PayPalOrderID: paypalOrderID,
		UserID:        userID,
		UserEmail:     userEmail,
		Amount:        total,
		ItemsPayload:  string(payload),
		Reason:        "captured_unrecorded",
		CreatedAt:     time.Now(),
	}
	if err := b.Recons.Enqueue(c.Request.Context(), &rec); err != nil {
		// Nothing left to record the payment against. Log everything
		// needed to repair by hand.
		log.Printf("🚨 CAPTURED PAYMENT UNRECORDED: paypal_order=%s user=%s email=%s amount=%.2f err=%v",
			paypalOrderID, userID, userEmail, total, err)
	}
}

func hasAllAccess(lines []pricedLine) bool {
	for _, line := range lines {
		if line.TemplateID == cart.AllAccessID {
			return true
		}
	}
	return false
}

// CancelAttempt releases an attempt when the user closes the hosted
// widget, returning it to idle with the cart preserved.
// POST /checkout/paypal/orders/cancel
func (b *Broker) CancelAttempt(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		IdempotencyKey string `json:"idempotencyKey"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IdempotencyKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idempotencyKey is required"})
		return
	}

	if err := b.Tracker.Cancel(req.IdempotencyKey); err != nil {
		if errors.Is(err, checkout.ErrUnknownAttempt) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown checkout attempt"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

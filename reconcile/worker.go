// Package reconcile repairs captured-but-unrecorded payments: rows the
// capture broker enqueued when order persistence failed after PayPal had
// already taken the money.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/templateverse/marketplace-api/cart"
	"github.com/templateverse/marketplace-api/models"
)

type Queue interface {
	Unresolved(ctx context.Context, limit int) ([]models.PaymentReconciliation, error)
	MarkResolved(ctx context.Context, id uint, orderID string) error
}

type OrderWriter interface {
	CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error
	ByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
}

type PassWriter interface {
	Grant(ctx context.Context, userID string, price float64) error
}

type Worker struct {
	Queue    Queue
	Orders   OrderWriter
	Passes   PassWriter
	Interval time.Duration
}

func NewWorker(db *gorm.DB, interval time.Duration) *Worker {
	return &Worker{
		Queue:    gormQueue{db: db},
		Orders:   gormOrders{db: db},
		Passes:   gormPasses{db: db},
		Interval: interval,
	}
}

// Run loops until the context is cancelled, replaying the queue each tick.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			repaired, err := w.RunOnce(ctx)
			if err != nil {
				log.Println("⚠️ Reconciliation pass failed:", err)
			}
			if repaired > 0 {
				log.Printf("✅ Reconciled %d captured payment(s) into orders", repaired)
			}
		}
	}
}

// RunOnce replays every unresolved reconciliation into an order, returning
// how many were repaired. Rows that still fail stay queued for the next
// pass.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	recs, err := w.Queue.Unresolved(ctx, 50)
	if err != nil {
		return 0, fmt.Errorf("fetch unresolved reconciliations: %w", err)
	}

	repaired := 0
	for _, rec := range recs {
		orderID, err := w.replay(ctx, rec)
		if err != nil {
			log.Printf("⚠️ Failed to reconcile paypal order %s: %v", rec.PayPalOrderID, err)
			continue
		}
		if err := w.Queue.MarkResolved(ctx, rec.ID, orderID); err != nil {
			log.Printf("⚠️ Reconciled paypal order %s but failed to mark resolved: %v", rec.PayPalOrderID, err)
			continue
		}
		repaired++
	}
	return repaired, nil
}

func (w *Worker) replay(ctx context.Context, rec models.PaymentReconciliation) (string, error) {
	// The replay key dedupes against both earlier replays and a capture
	// retry that succeeded after the row was enqueued.
	key := "reconcile-" + rec.PayPalOrderID
	if existing, err := w.Orders.ByIdempotencyKey(ctx, key); err != nil {
		return "", err
	} else if existing != nil {
		return existing.ID, nil
	}

	var items []models.OrderItem
	if err := json.Unmarshal([]byte(rec.ItemsPayload), &items); err != nil {
		return "", fmt.Errorf("corrupt items payload: %w", err)
	}
	for i := range items {
		items[i].ID = 0
		items[i].OrderID = ""
	}

	order := models.Order{
		ID:             uuid.NewString(),
		UserID:         rec.UserID,
		UserEmail:      rec.UserEmail,
		Status:         models.OrderStatusCompleted,
		TotalAmount:    rec.Amount,
		PayPalOrderID:  rec.PayPalOrderID,
		IdempotencyKey: key,
	}
	if err := w.Orders.CreateWithItems(ctx, &order, items); err != nil {
		return "", err
	}

	for _, item := range items {
		if item.TemplateID == cart.AllAccessID {
			if err := w.Passes.Grant(ctx, rec.UserID, item.Price); err != nil {
				log.Printf("⚠️ Reconciled order %s but failed to grant all-access pass: %v", order.ID, err)
			}
			break
		}
	}
	return order.ID, nil
}

// ---- gorm implementations ----

type gormQueue struct{ db *gorm.DB }

func (g gormQueue) Unresolved(ctx context.Context, limit int) ([]models.PaymentReconciliation, error) {
	var recs []models.PaymentReconciliation
	err := g.db.WithContext(ctx).
		Where("resolved = ?", false).
		Order("created_at").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

func (g gormQueue) MarkResolved(ctx context.Context, id uint, orderID string) error {
	return g.db.WithContext(ctx).Model(&models.PaymentReconciliation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"resolved": true, "order_id": orderID}).Error
}

type gormOrders struct{ db *gorm.DB }

func (g gormOrders) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (g gormOrders) ByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := g.db.WithContext(ctx).First(&order, "idempotency_key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type gormPasses struct{ db *gorm.DB }

func (g gormPasses) Grant(ctx context.Context, userID string, price float64) error {
	pass := models.AllAccessPass{UserID: userID, Price: price, PurchasedAt: time.Now()}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&pass).Error
}

package checkoutControllers

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/templateverse/marketplace-api/models"
)

// Narrow store interfaces so the brokers can be exercised against
// in-memory fakes instead of a live database.

type Catalog interface {
	Template(ctx context.Context, id string) (*models.Template, error)
}

type OrderStore interface {
	// CreateWithItems persists the order and its line items atomically.
	CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error
	// ByIdempotencyKey returns the existing order for a replayed checkout
	// attempt, or nil when the key is unseen.
	ByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
}

type PassStore interface {
	Grant(ctx context.Context, userID string, price float64) error
}

type ReconciliationStore interface {
	Enqueue(ctx context.Context, rec *models.PaymentReconciliation) error
}

// ---- gorm implementations ----

// NewGormCatalog returns a Catalog backed by the templates table. The cart
// handlers share it so cart lines and broker pricing agree.
func NewGormCatalog(db *gorm.DB) Catalog {
	return gormCatalog{db: db}
}

type gormCatalog struct{ db *gorm.DB }

func (g gormCatalog) Template(ctx context.Context, id string) (*models.Template, error) {
	var t models.Template
	err := g.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
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
		order.Items = items
		return nil
	})
}

func (g gormOrders) ByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := g.db.WithContext(ctx).Preload("Items").First(&order, "idempotency_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type gormPasses struct{ db *gorm.DB }

func (g gormPasses) Grant(ctx context.Context, userID string, price float64) error {
	pass := models.AllAccessPass{
		UserID:      userID,
		Price:       price,
		PurchasedAt: time.Now(),
	}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&pass).Error
}

type gormRecons struct{ db *gorm.DB }

func (g gormRecons) Enqueue(ctx context.Context, rec *models.PaymentReconciliation) error {
	return g.db.WithContext(ctx).Create(rec).Error
}

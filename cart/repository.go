package cart

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/templateverse/marketplace-api/models"
)

// Repository is the load/save boundary for cart snapshots, so the store
// can be exercised without a real storage backend.
type Repository interface {
	Load(ctx context.Context, userID string) (*Store, error)
	Save(ctx context.Context, userID string, s *Store) error
	Clear(ctx context.Context, userID string) error
}

// GormRepository persists one snapshot row per user.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Load(ctx context.Context, userID string) (*Store, error) {
	var rec models.CartRecord
	err := r.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewStore(), nil
	}
	if err != nil {
		return nil, err
	}
	return Decode([]byte(rec.Payload)), nil
}

func (r *GormRepository) Save(ctx context.Context, userID string, s *Store) error {
	payload, err := s.Encode()
	if err != nil {
		return err
	}
	rec := models.CartRecord{
		UserID:    userID,
		Payload:   string(payload),
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&rec).Error
}

func (r *GormRepository) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Delete(&models.CartRecord{}, "user_id = ?", userID).Error
}

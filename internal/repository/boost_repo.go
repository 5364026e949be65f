package repository

import (
	"context"
	"errors"

	"github.com/kindredmatch/kindred/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BoostRepository provides data access methods for the Boost model.
type BoostRepository struct {
	db *gorm.DB
}

// NewBoostRepository creates a new repository bound to the given DB connection.
func NewBoostRepository(database *gorm.DB) *BoostRepository {
	return &BoostRepository{db: database}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *BoostRepository) WithTx(tx *gorm.DB) *BoostRepository {
	return &BoostRepository{db: tx}
}

// Get returns the boost record for an account, or nil if none exists.
func (r *BoostRepository) Get(ctx context.Context, account string) (*db.Boost, error) {
	var boost db.Boost
	err := r.db.WithContext(ctx).Where("account = ?", account).First(&boost).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &boost, nil
}

// Upsert overwrites the account's boost record outright. A purchase while a
// prior boost is still running replaces it, never extends it.
func (r *BoostRepository) Upsert(ctx context.Context, boost *db.Boost) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "start_at", "end_at", "active"}),
		}).
		Create(boost).Error
}

// Deactivate flips the lazy-expiry flag off.
func (r *BoostRepository) Deactivate(ctx context.Context, account string) error {
	return r.db.WithContext(ctx).Model(&db.Boost{}).
		Where("account = ?", account).
		Update("active", false).Error
}

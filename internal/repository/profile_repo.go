package repository

import (
	"context"
	"errors"

	"github.com/kindredmatch/kindred/internal/db"
	"gorm.io/gorm"
)

// ProfileRepository provides data access methods for the Profile model.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *ProfileRepository) WithTx(tx *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

// Get returns the profile for an account, or nil if none exists.
func (r *ProfileRepository) Get(ctx context.Context, account string) (*db.Profile, error) {
	var profile db.Profile
	err := r.db.WithContext(ctx).Where("account = ?", account).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// IsRegistered reports whether the account has an active profile.
func (r *ProfileRepository) IsRegistered(ctx context.Context, account string) (bool, error) {
	profile, err := r.Get(ctx, account)
	if err != nil {
		return false, err
	}
	return profile != nil && profile.Active, nil
}

// Create inserts a new profile row.
func (r *ProfileRepository) Create(ctx context.Context, profile *db.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// Save persists all fields of an existing profile.
func (r *ProfileRepository) Save(ctx context.Context, profile *db.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// UpdateLocation stores the free-text location and raw coordinates, and
// refreshes last-active.
func (r *ProfileRepository) UpdateLocation(ctx context.Context, account, location string, longitude, latitude, now int64) error {
	return r.db.WithContext(ctx).Model(&db.Profile{}).
		Where("account = ?", account).
		Updates(map[string]interface{}{
			"location":       location,
			"longitude":      longitude,
			"latitude":       latitude,
			"last_active_at": now,
		}).Error
}

// TouchLastActive refreshes the account's last-active timestamp.
func (r *ProfileRepository) TouchLastActive(ctx context.Context, account string, now int64) error {
	return r.db.WithContext(ctx).Model(&db.Profile{}).
		Where("account = ?", account).
		Update("last_active_at", now).Error
}

// ListAll returns every profile in registration order (ascending ID).
// The ranking scan depends on this order for its stable tie-break.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]db.Profile, error) {
	var profiles []db.Profile
	err := r.db.WithContext(ctx).Order("id ASC").Find(&profiles).Error
	return profiles, err
}

// Count returns the number of registered profiles, active or not.
func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Profile{}).Count(&count).Error
	return count, err
}

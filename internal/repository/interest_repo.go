package repository

import (
	"context"
	"errors"

	"github.com/kindredmatch/kindred/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InterestRepository provides data access for verified interest sequences and
// the global popularity counters.
type InterestRepository struct {
	db *gorm.DB
}

// NewInterestRepository creates a new repository bound to the given DB connection.
func NewInterestRepository(database *gorm.DB) *InterestRepository {
	return &InterestRepository{db: database}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *InterestRepository) WithTx(tx *gorm.DB) *InterestRepository {
	return &InterestRepository{db: tx}
}

// Append records one verification event at the end of the account's interest
// sequence. Duplicates are allowed and preserved.
func (r *InterestRepository) Append(ctx context.Context, account string, interestID uint64) error {
	row := db.Interest{Account: account, InterestID: interestID}
	return r.db.WithContext(ctx).Create(&row).Error
}

// ListIDs returns the account's verified interest tokens in verification
// order, duplicates included.
func (r *InterestRepository) ListIDs(ctx context.Context, account string) ([]uint64, error) {
	var rows []db.Interest
	err := r.db.WithContext(ctx).
		Where("account = ?", account).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.InterestID)
	}
	return ids, nil
}

// CountForAccount returns how many verification events the account has.
func (r *InterestRepository) CountForAccount(ctx context.Context, account string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Interest{}).
		Where("account = ?", account).
		Count(&count).Error
	return count, err
}

// IncrementPopularity bumps the verification counter for a token by one and
// returns the new count. Counter rows are created on first verification.
func (r *InterestRepository) IncrementPopularity(ctx context.Context, interestID uint64) (uint64, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "interest_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
		}).
		Create(&db.Popularity{InterestID: interestID, Count: 1}).Error
	if err != nil {
		return 0, err
	}
	return r.GetPopularity(ctx, interestID)
}

// GetPopularity returns the verification count for a token; zero if the
// token has never been verified.
func (r *InterestRepository) GetPopularity(ctx context.Context, interestID uint64) (uint64, error) {
	var row db.Popularity
	err := r.db.WithContext(ctx).First(&row, "interest_id = ?", interestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Count, nil
}

// PopularityMap fetches counts for a set of tokens in one query. Tokens with
// no counter row are absent from the result (count zero).
func (r *InterestRepository) PopularityMap(ctx context.Context, interestIDs []uint64) (map[uint64]uint64, error) {
	result := make(map[uint64]uint64, len(interestIDs))
	if len(interestIDs) == 0 {
		return result, nil
	}
	var rows []db.Popularity
	err := r.db.WithContext(ctx).
		Where("interest_id IN ?", interestIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.InterestID] = row.Count
	}
	return result, nil
}

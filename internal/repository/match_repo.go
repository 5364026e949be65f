package repository

import (
	"context"
	"time"

	"github.com/kindredmatch/kindred/internal/db"
	"github.com/kindredmatch/kindred/internal/utils/pagination"
	"gorm.io/gorm"
)

// MatchRepository provides data access for reported-match back-references.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{db: tx}
}

// AddPair appends the symmetric back-references for a reported match:
// one row per side, so either account's history is an indexed scan.
func (r *MatchRepository) AddPair(ctx context.Context, account1, account2 string) error {
	rows := []db.MatchRecord{
		{Account: account1, Peer: account2},
		{Account: account2, Peer: account1},
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// CountForAccount returns how many matches have been reported for the account.
func (r *MatchRepository) CountForAccount(ctx context.Context, account string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.MatchRecord{}).
		Where("account = ?", account).
		Count(&count).Error
	return count, err
}

// ListForAccount returns the account's match history, newest first.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
//   - Returns one extra row internally to decide whether a next page exists.
func (r *MatchRepository) ListForAccount(
	ctx context.Context,
	account string,
	paginationToken *string,
	limit int,
) ([]db.MatchRecord, *string, error) {
	var records []db.MatchRecord

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.MatchRecord{}).
		Where("account = ?", account).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.MatchID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.MatchID,
		)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(records) > limit {
		last := records[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			MatchID:     last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		records = records[:limit]
	}

	return records, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

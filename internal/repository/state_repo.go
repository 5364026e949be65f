package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kindredmatch/kindred/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateRepository provides data access for the singleton ledger state row and
// the operator set. All admin-gated configuration lives here.
type StateRepository struct {
	db *gorm.DB
}

// NewStateRepository creates a new repository bound to the given DB connection.
func NewStateRepository(database *gorm.DB) *StateRepository {
	return &StateRepository{db: database}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *StateRepository) WithTx(tx *gorm.DB) *StateRepository {
	return &StateRepository{db: tx}
}

// Get loads the ledger state. A missing row is returned as the zero state
// (owner unset), which is what the one-time Init guard checks for.
func (r *StateRepository) Get(ctx context.Context) (*db.LedgerState, error) {
	var state db.LedgerState
	err := r.db.WithContext(ctx).First(&state, db.LedgerStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &db.LedgerState{ID: db.LedgerStateID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Save upserts the singleton state row.
func (r *StateRepository) Save(ctx context.Context, state *db.LedgerState) error {
	state.ID = db.LedgerStateID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(state).Error
}

// Deposit credits amount to the escrowed total. Errors on uint64 overflow so
// a bad payment can never silently wrap the treasury.
func (r *StateRepository) Deposit(ctx context.Context, amount uint64) error {
	state, err := r.Get(ctx)
	if err != nil {
		return err
	}
	if state.TotalFunds+amount < state.TotalFunds {
		return fmt.Errorf("treasury overflow: %d + %d", state.TotalFunds, amount)
	}
	state.TotalFunds += amount
	return r.Save(ctx, state)
}

// SetTotalFunds overwrites the escrowed total.
func (r *StateRepository) SetTotalFunds(ctx context.Context, total uint64) error {
	return r.db.WithContext(ctx).Model(&db.LedgerState{}).
		Where("id = ?", db.LedgerStateID).
		Update("total_funds", total).Error
}

// Credit adds amount to the escrowed total in place, so concurrent writers
// never overwrite each other's adjustments.
func (r *StateRepository) Credit(ctx context.Context, amount uint64) error {
	return r.db.WithContext(ctx).Model(&db.LedgerState{}).
		Where("id = ?", db.LedgerStateID).
		Update("total_funds", gorm.Expr("total_funds + ?", amount)).Error
}

// Debit subtracts amount from the escrowed total in place. The caller must
// have verified the balance covers it, inside the same transaction.
func (r *StateRepository) Debit(ctx context.Context, amount uint64) error {
	return r.db.WithContext(ctx).Model(&db.LedgerState{}).
		Where("id = ?", db.LedgerStateID).
		Update("total_funds", gorm.Expr("total_funds - ?", amount)).Error
}

// SetRegistrationFee updates the registration price policy.
func (r *StateRepository) SetRegistrationFee(ctx context.Context, fee uint64) error {
	return r.db.WithContext(ctx).Model(&db.LedgerState{}).
		Where("id = ?", db.LedgerStateID).
		Update("registration_fee", fee).Error
}

// SetBoostPricePerDay updates the boost price policy. Existing boost records
// are untouched.
func (r *StateRepository) SetBoostPricePerDay(ctx context.Context, price uint64) error {
	return r.db.WithContext(ctx).Model(&db.LedgerState{}).
		Where("id = ?", db.LedgerStateID).
		Update("boost_price_per_day", price).Error
}

// SetCoordinator records the coordinating collaborator's account.
func (r *StateRepository) SetCoordinator(ctx context.Context, account string) error {
	return r.db.WithContext(ctx).Model(&db.LedgerState{}).
		Where("id = ?", db.LedgerStateID).
		Update("coordinator", account).Error
}

// AddOperator grants operator capability. Idempotent.
func (r *StateRepository) AddOperator(ctx context.Context, account string) error {
	op := db.Operator{Account: account}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&op).Error
}

// RemoveOperator revokes operator capability. Removing a non-operator is a no-op.
func (r *StateRepository) RemoveOperator(ctx context.Context, account string) error {
	return r.db.WithContext(ctx).Delete(&db.Operator{}, "account = ?", account).Error
}

// IsOperator reports whether the account is in the operator set.
func (r *StateRepository) IsOperator(ctx context.Context, account string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Operator{}).
		Where("account = ?", account).
		Count(&count).Error
	return count > 0, err
}

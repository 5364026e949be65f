package boost

import (
	"context"

	"github.com/kindredmatch/kindred/internal/app"
	"github.com/kindredmatch/kindred/internal/db"
	svcErr "github.com/kindredmatch/kindred/internal/errors"
	"github.com/kindredmatch/kindred/internal/event"
	"github.com/kindredmatch/kindred/internal/repository"
	"github.com/kindredmatch/kindred/internal/service/access"
	"gorm.io/gorm"
)

const secondsPerDay = 86400

// Service implements the boost ledger: per-account, time-boxed visibility
// entitlements with lazy expiry. State machine per account is
// NoBoost → Active → Expired, where Expired re-enters Active only via a new
// purchase.
type Service struct {
	appCtx    *app.AppContext
	boostRepo *repository.BoostRepository
	stateRepo *repository.StateRepository
	access    *access.Service
}

// NewService creates the boost ledger service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, accessSvc *access.Service) *Service {
	return &Service{
		appCtx:    appCtx,
		boostRepo: repository.NewBoostRepository(appCtx.DB),
		stateRepo: repository.NewStateRepository(appCtx.DB),
		access:    accessSvc,
	}
}

// Purchase buys a visibility boost for the acting account.
//
// Behavior:
//   - days must be nonzero; payment must cover pricePerDay * days.
//   - The entire payment is escrowed in the treasury and becomes the boost
//     "level" while the window runs.
//   - Any prior record is overwritten outright: no extension, no refund of
//     remaining time.
func (s *Service) Purchase(ctx context.Context, account string, days, payment uint64) error {
	s.appCtx.Logger.Debug("Purchase called", "account", account, "days", days, "payment", payment)

	if db.IsZeroAccount(account) {
		return svcErr.ErrInvalidAddress
	}
	if days == 0 {
		return svcErr.ErrInvalidDuration
	}

	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return err
	}

	minPrice := state.BoostPricePerDay * days
	if state.BoostPricePerDay != 0 && minPrice/state.BoostPricePerDay != days {
		return svcErr.ErrInvalidParameters // price * days overflows
	}
	if payment < minPrice {
		return svcErr.ErrInsufficientPayment
	}

	duration := days * secondsPerDay
	if duration/secondsPerDay != days {
		return svcErr.ErrInvalidDuration
	}

	now := s.appCtx.NowUnix()
	record := &db.Boost{
		Account: account,
		Amount:  payment,
		StartAt: now,
		EndAt:   now + int64(duration),
		Active:  true,
	}

	err = s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.boostRepo.WithTx(tx).Upsert(ctx, record); err != nil {
			return err
		}
		return s.stateRepo.WithTx(tx).Deposit(ctx, payment)
	})
	if err != nil {
		return err
	}

	s.appCtx.Events.Emit(event.BoostPurchased,
		"account", account, "payment", payment, "days", days, "timestamp", now)
	return nil
}

// CheckStatus reports whether the account's boost is currently active, and is
// the one place allowed to persist the lazily derived expiry.
//
// Capability: owner, any operator, the coordinating collaborator, or the
// account itself. On the first call past endTime the record is flipped
// inactive and a BoostExpired notification is emitted; later calls are
// no-ops beyond the flag already being false.
func (s *Service) CheckStatus(ctx context.Context, caller, account string) (bool, error) {
	ok, err := s.access.CanReadBoostStatus(ctx, caller, account)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, svcErr.ErrUnauthorized
	}

	record, err := s.boostRepo.Get(ctx, account)
	if err != nil {
		return false, err
	}
	if record == nil || !record.Active {
		return false, nil
	}

	now := s.appCtx.NowUnix()
	if now > record.EndAt {
		if err := s.boostRepo.Deactivate(ctx, account); err != nil {
			return false, err
		}
		s.appCtx.Events.Emit(event.BoostExpired, "account", account, "timestamp", now)
		return false, nil
	}

	return true, nil
}

// Level returns the raw amount paid for the boost while it is active and
// unexpired, else zero. The level is the payment amount, not a normalized
// tier. Side-effect-free: an expired record keeps its stale Active flag
// until someone calls CheckStatus.
func (s *Service) Level(ctx context.Context, account string) (uint64, error) {
	record, err := s.boostRepo.Get(ctx, account)
	if err != nil {
		return 0, err
	}
	if record == nil || !record.Active {
		return 0, nil
	}
	if s.appCtx.NowUnix() > record.EndAt {
		return 0, nil
	}
	return record.Amount, nil
}

// RemainingTime returns the seconds left in the boost window, zero if the
// boost is unset, inactive, or already past endTime.
func (s *Service) RemainingTime(ctx context.Context, account string) (uint64, error) {
	record, err := s.boostRepo.Get(ctx, account)
	if err != nil {
		return 0, err
	}
	if record == nil || !record.Active {
		return 0, nil
	}
	now := s.appCtx.NowUnix()
	if now >= record.EndAt {
		return 0, nil
	}
	return uint64(record.EndAt - now), nil
}

// PricePerDay returns the current boost price policy.
func (s *Service) PricePerDay(ctx context.Context) (uint64, error) {
	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return 0, err
	}
	return state.BoostPricePerDay, nil
}

// UpdatePricePerDay changes the global price policy. Owner only; existing
// boost records are not repriced.
func (s *Service) UpdatePricePerDay(ctx context.Context, caller string, newPrice uint64) error {
	if err := s.access.RequireOwner(ctx, caller); err != nil {
		return err
	}

	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return err
	}
	oldPrice := state.BoostPricePerDay

	if err := s.stateRepo.SetBoostPricePerDay(ctx, newPrice); err != nil {
		return err
	}

	s.appCtx.Events.Emit(event.BoostPriceUpdated, "old_price", oldPrice, "new_price", newPrice)
	return nil
}

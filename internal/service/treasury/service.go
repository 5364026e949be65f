package treasury

import (
	"context"
	"fmt"

	"github.com/kindredmatch/kindred/internal/app"
	"github.com/kindredmatch/kindred/internal/db"
	svcErr "github.com/kindredmatch/kindred/internal/errors"
	"github.com/kindredmatch/kindred/internal/event"
	"github.com/kindredmatch/kindred/internal/repository"
	"github.com/kindredmatch/kindred/internal/service/access"
	"gorm.io/gorm"
)

// FundTransferrer is the external payout collaborator. A withdrawal hands the
// debited amount to it; the recorded total is never reconciled against
// whatever balance the collaborator actually holds.
type FundTransferrer interface {
	Transfer(ctx context.Context, to string, amount uint64) error
}

// Service custodies the escrowed funds collected by registrations and boost
// purchases and gates their withdrawal behind the owner capability.
type Service struct {
	appCtx    *app.AppContext
	stateRepo *repository.StateRepository
	access    *access.Service
	transfer  FundTransferrer
}

// NewService creates the treasury service. transfer performs the actual
// payout; it may be nil, in which case every withdrawal fails and rolls back.
func NewService(appCtx *app.AppContext, accessSvc *access.Service, transfer FundTransferrer) *Service {
	return &Service{
		appCtx:    appCtx,
		stateRepo: repository.NewStateRepository(appCtx.DB),
		access:    accessSvc,
		transfer:  transfer,
	}
}

// TotalFunds returns the recorded escrow total.
func (s *Service) TotalFunds(ctx context.Context) (uint64, error) {
	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return 0, err
	}
	return state.TotalFunds, nil
}

// Withdraw pays out part of the escrow to an external account.
//
// Two-phase: the total is debited optimistically before the transfer is
// attempted, and credited back if the transfer fails. The overdraft check and
// the debit share one transaction, and both adjustments are relative, so
// ledger writes that land while the transfer is in flight survive the
// compensation. This is the only operation in the ledger whose failure path
// undoes a prior write instead of avoiding it.
func (s *Service) Withdraw(ctx context.Context, caller, to string, amount uint64) error {
	s.appCtx.Logger.Debug("Withdraw called", "to", to, "amount", amount)

	if err := s.access.RequireOwner(ctx, caller); err != nil {
		return err
	}
	if db.IsZeroAccount(to) {
		return svcErr.ErrInvalidAddress
	}

	// optimistic debit, atomic with the overdraft check
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.stateRepo.WithTx(tx)
		state, err := repo.Get(ctx)
		if err != nil {
			return err
		}
		if amount > state.TotalFunds {
			return svcErr.ErrInsufficientPayment
		}
		return repo.Debit(ctx, amount)
	})
	if err != nil {
		return err
	}

	if err := s.doTransfer(ctx, to, amount); err != nil {
		// compensating credit of exactly the debited amount
		if restoreErr := s.stateRepo.Credit(ctx, amount); restoreErr != nil {
			s.appCtx.Logger.Error("failed to restore treasury after transfer failure", "err", restoreErr)
			return fmt.Errorf("%w: restore failed: %v", svcErr.ErrWithdrawalFailed, restoreErr)
		}
		s.appCtx.Logger.Warn("withdrawal transfer failed, funds restored", "to", to, "amount", amount, "err", err)
		return fmt.Errorf("%w: %v", svcErr.ErrWithdrawalFailed, err)
	}

	s.appCtx.Events.Emit(event.FundsWithdrawn, "to", to, "amount", amount, "timestamp", s.appCtx.NowUnix())
	return nil
}

func (s *Service) doTransfer(ctx context.Context, to string, amount uint64) error {
	if s.transfer == nil {
		return fmt.Errorf("no fund transferrer configured")
	}
	return s.transfer.Transfer(ctx, to, amount)
}

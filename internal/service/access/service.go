package access

import (
	"context"

	"github.com/kindredmatch/kindred/internal/app"
	"github.com/kindredmatch/kindred/internal/db"
	svcErr "github.com/kindredmatch/kindred/internal/errors"
	"github.com/kindredmatch/kindred/internal/repository"
	"gorm.io/gorm"
)

// Default price policy applied by Init, in payment units (1e18 per coin).
const (
	DefaultRegistrationFee  uint64 = 10_000_000_000_000_000 // 0.01
	DefaultBoostPricePerDay uint64 = 10_000_000_000_000_000 // 0.01 per day
)

// Service implements owner / operator / coordinator capability checks and the
// one-time ledger initialization. Every other service consults it before
// touching privileged state.
type Service struct {
	appCtx    *app.AppContext
	stateRepo *repository.StateRepository
}

// NewService creates the access-control service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		stateRepo: repository.NewStateRepository(appCtx.DB),
	}
}

// Init performs the one-time ledger initialization: the caller becomes the
// immutable owner, joins the operator set, and the default price policy is
// installed with an empty treasury.
//
// Anyone may call it, but only while no owner is set; afterwards it fails
// with Unauthorized and is never re-runnable.
func (s *Service) Init(ctx context.Context, caller string) error {
	if db.IsZeroAccount(caller) {
		return svcErr.ErrInvalidAddress
	}

	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return err
	}
	if !db.IsZeroAccount(state.Owner) {
		return svcErr.ErrUnauthorized
	}

	err = s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.stateRepo.WithTx(tx)
		state.Owner = caller
		state.RegistrationFee = DefaultRegistrationFee
		state.BoostPricePerDay = DefaultBoostPricePerDay
		state.TotalFunds = 0
		if err := repo.Save(ctx, state); err != nil {
			return err
		}
		return repo.AddOperator(ctx, caller)
	})
	if err != nil {
		return err
	}

	s.appCtx.Logger.Info("ledger initialized", "owner", caller)
	return nil
}

// AddOperator grants elevated capability to an account. Owner only.
func (s *Service) AddOperator(ctx context.Context, caller, operator string) error {
	if err := s.RequireOwner(ctx, caller); err != nil {
		return err
	}
	if db.IsZeroAccount(operator) {
		return svcErr.ErrInvalidParameters
	}
	return s.stateRepo.AddOperator(ctx, operator)
}

// RemoveOperator revokes elevated capability. Owner only.
func (s *Service) RemoveOperator(ctx context.Context, caller, operator string) error {
	if err := s.RequireOwner(ctx, caller); err != nil {
		return err
	}
	return s.stateRepo.RemoveOperator(ctx, operator)
}

// SetCoordinator designates the coordinating collaborator, which is granted
// the same boost status read capability as an operator. Owner only.
func (s *Service) SetCoordinator(ctx context.Context, caller, account string) error {
	if err := s.RequireOwner(ctx, caller); err != nil {
		return err
	}
	if db.IsZeroAccount(account) {
		return svcErr.ErrInvalidParameters
	}
	return s.stateRepo.SetCoordinator(ctx, account)
}

// IsOwner reports whether the account is the ledger owner.
func (s *Service) IsOwner(ctx context.Context, account string) (bool, error) {
	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return false, err
	}
	return !db.IsZeroAccount(state.Owner) && state.Owner == account, nil
}

// RequireOwner returns Unauthorized unless the caller is the owner.
func (s *Service) RequireOwner(ctx context.Context, caller string) error {
	ok, err := s.IsOwner(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return svcErr.ErrUnauthorized
	}
	return nil
}

// IsOperator reports whether the account holds operator capability.
// The owner always does.
func (s *Service) IsOperator(ctx context.Context, account string) (bool, error) {
	if ok, err := s.IsOwner(ctx, account); err != nil || ok {
		return ok, err
	}
	return s.stateRepo.IsOperator(ctx, account)
}

// CanReadBoostStatus implements the checkStatus capability matrix: owner, any
// operator, the coordinating collaborator, or the account itself.
func (s *Service) CanReadBoostStatus(ctx context.Context, caller, account string) (bool, error) {
	if caller == account && !db.IsZeroAccount(caller) {
		return true, nil
	}
	if ok, err := s.IsOperator(ctx, caller); err != nil || ok {
		return ok, err
	}
	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return false, err
	}
	return !db.IsZeroAccount(state.Coordinator) && state.Coordinator == caller, nil
}

package registry

import (
	"context"
	"fmt"

	"github.com/kindredmatch/kindred/internal/app"
	"github.com/kindredmatch/kindred/internal/db"
	svcErr "github.com/kindredmatch/kindred/internal/errors"
	"github.com/kindredmatch/kindred/internal/event"
	"github.com/kindredmatch/kindred/internal/repository"
	"github.com/kindredmatch/kindred/internal/service/access"
	"github.com/kindredmatch/kindred/internal/service/boost"
	"gorm.io/gorm"
)

// ProfileView is the read model returned by Profile.
type ProfileView struct {
	Account       string
	Active        bool
	RegisteredAt  int64
	LastActiveAt  int64
	Location      string
	Longitude     int64
	Latitude      int64
	BoostLevel    uint64
	InterestCount int64
	MatchCount    int64
}

// MatchEntry is one row of an account's match history.
type MatchEntry struct {
	Peer          string
	UnixTimestamp int64
}

// Service owns user profiles: paid registration, location updates, oracle-
// backed interest verification, and reported-match bookkeeping.
type Service struct {
	appCtx       *app.AppContext
	profileRepo  *repository.ProfileRepository
	interestRepo *repository.InterestRepository
	matchRepo    *repository.MatchRepository
	stateRepo    *repository.StateRepository
	access       *access.Service
	boost        *boost.Service
}

// NewService creates the registry service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, accessSvc *access.Service, boostSvc *boost.Service) *Service {
	return &Service{
		appCtx:       appCtx,
		profileRepo:  repository.NewProfileRepository(appCtx.DB),
		interestRepo: repository.NewInterestRepository(appCtx.DB),
		matchRepo:    repository.NewMatchRepository(appCtx.DB),
		stateRepo:    repository.NewStateRepository(appCtx.DB),
		access:       accessSvc,
		boost:        boostSvc,
	}
}

// Register creates (or reactivates) the caller's profile against payment of
// the registration fee. The fee is escrowed in the treasury.
func (s *Service) Register(ctx context.Context, account string, payment uint64) error {
	s.appCtx.Logger.Debug("Register called", "account", account, "payment", payment)

	if db.IsZeroAccount(account) {
		return svcErr.ErrInvalidAddress
	}

	profile, err := s.profileRepo.Get(ctx, account)
	if err != nil {
		return err
	}
	if profile != nil && profile.Active {
		return svcErr.ErrAlreadyRegistered
	}

	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return err
	}
	if payment < state.RegistrationFee {
		return svcErr.ErrInsufficientPayment
	}

	now := s.appCtx.NowUnix()
	err = s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.stateRepo.WithTx(tx).Deposit(ctx, payment); err != nil {
			return err
		}
		if profile == nil {
			return s.profileRepo.WithTx(tx).Create(ctx, &db.Profile{
				Account:      account,
				Active:       true,
				RegisteredAt: now,
				LastActiveAt: now,
			})
		}
		profile.Active = true
		profile.RegisteredAt = now
		profile.LastActiveAt = now
		return s.profileRepo.WithTx(tx).Save(ctx, profile)
	})
	if err != nil {
		return err
	}

	s.appCtx.Events.Emit(event.UserRegistered, "account", account, "timestamp", now)
	return nil
}

// RegistrationFee returns the current registration price policy.
func (s *Service) RegistrationFee(ctx context.Context) (uint64, error) {
	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return 0, err
	}
	return state.RegistrationFee, nil
}

// UpdateRegistrationFee changes the registration price policy. Owner only.
func (s *Service) UpdateRegistrationFee(ctx context.Context, caller string, newFee uint64) error {
	if err := s.access.RequireOwner(ctx, caller); err != nil {
		return err
	}

	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return err
	}
	oldFee := state.RegistrationFee

	if err := s.stateRepo.SetRegistrationFee(ctx, newFee); err != nil {
		return err
	}

	s.appCtx.Events.Emit(event.RegistrationFeeUpdated, "old_fee", oldFee, "new_fee", newFee)
	return nil
}

// UpdateLocation stores the caller's free-text location and raw coordinates
// and refreshes last-active. Zero coordinates stay "unset" for scoring.
func (s *Service) UpdateLocation(ctx context.Context, account, location string, longitude, latitude int64) error {
	registered, err := s.profileRepo.IsRegistered(ctx, account)
	if err != nil {
		return err
	}
	if !registered {
		return svcErr.ErrNotRegistered
	}

	now := s.appCtx.NowUnix()
	if err := s.profileRepo.UpdateLocation(ctx, account, location, longitude, latitude, now); err != nil {
		return err
	}

	s.appCtx.Events.Emit(event.LocationUpdated, "account", account, "location", location, "timestamp", now)
	return nil
}

// VerifyInterest proves via the ownership oracle that the caller owns the
// interest token, then appends it to the caller's interest sequence.
//
// Popularity counts verification events, not distinct verifiers: re-verifying
// the same token appends a duplicate entry and bumps the counter again.
func (s *Service) VerifyInterest(ctx context.Context, account string, interestID uint64) error {
	s.appCtx.Logger.Debug("VerifyInterest called", "account", account, "interest_id", interestID)

	registered, err := s.profileRepo.IsRegistered(ctx, account)
	if err != nil {
		return err
	}
	if !registered {
		return svcErr.ErrNotRegistered
	}

	if s.appCtx.Oracle == nil {
		return svcErr.ErrCollaboratorNotConfigured
	}

	owned, err := s.appCtx.Oracle.VerifyOwnership(ctx, account, interestID)
	if err != nil {
		return fmt.Errorf("%w: %v", svcErr.ErrVerificationFailed, err)
	}
	if !owned {
		return svcErr.ErrVerificationFailed
	}

	now := s.appCtx.NowUnix()
	var newCount uint64
	err = s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		interests := s.interestRepo.WithTx(tx)
		if err := interests.Append(ctx, account, interestID); err != nil {
			return err
		}
		newCount, err = interests.IncrementPopularity(ctx, interestID)
		if err != nil {
			return err
		}
		return s.profileRepo.WithTx(tx).TouchLastActive(ctx, account, now)
	})
	if err != nil {
		return err
	}

	// best-effort cache refresh; the store stays the source of truth
	if s.appCtx.RedisCache != nil {
		_ = s.appCtx.RedisCache.UpdatePopularity(ctx, interestID, newCount)
	}

	s.appCtx.Events.Emit(event.InterestVerified,
		"account", account, "interest_id", interestID, "timestamp", now)
	return nil
}

// Popularity returns the global verification count for an interest token.
// Cache-first: a Redis hit refreshes its TTL, a miss falls back to the store
// and repopulates the cache.
func (s *Service) Popularity(ctx context.Context, interestID uint64) (uint64, error) {
	if s.appCtx.RedisCache != nil {
		if count, hit, err := s.appCtx.RedisCache.GetPopularity(ctx, interestID); err == nil && hit {
			return count, nil
		}
	}

	count, err := s.interestRepo.GetPopularity(ctx, interestID)
	if err != nil {
		return 0, err
	}

	if s.appCtx.RedisCache != nil {
		_ = s.appCtx.RedisCache.UpdatePopularity(ctx, interestID, count)
	}
	return count, nil
}

// TotalUsers returns how many profiles have ever registered, active or not.
func (s *Service) TotalUsers(ctx context.Context) (int64, error) {
	return s.profileRepo.Count(ctx)
}

// ReportMatch appends the symmetric back-references for a confirmed match.
// Owner or any operator only; both accounts must be registered.
func (s *Service) ReportMatch(ctx context.Context, caller, account1, account2 string) error {
	ok, err := s.access.IsOperator(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return svcErr.ErrUnauthorized
	}

	for _, account := range []string{account1, account2} {
		registered, err := s.profileRepo.IsRegistered(ctx, account)
		if err != nil {
			return err
		}
		if !registered {
			return svcErr.ErrNotRegistered
		}
	}

	if err := s.matchRepo.AddPair(ctx, account1, account2); err != nil {
		return err
	}

	s.appCtx.Events.Emit(event.MatchReported,
		"account1", account1, "account2", account2, "timestamp", s.appCtx.NowUnix())
	return nil
}

// Profile returns the read view of an account, zero-valued (Active=false)
// when no profile exists. A failed boost lookup reads as level zero.
func (s *Service) Profile(ctx context.Context, account string) (*ProfileView, error) {
	profile, err := s.profileRepo.Get(ctx, account)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return &ProfileView{Account: account}, nil
	}

	view := &ProfileView{
		Account:      profile.Account,
		Active:       profile.Active,
		RegisteredAt: profile.RegisteredAt,
		LastActiveAt: profile.LastActiveAt,
		Location:     profile.Location,
		Longitude:    profile.Longitude,
		Latitude:     profile.Latitude,
	}

	if level, err := s.boost.Level(ctx, account); err == nil {
		view.BoostLevel = level
	}
	if count, err := s.interestRepo.CountForAccount(ctx, account); err == nil {
		view.InterestCount = count
	}
	if count, err := s.matchRepo.CountForAccount(ctx, account); err == nil {
		view.MatchCount = count
	}
	return view, nil
}

// ListMatches returns a page of the account's match history, newest first,
// with an opaque cursor for the next page.
func (s *Service) ListMatches(ctx context.Context, account string, paginationToken *string, limit int) ([]MatchEntry, *string, error) {
	if limit <= 0 {
		limit = 5
	}

	records, nextToken, err := s.matchRepo.ListForAccount(ctx, account, paginationToken, limit)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]MatchEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, MatchEntry{
			Peer:          record.Peer,
			UnixTimestamp: record.CreatedAt.Unix(),
		})
	}
	return entries, nextToken, nil
}

package match

import (
	"context"
	"sort"

	"github.com/kindredmatch/kindred/internal/app"
	svcErr "github.com/kindredmatch/kindred/internal/errors"
	"github.com/kindredmatch/kindred/internal/repository"
	"github.com/kindredmatch/kindred/internal/service/boost"
)

// InactivityCutoff is how long (seconds) an account may stay idle before the
// ranking scan stops proposing it. Fixed at 30 days.
const InactivityCutoff int64 = 2_592_000

// Candidate is one ranked result from FindMatches.
type Candidate struct {
	Account string
	Score   uint64
}

// Service implements the compatibility and ranking engine on top of the
// profile, interest, and boost state.
type Service struct {
	appCtx       *app.AppContext
	profileRepo  *repository.ProfileRepository
	interestRepo *repository.InterestRepository
	boost        *boost.Service
}

// NewService creates the ranking service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, boostSvc *boost.Service) *Service {
	return &Service{
		appCtx:       appCtx,
		profileRepo:  repository.NewProfileRepository(appCtx.DB),
		interestRepo: repository.NewInterestRepository(appCtx.DB),
		boost:        boostSvc,
	}
}

// Compatibility scores two accounts' interest overlap.
//
// Both accounts must be registered; an empty interest sequence on either side
// fails with NoVerifiedInterests. Popularity counts are read from the store
// in one batched query, so the result is deterministic for fixed state.
func (s *Service) Compatibility(ctx context.Context, account1, account2 string) (uint64, error) {
	for _, account := range []string{account1, account2} {
		registered, err := s.profileRepo.IsRegistered(ctx, account)
		if err != nil {
			return 0, err
		}
		if !registered {
			return 0, svcErr.ErrNotRegistered
		}
	}

	interests1, err := s.interestRepo.ListIDs(ctx, account1)
	if err != nil {
		return 0, err
	}
	interests2, err := s.interestRepo.ListIDs(ctx, account2)
	if err != nil {
		return 0, err
	}

	// weights only ever look up tokens from the first sequence
	popularity, err := s.interestRepo.PopularityMap(ctx, interests1)
	if err != nil {
		return 0, err
	}

	return Score(interests1, interests2, popularity)
}

// FindMatches ranks every eligible account against the requester and returns
// the top maxResults.
//
// Pipeline:
//  1. Requester must have an active profile.
//  2. Scan all accounts in registration order; skip the requester and anyone
//     idle longer than InactivityCutoff.
//  3. Interest score per candidate; scoring failures downgrade to 0 and a
//     zero interest score drops the candidate entirely.
//  4. Manhattan location score, candidate boost level, 60/40 blend with the
//     boost multiplier.
//  5. Stable sort by score descending: the scan already runs in registration
//     order, so ties keep ascending registration order.
//
// Cost is O(U * I1 * I2): an unindexed full-population scan with nested
// pairwise scoring per candidate.
func (s *Service) FindMatches(ctx context.Context, requester string, maxResults int) ([]Candidate, error) {
	s.appCtx.Logger.Debug("FindMatches called", "requester", requester, "max_results", maxResults)

	me, err := s.profileRepo.Get(ctx, requester)
	if err != nil {
		return nil, err
	}
	if me == nil || !me.Active {
		return nil, svcErr.ErrNotRegistered
	}

	myInterests, err := s.interestRepo.ListIDs(ctx, requester)
	if err != nil {
		return nil, err
	}
	popularity, err := s.interestRepo.PopularityMap(ctx, myInterests)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profileRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.appCtx.NowUnix()
	candidates := make([]Candidate, 0, len(profiles))

	for _, candidate := range profiles {
		if candidate.Account == requester || !candidate.Active {
			continue
		}
		if now-candidate.LastActiveAt > InactivityCutoff {
			continue
		}

		theirInterests, err := s.interestRepo.ListIDs(ctx, candidate.Account)
		if err != nil {
			return nil, err
		}

		// a scoring failure here means "no basis to rank", not an error
		interestScore, err := Score(myInterests, theirInterests, popularity)
		if err != nil {
			interestScore = 0
		}
		if interestScore == 0 {
			continue
		}

		locationScore := LocationScore(me.Longitude, me.Latitude, candidate.Longitude, candidate.Latitude)

		boostLevel, err := s.boost.Level(ctx, candidate.Account)
		if err != nil {
			boostLevel = 0
		}

		candidates = append(candidates, Candidate{
			Account: candidate.Account,
			Score:   TotalScore(interestScore, locationScore, boostLevel),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if maxResults < 0 {
		maxResults = 0
	}
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	s.appCtx.Logger.Debug("FindMatches result", "requester", requester, "count", len(candidates))
	return candidates, nil
}

package oracle

import (
	"context"
	"sync"
)

// Oracle proves that an account owns an interest token. The real
// implementation lives outside this service; callers block on it
// synchronously and surface its failures as VerificationFailed.
type Oracle interface {
	VerifyOwnership(ctx context.Context, account string, interestID uint64) (bool, error)
}

// Static is an in-memory oracle for development and tests: ownership is
// whatever was granted up front.
type Static struct {
	mu     sync.RWMutex
	grants map[string]map[uint64]bool
}

func NewStatic() *Static {
	return &Static{grants: make(map[string]map[uint64]bool)}
}

// Grant marks interestID as owned by account.
func (s *Static) Grant(account string, interestID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[account] == nil {
		s.grants[account] = make(map[uint64]bool)
	}
	s.grants[account][interestID] = true
}

func (s *Static) VerifyOwnership(_ context.Context, account string, interestID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grants[account][interestID], nil
}

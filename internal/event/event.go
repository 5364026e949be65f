package event

import (
	"log/slog"

	"github.com/google/uuid"
)

// Names of the notifications the ledger emits. Consumers key off these.
const (
	UserRegistered         = "UserRegistered"
	LocationUpdated        = "UserLocationUpdated"
	InterestVerified       = "InterestVerified"
	MatchReported          = "MatchReported"
	BoostPurchased         = "BoostPurchased"
	BoostExpired           = "BoostExpired"
	BoostPriceUpdated      = "BoostPriceUpdated"
	RegistrationFeeUpdated = "RegistrationFeeUpdated"
	FundsWithdrawn         = "FundsWithdrawn"
)

// Emitter publishes ledger notifications. Implementations must be safe for
// concurrent use; emission is best-effort and never fails the operation that
// triggered it.
type Emitter interface {
	Emit(name string, args ...any)
}

// LogEmitter writes notifications to the structured log, tagging each with a
// unique event id so downstream collectors can dedupe.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates an Emitter backed by the given logger.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(name string, args ...any) {
	fields := append([]any{"event_id", uuid.NewString()}, args...)
	e.logger.Info("event: "+name, fields...)
}

// Nop discards all notifications. Handy default for tests.
type Nop struct{}

func (Nop) Emit(string, ...any) {}

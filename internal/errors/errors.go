package errors

import "errors"

// Domain error taxonomy. Services return these sentinels (optionally wrapped
// with %w) so callers can branch with errors.Is and the gRPC layer can map
// them to status codes in one place.
var (
	// ErrUnauthorized - caller lacks the required capability.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidParameters - zero/null or out-of-range argument.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrInvalidAddress - zero/unset account where a real one is required.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidDuration - boost duration of zero days.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInsufficientPayment - payment or withdrawal amount below requirement.
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrNotRegistered - operation requires an active profile.
	ErrNotRegistered = errors.New("not registered")

	// ErrAlreadyRegistered - profile already active.
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrNoVerifiedInterests - scoring requested with an empty interest list.
	ErrNoVerifiedInterests = errors.New("no verified interests")

	// ErrWithdrawalFailed - downstream transfer failed after the optimistic debit.
	ErrWithdrawalFailed = errors.New("withdrawal failed")

	// ErrVerificationFailed - the ownership oracle rejected or errored.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrCollaboratorNotConfigured - a required external collaborator is unset.
	ErrCollaboratorNotConfigured = errors.New("collaborator not configured")
)

// Is re-exports errors.Is so service code only imports this package.
func Is(err, target error) bool { return errors.Is(err, target) }

package db

import (
	"time"
)

// LedgerStateID is the primary key of the singleton LedgerState row.
const LedgerStateID = 1

// LedgerState is the single global configuration + treasury row.
//
// Fields:
//   - Owner: account set once by Init; "" while uninitialized.
//   - Coordinator: the coordinating collaborator granted operator-level
//     boost status reads; optional.
//   - RegistrationFee / BoostPricePerDay: current price policy in payment units.
//     Changing them never rewrites existing records.
//   - TotalFunds: escrowed funds collected from registrations and boost
//     purchases, debited by owner withdrawals.
type LedgerState struct {
	ID               uint32 `gorm:"primaryKey"`
	Owner            string `gorm:"size:42;not null;default:''"`
	Coordinator      string `gorm:"size:42;not null;default:''"`
	RegistrationFee  uint64 `gorm:"not null;default:0"`
	BoostPricePerDay uint64 `gorm:"not null;default:0"`
	TotalFunds       uint64 `gorm:"not null;default:0"`
	UpdatedAt        time.Time
}

// Profile is a registered user.
//
// The auto-increment ID doubles as registration order: ranking scans iterate
// profiles ordered by ID and rely on it as the stable tie-break.
// Longitude/Latitude are raw integer coordinates; zero means "not set".
// RegisteredAt/LastActiveAt are unix seconds.
type Profile struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Account      string `gorm:"uniqueIndex;size:42;not null"`
	Active       bool   `gorm:"not null;default:true"`
	RegisteredAt int64  `gorm:"not null"`
	LastActiveAt int64  `gorm:"not null;index"`
	Location     string `gorm:"size:128"`
	Longitude    int64  `gorm:"not null;default:0"`
	Latitude     int64  `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Interest is one verified interest-token event for an account.
//
// Rows form the account's ordered interest sequence (ordered by ID).
// Duplicates are allowed: re-verifying the same token appends another row,
// which the scorer deliberately double-counts.
type Interest struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Account    string `gorm:"index;size:42;not null"`
	InterestID uint64 `gorm:"not null"`
	CreatedAt  time.Time
}

// Popularity counts verification events per interest token.
// Monotonically non-decreasing; incremented once per successful verification
// call, not per distinct verifier.
type Popularity struct {
	InterestID uint64 `gorm:"primaryKey;autoIncrement:false"`
	Count      uint64 `gorm:"not null;default:0"`
	UpdatedAt  time.Time
}

// Boost is a per-account time-boxed visibility entitlement.
//
// A new purchase overwrites the row outright; there is no extension or
// proportional refund. Active is flipped lazily by CheckStatus once the
// window has passed. StartAt/EndAt are unix seconds.
type Boost struct {
	Account   string `gorm:"primaryKey;size:42"`
	Amount    uint64 `gorm:"not null"`
	StartAt   int64  `gorm:"not null"`
	EndAt     int64  `gorm:"not null"`
	Active    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchRecord is one direction of a reported match. Reporting a match inserts
// two rows, one per side, so each account's history is a plain indexed scan.
type MatchRecord struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Account   string `gorm:"index;size:42;not null"`
	Peer      string `gorm:"size:42;not null"`
	CreatedAt time.Time
}

// Operator is an account granted elevated, non-owner capability.
type Operator struct {
	Account   string `gorm:"primaryKey;size:42"`
	CreatedAt time.Time
}

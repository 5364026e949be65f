package db

import (
	"encoding/hex"
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/sha3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DevAccount derives a deterministic hex address for a dev identity name,
// keccak256(name) truncated to 20 bytes, the way wallet addresses are derived.
func DevAccount(name string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	sum := h.Sum(nil)
	return "0x" + hex.EncodeToString(sum[12:])
}

// SeedTestData resets the database and populates it with a demo ledger.
//
// Behavior:
//  1. Clears all ledger tables.
//  2. Initializes the state row: owner = DevAccount("owner"), default prices.
//  3. Creates 20 active profiles with coordinates clustered around (500, 500).
//  4. Verifies 2-5 interest tokens per profile (popularity counted per event).
//  5. Gives every 4th profile an active 3-day boost.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().Unix()

	// --- Fresh start ---
	for _, table := range []string{"match_records", "interests", "popularities", "boosts", "profiles", "operators", "ledger_states"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE profiles AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE interests AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'profiles'")
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'interests'")
	}

	log.Println("Cleared existing data")

	// --- State row: owner + price policy ---
	owner := DevAccount("owner")
	state := LedgerState{
		ID:               LedgerStateID,
		Owner:            owner,
		RegistrationFee:  10_000_000_000_000_000, // 0.01 in 1e18 payment units
		BoostPricePerDay: 10_000_000_000_000_000,
	}
	if err := db.Create(&state).Error; err != nil {
		return fmt.Errorf("failed to seed state: %w", err)
	}
	if err := db.Create(&Operator{Account: owner}).Error; err != nil {
		return fmt.Errorf("failed to seed owner operator: %w", err)
	}

	// --- Profiles ---
	var accounts []string
	for i := 1; i <= 20; i++ {
		account := DevAccount(fmt.Sprintf("user%d", i))
		accounts = append(accounts, account)

		profile := Profile{
			Account:      account,
			Active:       true,
			RegisteredAt: now - int64(r.Intn(90*86400)),
			LastActiveAt: now - int64(r.Intn(20*86400)),
			Location:     fmt.Sprintf("district-%d", 1+r.Intn(5)),
			Longitude:    int64(400 + r.Intn(200)),
			Latitude:     int64(400 + r.Intn(200)),
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
	}
	log.Println("Seeded 20 profiles.")

	// --- Verified interests (popularity counted per verification event) ---
	for _, account := range accounts {
		n := 2 + r.Intn(4)
		for j := 0; j < n; j++ {
			interestID := uint64(100 + r.Intn(12))
			if err := db.Create(&Interest{Account: account, InterestID: interestID}).Error; err != nil {
				return fmt.Errorf("failed to seed interest: %w", err)
			}
			if err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "interest_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
			}).Create(&Popularity{InterestID: interestID, Count: 1}).Error; err != nil {
				return fmt.Errorf("failed to seed popularity: %w", err)
			}
		}
	}
	log.Println("Seeded verified interests.")

	// --- Boosts for every 4th profile ---
	funds := state.RegistrationFee * 20
	for i, account := range accounts {
		if i%4 != 0 {
			continue
		}
		payment := state.BoostPricePerDay * 3
		boost := Boost{
			Account: account,
			Amount:  payment,
			StartAt: now,
			EndAt:   now + 3*86400,
			Active:  true,
		}
		if err := db.Create(&boost).Error; err != nil {
			return fmt.Errorf("failed to seed boost: %w", err)
		}
		funds += payment
	}

	if err := db.Model(&LedgerState{}).Where("id = ?", LedgerStateID).
		Update("total_funds", funds).Error; err != nil {
		return fmt.Errorf("failed to seed treasury total: %w", err)
	}

	log.Println("Seeded boosts and treasury total.")
	return nil
}

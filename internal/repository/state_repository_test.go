package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/kindredmatch/kindred/internal/db"
	"github.com/kindredmatch/kindred/internal/repository"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestStateGetBeforeInit(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewStateRepository(setupTestDB(t))

	state, err := repo.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, uint32(db.LedgerStateID), state.ID)
	assert.Empty(t, state.Owner)
	assert.Zero(t, state.TotalFunds)
}

func TestStateSaveIsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewStateRepository(setupTestDB(t))

	state, _ := repo.Get(ctx)
	state.Owner = "0xabc"
	state.RegistrationFee = 100
	assert.NoError(t, repo.Save(ctx, state))

	// second save on the singleton row overwrites, never duplicates
	state.RegistrationFee = 200
	assert.NoError(t, repo.Save(ctx, state))

	got, err := repo.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "0xabc", got.Owner)
	assert.Equal(t, uint64(200), got.RegistrationFee)
}

func TestStateDeposit(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewStateRepository(setupTestDB(t))

	assert.NoError(t, repo.Deposit(ctx, 300))
	assert.NoError(t, repo.Deposit(ctx, 200))

	state, err := repo.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, uint64(500), state.TotalFunds)

	// accumulating past the counter's range is refused
	err = repo.Deposit(ctx, ^uint64(0))
	assert.Error(t, err)
}

func TestOperatorLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewStateRepository(setupTestDB(t))

	ok, err := repo.IsOperator(ctx, "0xop")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, repo.AddOperator(ctx, "0xop"))
	// re-adding is a no-op
	assert.NoError(t, repo.AddOperator(ctx, "0xop"))

	ok, err = repo.IsOperator(ctx, "0xop")
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, repo.RemoveOperator(ctx, "0xop"))
	ok, _ = repo.IsOperator(ctx, "0xop")
	assert.False(t, ok)
}

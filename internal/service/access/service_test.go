package access_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kindredmatch/kindred/internal/app"
	"github.com/kindredmatch/kindred/internal/cache"
	"github.com/kindredmatch/kindred/internal/config"
	"github.com/kindredmatch/kindred/internal/db"
	svcErr "github.com/kindredmatch/kindred/internal/errors"
	"github.com/kindredmatch/kindred/internal/event"
	"github.com/kindredmatch/kindred/internal/repository"
	"github.com/kindredmatch/kindred/internal/service/access"
)

var (
	owner       = db.DevAccount("owner")
	operator    = db.DevAccount("operator")
	coordinator = db.DevAccount("coordinator")
	stranger    = db.DevAccount("stranger")
)

// setupApp spins up an in-memory SQLite DB plus a miniredis and wires an
// isolated AppContext. Each test gets its own store.
func setupApp(t *testing.T) *app.AppContext {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests
	appCtx := app.New(dbase, cache.NewRedisCache(cfg), logger)
	appCtx.Events = event.Nop{}
	return appCtx
}

func TestInitSetsOwnerOnce(t *testing.T) {
	ctx := context.Background()
	appCtx := setupApp(t)
	svc := access.NewService(appCtx)

	require.NoError(t, svc.Init(ctx, owner))

	// one-time guard: second init fails even for the owner
	err := svc.Init(ctx, owner)
	assert.ErrorIs(t, err, svcErr.ErrUnauthorized)
	err = svc.Init(ctx, stranger)
	assert.ErrorIs(t, err, svcErr.ErrUnauthorized)

	isOwner, err := svc.IsOwner(ctx, owner)
	require.NoError(t, err)
	assert.True(t, isOwner)

	// owner joined the operator set
	isOp, err := svc.IsOperator(ctx, owner)
	require.NoError(t, err)
	assert.True(t, isOp)

	// default price policy installed with an empty treasury
	state, err := repository.NewStateRepository(appCtx.DB).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, access.DefaultRegistrationFee, state.RegistrationFee)
	assert.Equal(t, access.DefaultBoostPricePerDay, state.BoostPricePerDay)
	assert.Equal(t, uint64(0), state.TotalFunds)
}

func TestInitRejectsZeroAccount(t *testing.T) {
	ctx := context.Background()
	svc := access.NewService(setupApp(t))

	err := svc.Init(ctx, "")
	assert.ErrorIs(t, err, svcErr.ErrInvalidAddress)
	err = svc.Init(ctx, db.ZeroAccount)
	assert.ErrorIs(t, err, svcErr.ErrInvalidAddress)
}

func TestOperatorManagement(t *testing.T) {
	ctx := context.Background()
	svc := access.NewService(setupApp(t))
	require.NoError(t, svc.Init(ctx, owner))

	// only the owner may grant
	err := svc.AddOperator(ctx, stranger, operator)
	assert.ErrorIs(t, err, svcErr.ErrUnauthorized)

	err = svc.AddOperator(ctx, owner, "")
	assert.ErrorIs(t, err, svcErr.ErrInvalidParameters)

	require.NoError(t, svc.AddOperator(ctx, owner, operator))
	isOp, err := svc.IsOperator(ctx, operator)
	require.NoError(t, err)
	assert.True(t, isOp)

	// grants are idempotent
	require.NoError(t, svc.AddOperator(ctx, owner, operator))

	err = svc.RemoveOperator(ctx, stranger, operator)
	assert.ErrorIs(t, err, svcErr.ErrUnauthorized)

	require.NoError(t, svc.RemoveOperator(ctx, owner, operator))
	isOp, err = svc.IsOperator(ctx, operator)
	require.NoError(t, err)
	assert.False(t, isOp)

	// removing a non-operator is a no-op
	require.NoError(t, svc.RemoveOperator(ctx, owner, stranger))
}

func TestCanReadBoostStatus(t *testing.T) {
	ctx := context.Background()
	svc := access.NewService(setupApp(t))
	require.NoError(t, svc.Init(ctx, owner))
	require.NoError(t, svc.AddOperator(ctx, owner, operator))
	require.NoError(t, svc.SetCoordinator(ctx, owner, coordinator))

	account := db.DevAccount("account")

	cases := []struct {
		name   string
		caller string
		want   bool
	}{
		{"self", account, true},
		{"owner", owner, true},
		{"operator", operator, true},
		{"coordinator", coordinator, true},
		{"stranger", stranger, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := svc.CanReadBoostStatus(ctx, tc.caller, account)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestSetCoordinatorOwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc := access.NewService(setupApp(t))
	require.NoError(t, svc.Init(ctx, owner))

	err := svc.SetCoordinator(ctx, stranger, coordinator)
	assert.ErrorIs(t, err, svcErr.ErrUnauthorized)

	err = svc.SetCoordinator(ctx, owner, "")
	assert.ErrorIs(t, err, svcErr.ErrInvalidParameters)

	require.NoError(t, svc.SetCoordinator(ctx, owner, coordinator))
}

package treasury_test

import (
	"context"
	"errors"
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
	"github.com/kindredmatch/kindred/internal/service/treasury"
)

var (
	owner    = db.DevAccount("owner")
	stranger = db.DevAccount("stranger")
	payee    = db.DevAccount("payee")
)

// stubTransfer records payouts and can be told to fail.
type stubTransfer struct {
	err   error
	calls int
}

func (s *stubTransfer) Transfer(_ context.Context, _ string, _ uint64) error {
	s.calls++
	return s.err
}

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

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(dbase, cache.NewRedisCache(cfg), logger)
	appCtx.Events = event.Nop{}
	return appCtx
}

// setupTreasury wires an initialized ledger with the given escrow total.
func setupTreasury(t *testing.T, total uint64, transfer treasury.FundTransferrer) (*treasury.Service, *repository.StateRepository) {
	t.Helper()

	appCtx := setupApp(t)
	accessSvc := access.NewService(appCtx)
	require.NoError(t, accessSvc.Init(context.Background(), owner))

	stateRepo := repository.NewStateRepository(appCtx.DB)
	require.NoError(t, stateRepo.SetTotalFunds(context.Background(), total))

	return treasury.NewService(appCtx, accessSvc, transfer), stateRepo
}

func TestWithdrawDebitsTotal(t *testing.T) {
	ctx := context.Background()
	transfer := &stubTransfer{}
	svc, stateRepo := setupTreasury(t, 1000, transfer)

	require.NoError(t, svc.Withdraw(ctx, owner, payee, 300))

	assert.Equal(t, 1, transfer.calls)
	state, err := stateRepo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), state.TotalFunds)

	total, err := svc.TotalFunds(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), total)
}

func TestWithdrawTransferFailureRestoresTotal(t *testing.T) {
	ctx := context.Background()
	transfer := &stubTransfer{err: errors.New("payout gateway down")}
	svc, stateRepo := setupTreasury(t, 1000, transfer)

	err := svc.Withdraw(ctx, owner, payee, 300)
	assert.ErrorIs(t, err, svcErr.ErrWithdrawalFailed)

	// compensating rollback: the pre-withdrawal total survives
	state, repoErr := stateRepo.Get(ctx)
	require.NoError(t, repoErr)
	assert.Equal(t, uint64(1000), state.TotalFunds)
}

func TestWithdrawOwnerOnly(t *testing.T) {
	ctx := context.Background()
	transfer := &stubTransfer{}
	svc, _ := setupTreasury(t, 1000, transfer)

	err := svc.Withdraw(ctx, stranger, payee, 100)
	assert.ErrorIs(t, err, svcErr.ErrUnauthorized)
	assert.Equal(t, 0, transfer.calls)
}

func TestWithdrawRejectsZeroAddress(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupTreasury(t, 1000, &stubTransfer{})

	err := svc.Withdraw(ctx, owner, "", 100)
	assert.ErrorIs(t, err, svcErr.ErrInvalidAddress)

	err = svc.Withdraw(ctx, owner, db.ZeroAccount, 100)
	assert.ErrorIs(t, err, svcErr.ErrInvalidAddress)
}

func TestWithdrawRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	transfer := &stubTransfer{}
	svc, stateRepo := setupTreasury(t, 500, transfer)

	err := svc.Withdraw(ctx, owner, payee, 501)
	assert.ErrorIs(t, err, svcErr.ErrInsufficientPayment)
	assert.Equal(t, 0, transfer.calls)

	state, repoErr := stateRepo.Get(ctx)
	require.NoError(t, repoErr)
	assert.Equal(t, uint64(500), state.TotalFunds)
}

// reentrantTransfer lands a second withdrawal while the first one's payout is
// still in flight, then fails the original payout.
type reentrantTransfer struct {
	svc   *treasury.Service
	inner error
}

func (r *reentrantTransfer) Transfer(ctx context.Context, _ string, amount uint64) error {
	if amount == 300 {
		r.inner = r.svc.Withdraw(ctx, owner, payee, 500)
		return errors.New("payout gateway timeout")
	}
	return nil
}

func TestWithdrawRestoreKeepsInterleavedDebit(t *testing.T) {
	ctx := context.Background()
	transfer := &reentrantTransfer{}
	svc, stateRepo := setupTreasury(t, 1000, transfer)
	transfer.svc = svc

	err := svc.Withdraw(ctx, owner, payee, 300)
	assert.ErrorIs(t, err, svcErr.ErrWithdrawalFailed)
	require.NoError(t, transfer.inner)

	// the interleaved 500 payout keeps its debit; only the failed 300 returns
	state, repoErr := stateRepo.Get(ctx)
	require.NoError(t, repoErr)
	assert.Equal(t, uint64(500), state.TotalFunds)
}

func TestWithdrawWithoutTransferrerRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, stateRepo := setupTreasury(t, 400, nil)

	err := svc.Withdraw(ctx, owner, payee, 100)
	assert.ErrorIs(t, err, svcErr.ErrWithdrawalFailed)

	state, repoErr := stateRepo.Get(ctx)
	require.NoError(t, repoErr)
	assert.Equal(t, uint64(400), state.TotalFunds)
}

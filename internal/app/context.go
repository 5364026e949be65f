package app

import (
	"log/slog"
	"time"

	"github.com/kindredmatch/kindred/internal/cache"
	"github.com/kindredmatch/kindred/internal/event"
	"github.com/kindredmatch/kindred/internal/oracle"
	"gorm.io/gorm"
)

// AppContext holds shared dependencies (DB, Redis, Logger, collaborators).
// Now is the ledger clock; tests pin it to get deterministic time-boxed state.
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Events     event.Emitter
	Oracle     oracle.Oracle
	Now        func() time.Time
}

// New creates a new AppContext with a real clock and log-backed events.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Events:     event.NewLogEmitter(logger),
		Now:        time.Now,
	}
}

// NowUnix returns the current ledger time in unix seconds.
func (a *AppContext) NowUnix() int64 {
	return a.Now().Unix()
}

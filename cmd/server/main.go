package main

import (
	"context"

	"github.com/kindredmatch/kindred/internal/app"
	"github.com/kindredmatch/kindred/internal/cache"
	"github.com/kindredmatch/kindred/internal/config"
	"github.com/kindredmatch/kindred/internal/db"
	svcErr "github.com/kindredmatch/kindred/internal/errors"
	"github.com/kindredmatch/kindred/internal/logger"
	"github.com/kindredmatch/kindred/internal/oracle"
	"github.com/kindredmatch/kindred/internal/server"
	"github.com/kindredmatch/kindred/internal/service/access"
	"github.com/kindredmatch/kindred/internal/service/boost"
	"github.com/kindredmatch/kindred/internal/service/match"
	"github.com/kindredmatch/kindred/internal/service/registry"
	"github.com/kindredmatch/kindred/internal/service/treasury"
)

func main() {
	ctx := context.Background()
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Inject logger into app context
	appCtx := app.New(database, redisCache, log)
	appCtx.Oracle = oracle.NewStatic()

	accessSvc := access.NewService(appCtx)
	boostSvc := boost.NewService(appCtx, accessSvc)
	registrySvc := registry.NewService(appCtx, accessSvc, boostSvc)
	matchSvc := match.NewService(appCtx, boostSvc)
	treasurySvc := treasury.NewService(appCtx, accessSvc, nil)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
		// smoke-check the seeded dataset through the full ranking path
		if sample, err := matchSvc.FindMatches(ctx, db.DevAccount("user1"), 3); err != nil {
			log.Warn("seed ranking check failed", "err", err)
		} else {
			log.Debug("seed ranking check", "candidates", len(sample))
		}
	}

	// one-time bootstrap; a no-op once an owner exists
	if cfg.App.OwnerAccount != "" {
		switch err := accessSvc.Init(ctx, cfg.App.OwnerAccount); {
		case err == nil:
		case svcErr.Is(err, svcErr.ErrUnauthorized):
			log.Debug("ledger already initialized")
		default:
			log.Error("failed to initialize ledger", "err", err)
			return
		}
	}

	fee, _ := registrySvc.RegistrationFee(ctx)
	total, _ := treasurySvc.TotalFunds(ctx)
	users, _ := registrySvc.TotalUsers(ctx)
	log.Info("ledger ready", "registration_fee", fee, "treasury_total", total, "total_users", users)

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting gRPC server", "addr", addr)

	if err := server.StartGRPCServer(cfg); err != nil {
		log.Error("failed to start gRPC server", "err", err)
	}
}

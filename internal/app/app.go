package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/cocoiru/internal/config"
	"github.com/Skotchmaster/cocoiru/internal/db"
	"github.com/Skotchmaster/cocoiru/internal/hash"
	"github.com/Skotchmaster/cocoiru/internal/mykafka"
	"github.com/Skotchmaster/cocoiru/internal/repo"
	"github.com/Skotchmaster/cocoiru/internal/revocation"
	"github.com/Skotchmaster/cocoiru/internal/service"
)

// App holds the long-lived dependencies shared by the server and the CLI.
type App struct {
	Cfg    *config.Config
	Logger *slog.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	Events mykafka.Publisher
	Svc    *service.AuthService
}

func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		_ = db.Close(gdb)
		return nil, err
	}

	a := &App{Cfg: cfg, Logger: logger, DB: gdb}

	hasher := hash.Hasher{Cost: cfg.BcryptCost}
	store := &repo.GormRepo{DB: gdb, Hasher: hasher}

	var revoked service.RevocationList = store
	if cfg.RevocationBackend == config.RevocationBackendRedis {
		client, err := revocation.Open(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = client
		revoked = revocation.NewRedisList(client)
	}

	a.Events = mykafka.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		a.Events = mykafka.NewProducer(cfg.KafkaBrokers)
	}

	a.Svc = service.NewAuthService(store, revoked, cfg.Tokens(), hasher)
	a.Svc.Events = a.Events
	a.Svc.Topic = cfg.EventsTopic

	logger.Info("app_ready",
		"revocation_backend", cfg.RevocationBackend,
		"events", len(cfg.KafkaBrokers) > 0,
		"algorithm", cfg.Algorithm,
		"token_ttl_seconds", int64(cfg.AccessTokenTTL.Seconds()),
	)
	return a, nil
}

// SeedAdmin creates the bootstrap gov account from ADMIN_USERNAME/ADMIN_PASSWORD.
func (a *App) SeedAdmin(ctx context.Context) error {
	created, err := a.Svc.EnsureGovAdmin(ctx, a.Cfg.AdminUsername, a.Cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		a.Logger.Info("admin_seeded", "username", a.Cfg.AdminUsername)
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka close: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if a.DB != nil {
		if err := db.Close(a.DB); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

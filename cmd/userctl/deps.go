package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"chatapp/internal/feature/auth/adapters"
	"chatapp/internal/feature/auth/domain/entity"
	"chatapp/internal/feature/auth/usecase"
	"chatapp/internal/platform/cache"
	"chatapp/internal/platform/db"
	jwtauth "chatapp/internal/platform/jwt"
	platformmongo "chatapp/internal/platform/mongo"
	platformredis "chatapp/internal/platform/redis"
)

// accountService is what the commands need from the auth usecase.
type accountService interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	CheckAuth(ctx context.Context, userID string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID string, in usecase.UpdateProfileInput) (*entity.User, error)
}

// userCacheTTL bounds how long a profile read by id may be served from Redis.
const userCacheTTL = 5 * time.Minute

// openRepository connects the selected user store. The returned func releases it.
func openRepository(ctx context.Context, kind string) (usecase.UserRepository, func(), error) {
	switch kind {
	case "sql":
		cfg, err := db.LoadConfigFromEnv()
		if err != nil {
			return nil, nil, err
		}
		gdb, err := db.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return adapters.NewUserGorm(gdb), closeFn, nil

	case "mongo":
		cfg, err := platformmongo.LoadConfig()
		if err != nil {
			return nil, nil, err
		}
		client, err := platformmongo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return adapters.NewUserMongo(client.Database(cfg.Database)), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q (want sql or mongo)", kind)
	}
}

// openService wires repository, Redis cache and token generator.
func openService(ctx context.Context) (accountService, func(), error) {
	repo, closeRepo, err := openRepository(ctx, storeKind)
	if err != nil {
		return nil, nil, err
	}

	jwtCfg, err := jwtauth.LoadConfig()
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	// Redis
	var rdb *redisv9.Client
	if redisCfg, err := platformredis.LoadConfig(); err != nil {
		slog.Warn("Invalid Redis config. Running without cache.", "error", err)
	} else if tmp, err := platformredis.NewRedisClient(ctx, redisCfg); err != nil {
		slog.Warn("Redis unavailable. Running without cache.")
	} else {
		rdb = tmp
	}

	cached := cache.NewCachingUserRepository(rdb, userCacheTTL, repo, "users")
	svc := usecase.NewAuthUsecase(cached, jwtauth.NewGenerator(jwtCfg.Secret, jwtCfg.Expiration))

	closeAll := func() {
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}
		closeRepo()
	}
	return svc, closeAll, nil
}

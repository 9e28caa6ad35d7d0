package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArnavJain-cy/sih-app/internal/account"
	"github.com/ArnavJain-cy/sih-app/internal/config"
	"github.com/ArnavJain-cy/sih-app/internal/db"
	"github.com/ArnavJain-cy/sih-app/internal/domain/user"
	"github.com/ArnavJain-cy/sih-app/internal/observability"
	"github.com/ArnavJain-cy/sih-app/internal/repo/memory"
	"github.com/ArnavJain-cy/sih-app/internal/repo/mongodb"
	"github.com/ArnavJain-cy/sih-app/internal/repo/postgres"
)

// Store is a credential store that can also report readiness.
type Store interface {
	account.UserStore
	Ping(ctx context.Context) error
}

// OpenStore connects the driver named by cfg.StoreDriver. The returned close
// func releases its connections and is never nil.
func OpenStore(ctx context.Context, cfg config.Config, hasher user.Hasher, prom *observability.Prom, log *slog.Logger) (Store, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.StoreDriver {
	case config.DriverMemory, "":
		log.Warn("using in-memory credential store, data is lost on restart")
		return memory.NewUsersRepo(hasher), noop, nil

	case config.DriverMongo:
		client, err := db.ConnectMongo(ctx, cfg.Mongo.URI, 10*time.Second)
		if err != nil {
			return nil, noop, err
		}
		repo := mongodb.NewUsersRepo(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection), hasher, prom)

		ictx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := repo.EnsureIndexes(ictx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, noop, fmt.Errorf("ensure mongo indexes: %w", err)
		}

		log.Info("connected to mongodb", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		return repo, client.Disconnect, nil

	case config.DriverPostgres:
		dbURL := cfg.DBURL()
		if err := db.RunMigrations(ctx, dbURL); err != nil {
			return nil, noop, err
		}
		pool, err := db.NewPool(dbURL)
		if err != nil {
			return nil, noop, err
		}

		log.Info("connected to postgres", "host", cfg.DB.Host, "database", cfg.DB.Name)
		return postgres.NewUsersRepo(pool, hasher, prom), func(context.Context) error {
			pool.Close()
			return nil
		}, nil

	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Package bootstrap wires configuration into the runtime dependencies
// shared by the server and the CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/channel-attribution/internal/cache"
	"github.com/ignite/channel-attribution/internal/config"
	"github.com/ignite/channel-attribution/internal/overlap"
	"github.com/ignite/channel-attribution/internal/pkg/distlock"
	"github.com/ignite/channel-attribution/internal/pkg/logger"
	"github.com/ignite/channel-attribution/internal/repository/postgres"
	"github.com/ignite/channel-attribution/internal/service/subchannel"
)

// SetupLogging applies the logging section to the default logger.
func SetupLogging(cfg config.LoggingConfig) {
	logger.SetLevel(logger.ParseLevel(cfg.Level))
	logger.SetRedactSecrets(cfg.Redact())
}

// OpenRedis connects to Redis when configured. A failed ping is logged and
// returns nil so callers fall back to PostgreSQL advisory locks and uncached
// reads.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled() {
		logger.Info("redis not configured, using postgres advisory locks")
		return nil
	}

	var client *redis.Client
	if opts, err := redis.ParseURL(cfg.Addr); err == nil {
		client = redis.NewClient(opts)
	} else {
		client = redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed, falling back to postgres advisory locks",
			"addr", cfg.Addr, "error", err.Error())
		client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", cfg.Addr)
	return client
}

// Strategies parses the configured live and authoritative strategies.
func Strategies(cfg config.ValidationConfig) (live, authoritative overlap.Strategy, err error) {
	live, err = overlap.ParseStrategy(cfg.LiveStrategy)
	if err != nil {
		return live, authoritative, fmt.Errorf("validation.live_strategy: %w", err)
	}
	authoritative, err = overlap.ParseStrategy(cfg.AuthoritativeStrategy)
	if err != nil {
		return live, authoritative, fmt.Errorf("validation.authoritative_strategy: %w", err)
	}
	return live, authoritative, nil
}

// Services holds the wired application services.
type Services struct {
	SubChannels *subchannel.Service
	Channels    *postgres.ChannelRepo
	Locks       distlock.Factory
}

// NewServices builds the sub-channel service over PostgreSQL, with the
// Redis directory cache when rdb is non-nil.
func NewServices(cfg *config.Config, db *sql.DB, rdb *redis.Client) (*Services, error) {
	live, authoritative, err := Strategies(cfg.Validation)
	if err != nil {
		return nil, err
	}

	channels := postgres.NewChannelRepo(db)
	locks := distlock.NewFactory(rdb, db, cfg.Redis.LockTTL())
	opts := subchannel.Options{
		Channels:      channels,
		Locks:         locks,
		Live:          live,
		Authoritative: authoritative,
		LockWait:      cfg.Validation.LockWait(),
	}
	if rdb != nil {
		opts.Cache = cache.NewDirectoryCache(rdb, cfg.Redis.DirectoryTTL())
	}

	logger.Info("overlap strategies configured",
		"live", live.String(), "authoritative", authoritative.String())
	return &Services{
		SubChannels: subchannel.NewService(postgres.NewSubChannelRepo(db), opts),
		Channels:    channels,
		Locks:       locks,
	}, nil
}

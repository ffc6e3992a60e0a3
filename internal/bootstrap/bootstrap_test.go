package bootstrap

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/channel-attribution/internal/config"
	"github.com/ignite/channel-attribution/internal/overlap"
)

func TestStrategies(t *testing.T) {
	live, authoritative, err := Strategies(config.Default().Validation)
	require.NoError(t, err)
	assert.Equal(t, overlap.Symmetric, live)
	assert.Equal(t, overlap.SourceGated, authoritative)

	_, _, err = Strategies(config.ValidationConfig{LiveStrategy: "fuzzy", AuthoritativeStrategy: "source_gated"})
	assert.Error(t, err)
}

func TestOpenRedis(t *testing.T) {
	assert.Nil(t, OpenRedis(context.Background(), config.RedisConfig{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := OpenRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NotNil(t, client)
	client.Close()

	mr.Close()
	assert.Nil(t, OpenRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}))
}

func TestNewServicesRejectsUnknownStrategy(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := config.Default()
	cfg.Validation.AuthoritativeStrategy = "loose"
	_, err = NewServices(cfg, db, nil)
	assert.Error(t, err)

	cfg = config.Default()
	svcs, err := NewServices(cfg, db, nil)
	require.NoError(t, err)
	assert.NotNil(t, svcs.SubChannels)
	assert.NotNil(t, svcs.Locks)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteActiveNeedsAllThreeValues(t *testing.T) {
	assert.False(t, Remote{}.Active())
	assert.False(t, Remote{Enabled: true, URL: "postgres://board@db:5432/board"}.Active())
	assert.False(t, Remote{URL: "postgres://board@db:5432/board", Password: "hunter2"}.Active())
	assert.True(t, Remote{Enabled: true, URL: "postgres://board@db:5432/board", Password: "hunter2"}.Active())
}

func TestRemoteDSNEmbedsPassword(t *testing.T) {
	dsn, err := Remote{URL: "postgres://board@db:5432/board", Password: "hunter2"}.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://board:hunter2@db:5432/board", dsn)
}

func TestRemoteDSNPassesThroughNonURL(t *testing.T) {
	dsn, err := Remote{URL: "file:board.db?cache=shared", Password: "ignored"}.DSN()
	require.NoError(t, err)
	assert.Equal(t, "file:board.db?cache=shared", dsn)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("no-such-env-file")
	require.NoError(t, err)
	assert.Equal(t, ":3333", cfg.Addr)
	assert.Equal(t, "data/board.json", cfg.DataFile)
	assert.Equal(t, "pgx", cfg.Remote.Driver)
	assert.False(t, cfg.Remote.Active())
}

package server

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/grupotelles/comercial/internal/config"
	"github.com/grupotelles/comercial/internal/database"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPingMock(t *testing.T, pingErr error) *sqlx.DB {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ping := mock.ExpectPing()
	if pingErr != nil {
		ping.WillReturnError(pingErr)
	}
	return sqlx.NewDb(db, "sqlserver")
}

func newHealthServer(t *testing.T, checks []string) *Server {
	logger := zerolog.Nop()
	cfg := &config.Config{}
	if checks != nil {
		cfg.Observability = &config.ObservabilityConfig{
			HealthChecks: config.HealthChecksConfig{Checks: checks},
		}
	}
	return &Server{Surface: SurfaceWeb, Config: cfg, Logger: &logger}
}

func TestCheckReportsEachDatabase(t *testing.T) {
	s := newHealthServer(t, nil)
	logger := zerolog.Nop()
	s.DB = database.NewWithPools(map[string]*sqlx.DB{
		"app": newPingMock(t, nil),
		"dtw": newPingMock(t, errors.New("login failed")),
	}, &logger)

	results := s.Check(context.Background())

	require.Len(t, results, 2)
	assert.True(t, results["database:app"].Healthy())
	assert.False(t, results["database:dtw"].Healthy())
	assert.Equal(t, "login failed", results["database:dtw"].Error)
}

func TestCheckWithoutStores(t *testing.T) {
	s := newHealthServer(t, nil)
	assert.Empty(t, s.Check(context.Background()))
}

func TestCheckEnabled(t *testing.T) {
	assert.True(t, newHealthServer(t, nil).checkEnabled("redis"))

	s := newHealthServer(t, []string{"database"})
	assert.True(t, s.checkEnabled("database"))
	assert.False(t, s.checkEnabled("redis"))
}

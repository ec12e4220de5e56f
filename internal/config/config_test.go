package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("COMERCIAL_PRIMARY.ENV", "local")
	t.Setenv("COMERCIAL_REDIS.ADDRESS", "localhost:6379")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "8006", cfg.Manager.Port)
	assert.Equal(t, "audit_api.log", cfg.Manager.AuditLogPath)
	assert.Equal(t, 30*time.Second, cfg.Manager.CommandTimeout)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 15, cfg.Invoices.PollAttempts)
	assert.Equal(t, "comercial", cfg.Observability.ServiceName)
	assert.Equal(t, "local", cfg.Observability.Environment)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigDatabasesAndLists(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COMERCIAL_DATABASES.STE.HOST", "sql01")
	t.Setenv("COMERCIAL_DATABASES.STE.USER", "app")
	t.Setenv("COMERCIAL_DATABASES.STE.PASSWORD", "secret")
	t.Setenv("COMERCIAL_DATABASES.STE.NAME", "DATASULSTE")
	t.Setenv("COMERCIAL_SERVER.CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("COMERCIAL_MANAGER.COMMAND_TIMEOUT", "45s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	ste, ok := cfg.Databases[DatabaseSTE]
	require.True(t, ok)
	assert.Equal(t, "sql01", ste.Host)
	assert.Equal(t, 1433, ste.Port)
	assert.Equal(t, 10, ste.MaxOpenConns)
	assert.Equal(t, 2, ste.MaxIdleConns)
	assert.Equal(t, 120*time.Second, ste.QueryTimeout)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 45*time.Second, cfg.Manager.CommandTimeout)
}

func TestLoadConfigRejectsIncompleteDatabase(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COMERCIAL_DATABASES.DTW.HOST", "sql02")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsShortSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COMERCIAL_AUTH.SECRET_KEY", "troque-me")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "SecretKey")
}

func TestLoadConfigRequiresEnv(t *testing.T) {
	t.Setenv("COMERCIAL_REDIS.ADDRESS", "localhost:6379")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidateWeb(t *testing.T) {
	cfg := &Config{Databases: map[string]DatabaseConfig{}}
	assert.ErrorContains(t, cfg.ValidateWeb(), "dtw")

	cfg.Databases[DatabaseDTW] = DatabaseConfig{}
	cfg.Databases[DatabaseSTE] = DatabaseConfig{}
	assert.ErrorContains(t, cfg.ValidateWeb(), "secret_key")

	cfg.Auth.SecretKey = "k"
	cfg.Auth.DirectoryURL = "https://ad.example/api"
	cfg.Invoices.APIURL = "https://nf.example/api"
	assert.ErrorContains(t, cfg.ValidateWeb(), "at least 32")

	cfg.Auth.SecretKey = strings.Repeat("s", MinSecretKeyLength)
	assert.NoError(t, cfg.ValidateWeb())
}

func TestValidateManager(t *testing.T) {
	cfg := &Config{Manager: ManagerConfig{CommandTimeout: time.Minute}}
	assert.ErrorContains(t, cfg.ValidateManager(), "api_key")

	cfg.Manager.APIKey = "abc"
	assert.NoError(t, cfg.ValidateManager())
}

func TestObservabilityValidate(t *testing.T) {
	c := DefaultObservabilityConfig()
	assert.NoError(t, c.Validate())

	c.Logging.Level = "verbose"
	assert.Error(t, c.Validate())

	c.Logging.Level = ""
	c.Environment = "production"
	assert.Equal(t, "info", c.GetLogLevel())
	c.Environment = "development"
	assert.Equal(t, "debug", c.GetLogLevel())
}

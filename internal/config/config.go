// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types and validates that required
// values are present so they can be reused across the application runtime.
//
// Both surfaces (the reporting dashboard and the process manager)
// share the same Config. Sections that only one surface needs are checked
// by ValidateWeb and ValidateManager instead of struct tags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads `.env` into the process env before koanf reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the COMERCIAL_ prefix. Keys are lowercased, the
	prefix is removed and nested struct fields are addressed with the "."
	delimiter:

		COMERCIAL_SERVER.PORT            -> server.port
		COMERCIAL_DATABASES.STE.HOST     -> databases.ste.host
		COMERCIAL_MANAGER.API_KEY        -> manager.api_key
*/

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "COMERCIAL_"

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary                   `koanf:"primary" validate:"required"`
	Server        ServerConfig              `koanf:"server" validate:"required"`
	Manager       ManagerConfig             `koanf:"manager"`
	Databases     map[string]DatabaseConfig `koanf:"databases" validate:"omitempty,dive"`
	Redis         RedisConfig               `koanf:"redis" validate:"required"`
	Auth          AuthConfig                `koanf:"auth"`
	Invoices      InvoicesConfig            `koanf:"invoices"`
	Integration   IntegrationConfig         `koanf:"integration"`
	Observability *ObservabilityConfig      `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig configures the dashboard HTTP server.
type ServerConfig struct {
	Port               string    `koanf:"port" validate:"required"`
	ReadTimeout        int       `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int       `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int       `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string  `koanf:"cors_allowed_origins"`
	TLS                TLSConfig `koanf:"tls"`
}

// TLSConfig points at a certificate pair. When either file is missing the
// server falls back to plain HTTP.
type TLSConfig struct {
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
}

// ManagerConfig configures the process manager sidecar.
type ManagerConfig struct {
	Port           string        `koanf:"port"`
	APIKey         string        `koanf:"api_key"`
	PM2Path        string        `koanf:"pm2_path"`
	GitPath        string        `koanf:"git_path"`
	NpmPath        string        `koanf:"npm_path"`
	AuditLogPath   string        `koanf:"audit_log_path"`
	CommandTimeout time.Duration `koanf:"command_timeout"`
	UpdateTimeout  time.Duration `koanf:"update_timeout"`
	TLS            TLSConfig     `koanf:"tls"`
}

// DatabaseConfig describes one logical SQL Server database. The map key in
// Config.Databases is the logical name (app, dtw, ste, trim, trimp).
type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	Encrypt         string        `koanf:"encrypt"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime int           `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime int           `koanf:"conn_max_idle_time"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
}

type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// MinSecretKeyLength is the shortest accepted session signing secret.
const MinSecretKeyLength = 32

// AuthConfig configures dashboard login and sessions.
type AuthConfig struct {
	SecretKey        string        `koanf:"secret_key" validate:"omitempty,min=32"`
	DirectoryURL     string        `koanf:"directory_url"`
	InsecureTLS      bool          `koanf:"insecure_tls"`
	RequestTimeout   time.Duration `koanf:"request_timeout"`
	SessionTTL       time.Duration `koanf:"session_ttl"`
	CookieName       string        `koanf:"cookie_name"`
	CookieSecure     bool          `koanf:"cookie_secure"`
	InvoiceUsersFile string        `koanf:"invoice_users_file"`
	LoginRateLimit   float64       `koanf:"login_rate_limit"`
	LoginRateBurst   int           `koanf:"login_rate_burst"`
}

// InvoicesConfig configures the invoice (NF) file API.
type InvoicesConfig struct {
	APIURL       string        `koanf:"api_url"`
	RootDir      string        `koanf:"root_dir"`
	Company      string        `koanf:"company"`
	PollInterval time.Duration `koanf:"poll_interval"`
	PollAttempts int           `koanf:"poll_attempts"`
}

type IntegrationConfig struct {
	ResendAPIKey    string   `koanf:"resend_api_key"`
	AlertFrom       string   `koanf:"alert_from"`
	AlertRecipients []string `koanf:"alert_recipients"`
}

// AlertsEnabled reports whether management action alerts can be emailed.
func (c IntegrationConfig) AlertsEnabled() bool {
	return c.ResendAPIKey != "" && len(c.AlertRecipients) > 0
}

// Logical database names.
const (
	DatabaseAPP   = "app"
	DatabaseDTW   = "dtw"
	DatabaseSTE   = "ste"
	DatabaseTRIM  = "trim"
	DatabaseTRIMP = "trimp"
)

// RequiredDatabases lists the databases the dashboard cannot start without.
var RequiredDatabases = []string{DatabaseDTW, DatabaseSTE}

// LoadConfig reads, unmarshals and validates the configuration.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	// CSV lists arrive as a single string from the environment.
	mainConfig.Server.CORSAllowedOrigins = splitList(mainConfig.Server.CORSAllowedOrigins)
	mainConfig.Integration.AlertRecipients = splitList(mainConfig.Integration.AlertRecipients)

	mainConfig.applyDefaults()

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}
	mainConfig.Observability.ServiceName = "comercial"
	mainConfig.Observability.Environment = mainConfig.Primary.Env
	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30
	}
	if c.Server.WriteTimeout == 0 {
		// Report queries may run up to the database query timeout.
		c.Server.WriteTimeout = 150
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}

	if c.Manager.Port == "" {
		c.Manager.Port = "8006"
	}
	if c.Manager.PM2Path == "" {
		c.Manager.PM2Path = "pm2"
	}
	if c.Manager.GitPath == "" {
		c.Manager.GitPath = "git"
	}
	if c.Manager.NpmPath == "" {
		c.Manager.NpmPath = "npm"
	}
	if c.Manager.AuditLogPath == "" {
		c.Manager.AuditLogPath = "audit_api.log"
	}
	if c.Manager.CommandTimeout == 0 {
		c.Manager.CommandTimeout = 30 * time.Second
	}
	if c.Manager.UpdateTimeout == 0 {
		c.Manager.UpdateTimeout = 10 * time.Minute
	}

	for name, db := range c.Databases {
		if db.Port == 0 {
			db.Port = 1433
		}
		if db.Encrypt == "" {
			db.Encrypt = "disable"
		}
		if db.MaxOpenConns == 0 {
			db.MaxOpenConns = 10
		}
		if db.MaxIdleConns == 0 {
			db.MaxIdleConns = 2
		}
		if db.ConnMaxLifetime == 0 {
			db.ConnMaxLifetime = 3600
		}
		if db.ConnMaxIdleTime == 0 {
			db.ConnMaxIdleTime = 300
		}
		if db.QueryTimeout == 0 {
			db.QueryTimeout = 120 * time.Second
		}
		c.Databases[name] = db
	}

	if c.Auth.RequestTimeout == 0 {
		c.Auth.RequestTimeout = 10 * time.Second
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = 7 * 24 * time.Hour
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "comercial.sid"
	}
	if c.Auth.InvoiceUsersFile == "" {
		c.Auth.InvoiceUsersFile = "usuarios_permitidos.txt"
	}
	if c.Auth.LoginRateLimit == 0 {
		c.Auth.LoginRateLimit = 0.5
	}
	if c.Auth.LoginRateBurst == 0 {
		c.Auth.LoginRateBurst = 5
	}

	if c.Invoices.RootDir == "" {
		c.Invoices.RootDir = "C:/Temp"
	}
	if c.Invoices.Company == "" {
		c.Invoices.Company = "7"
	}
	if c.Invoices.PollInterval == 0 {
		c.Invoices.PollInterval = time.Second
	}
	if c.Invoices.PollAttempts == 0 {
		c.Invoices.PollAttempts = 15
	}

	if c.Integration.AlertFrom == "" {
		c.Integration.AlertFrom = "Comercial <alertas@resend.dev>"
	}
}

// ValidateWeb checks the sections the reporting dashboard depends on.
func (c *Config) ValidateWeb() error {
	for _, name := range RequiredDatabases {
		if _, ok := c.Databases[name]; !ok {
			return fmt.Errorf("database %q is not configured", name)
		}
	}
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("auth.secret_key is required")
	}
	if len(c.Auth.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("auth.secret_key must be at least %d characters", MinSecretKeyLength)
	}
	if c.Auth.DirectoryURL == "" {
		return fmt.Errorf("auth.directory_url is required")
	}
	if c.Invoices.APIURL == "" {
		return fmt.Errorf("invoices.api_url is required")
	}
	return nil
}

// ValidateManager checks the sections the process manager depends on.
func (c *Config) ValidateManager() error {
	if c.Manager.APIKey == "" {
		return fmt.Errorf("manager.api_key is required")
	}
	if c.Manager.CommandTimeout < time.Second {
		return fmt.Errorf("manager.command_timeout must be at least 1s")
	}
	return nil
}

// IsProduction reports whether the app runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Primary.Env == "production"
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

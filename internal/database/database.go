// Package database owns the SQL Server connection pools.
//
// Each logical database (app, dtw, ste, trim, trimp) gets its own bounded
// sqlx pool. Queries return ad-hoc RowSets: the reports are views and stored
// procedures whose shape is decided by the database, not by Go types.
package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/grupotelles/comercial/internal/config"
	loggerConfig "github.com/grupotelles/comercial/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DriverName is the database/sql driver registered by go-mssqldb.
const DriverName = "sqlserver"

// DatabasePingTimeout bounds the startup ping of every pool, in seconds.
const DatabasePingTimeout = 10

// Builder is the squirrel statement builder every repository uses. SQL
// Server takes @p1, @p2... placeholders.
var Builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.AtP)

// ErrUnknownDatabase is returned when a query targets a pool that was not
// configured.
var ErrUnknownDatabase = errors.New("unknown database")

type pool struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

// Database holds one pool per logical database.
type Database struct {
	pools     map[string]*pool
	log       *zerolog.Logger
	slowQuery time.Duration
	nrEnabled bool
}

// New opens a pool for every configured database and pings it.
//
// A failed ping of a required database aborts startup; the others are
// logged and left to reconnect lazily.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	database := &Database{
		pools: make(map[string]*pool, len(cfg.Databases)),
		log:   logger,
	}
	if cfg.Observability != nil {
		database.slowQuery = cfg.Observability.Logging.SlowQueryThreshold
	}
	if loggerService != nil && loggerService.GetApplication() != nil {
		database.nrEnabled = true
	}

	required := make(map[string]bool, len(config.RequiredDatabases))
	for _, name := range config.RequiredDatabases {
		required[name] = true
	}

	for _, name := range sortedKeys(cfg.Databases) {
		dbCfg := cfg.Databases[name]

		db, err := sqlx.Open(DriverName, DSN(dbCfg))
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to open %s pool: %w", name, err)
		}

		db.SetMaxOpenConns(dbCfg.MaxOpenConns)
		db.SetMaxIdleConns(dbCfg.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(dbCfg.ConnMaxLifetime) * time.Second)
		db.SetConnMaxIdleTime(time.Duration(dbCfg.ConnMaxIdleTime) * time.Second)

		database.pools[name] = &pool{db: db, queryTimeout: dbCfg.QueryTimeout}

		ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err != nil {
			if required[name] {
				database.Close()
				return nil, fmt.Errorf("failed to ping database %s: %w", name, err)
			}
			logger.Warn().Err(err).Str("database", name).Msg("database unreachable, continuing")
			continue
		}

		logger.Info().Str("database", name).Str("host", dbCfg.Host).Msg("connected to the database")
	}

	return database, nil
}

// NewWithPools wraps already opened pools. Tests use it with sqlmock.
func NewWithPools(pools map[string]*sqlx.DB, logger *zerolog.Logger) *Database {
	database := &Database{pools: make(map[string]*pool, len(pools)), log: logger}
	for name, db := range pools {
		database.pools[name] = &pool{db: db}
	}
	return database
}

// DSN builds a go-mssqldb URL. A host of the form HOST\INSTANCE addresses a
// named instance.
func DSN(c config.DatabaseConfig) string {
	query := url.Values{}
	query.Add("database", c.Name)
	query.Add("encrypt", c.Encrypt)
	query.Add("TrustServerCertificate", "true")
	query.Add("app name", "comercial")

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		RawQuery: query.Encode(),
	}

	if host, instance, ok := strings.Cut(c.Host, `\`); ok {
		u.Host = host
		u.Path = instance
	} else {
		u.Host = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	}

	return u.String()
}

// Names returns the configured database names, sorted.
func (db *Database) Names() []string {
	return sortedKeys(db.pools)
}

func (db *Database) pool(name string) (*pool, error) {
	p, ok := db.pools[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownDatabase, name)
	}
	return p, nil
}

func (db *Database) withTimeout(ctx context.Context, p *pool) (context.Context, context.CancelFunc) {
	if p.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.queryTimeout)
}

// Query runs a raw statement and scans every row, preserving column order.
func (db *Database) Query(ctx context.Context, name, query string, args ...any) (*RowSet, error) {
	p, err := db.pool(name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := db.withTimeout(ctx, p)
	defer cancel()

	done := db.trace(ctx, name, query)
	rows, err := p.db.QueryxContext(ctx, query, args...)
	if err != nil {
		done(err)
		return nil, errors.Wrapf(err, "query %s", name)
	}
	defer rows.Close()

	rs, err := scanRowSet(rows)
	done(err)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", name)
	}
	return rs, nil
}

// QueryBuilder renders a squirrel builder and runs it through Query.
func (db *Database) QueryBuilder(ctx context.Context, name string, b squirrel.Sqlizer) (*RowSet, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	return db.Query(ctx, name, query, args...)
}

// Exec runs a statement that returns no rows, e.g. a stored procedure that
// refreshes a snapshot table.
func (db *Database) Exec(ctx context.Context, name, query string, args ...any) error {
	p, err := db.pool(name)
	if err != nil {
		return err
	}

	ctx, cancel := db.withTimeout(ctx, p)
	defer cancel()

	done := db.trace(ctx, name, query)
	_, err = p.db.ExecContext(ctx, query, args...)
	done(err)
	if err != nil {
		return errors.Wrapf(err, "exec %s", name)
	}
	return nil
}

// Select scans rows into a slice of structs using `db` tags.
func (db *Database) Select(ctx context.Context, name string, dest any, b squirrel.Sqlizer) error {
	p, err := db.pool(name)
	if err != nil {
		return err
	}

	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "build query")
	}

	ctx, cancel := db.withTimeout(ctx, p)
	defer cancel()

	done := db.trace(ctx, name, query)
	err = p.db.SelectContext(ctx, dest, query, args...)
	done(err)
	if err != nil {
		return errors.Wrapf(err, "select %s", name)
	}
	return nil
}

// trace logs the statement duration and records a New Relic datastore
// segment when a transaction is in ctx. The returned func ends both.
func (db *Database) trace(ctx context.Context, name, query string) func(error) {
	start := time.Now()

	var segment *newrelic.DatastoreSegment
	if db.nrEnabled {
		if txn := newrelic.FromContext(ctx); txn != nil {
			segment = &newrelic.DatastoreSegment{
				StartTime:          txn.StartSegmentNow(),
				Product:            newrelic.DatastoreMSSQL,
				Operation:          operation(query),
				ParameterizedQuery: query,
				DatabaseName:       name,
			}
		}
	}

	return func(err error) {
		if segment != nil {
			segment.End()
		}

		elapsed := time.Since(start)
		var e *zerolog.Event
		switch {
		case err != nil:
			e = db.log.Error().Err(err)
		case db.slowQuery > 0 && elapsed >= db.slowQuery:
			e = db.log.Warn().Bool("slow", true)
		default:
			e = db.log.Debug()
		}
		e.Str("database", name).
			Dur("duration", elapsed).
			Str("sql", compact(query)).
			Msg("sql statement")
	}
}

// Ping checks every pool and returns the failures keyed by database name.
func (db *Database) Ping(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for name, p := range db.pools {
		if err := p.db.PingContext(ctx); err != nil {
			failures[name] = err
		}
	}
	return failures
}

// Close closes every pool.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pools")

	var firstErr error
	for name, p := range db.pools {
		if err := p.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", name, err)
		}
	}
	return firstErr
}

func operation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	op := strings.ToUpper(fields[0])
	if op == "WITH" {
		return "SELECT"
	}
	return op
}

func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

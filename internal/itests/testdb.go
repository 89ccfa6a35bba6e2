package itests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"TabQueryAPI/internal"
	"TabQueryAPI/internal/logger"
)

// ErrDatabaseUnavailable means Postgres could not be reached at all; the
// integration suite is skipped in that case.
var ErrDatabaseUnavailable = errors.New("postgres unavailable")

// scratchDB is a throwaway database next to the one POSTGRES_DSN points at.
// It is recreated on every run so the seed migration starts from a clean
// state, and named per process so parallel package runs do not collide.
type scratchDB struct {
	name     string
	dsn      string // connects to the scratch database
	adminDSN string // connects to "postgres" for CREATE/DROP
	redacted string
}

func newScratchDB(baseDSN string) (*scratchDB, error) {
	u, err := url.Parse(baseDSN)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return nil, errors.New("only URL DSN supported: postgres://...")
	}
	// тесты только против локального сервера
	if host := u.Hostname(); host != "localhost" && host != "127.0.0.1" {
		return nil, fmt.Errorf("refuse non-local host for tests: %s", host)
	}

	s := &scratchDB{name: fmt.Sprintf("tabquery_test_%d", os.Getpid())}
	u.Path = "/" + s.name
	s.dsn = u.String()
	u.Path = "/postgres"
	s.adminDSN = u.String()
	if u.User != nil && u.User.Username() != "" {
		u.User = url.UserPassword(u.User.Username(), "******")
	}
	s.redacted = u.String()
	return s, nil
}

func (s *scratchDB) admin(ctx context.Context, fn func(*sql.DB) error) error {
	conn, err := sql.Open("pgx", s.adminDSN)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v (%s)", ErrDatabaseUnavailable, err, s.redacted)
	}
	return fn(conn)
}

// create drops leftovers of an earlier crashed run and creates the database.
func (s *scratchDB) create() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.admin(ctx, func(conn *sql.DB) error {
		if err := s.dropWith(ctx, conn); err != nil {
			return err
		}
		_, err := conn.ExecContext(ctx, `CREATE DATABASE `+quoteIdent(s.name))
		return err
	})
}

func (s *scratchDB) drop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.admin(ctx, func(conn *sql.DB) error { return s.dropWith(ctx, conn) })
}

func (s *scratchDB) dropWith(ctx context.Context, conn *sql.DB) error {
	// открытые соединения пула мешают DROP DATABASE
	_, _ = conn.ExecContext(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`, s.name)
	_, err := conn.ExecContext(ctx, `DROP DATABASE IF EXISTS `+quoteIdent(s.name))
	return err
}

// migrate applies <repo>/migrations, schema and seed rows.
func (s *scratchDB) migrate() error {
	root, err := internal.FindRepoRoot()
	if err != nil {
		return fmt.Errorf("repo root not found: %w", err)
	}
	// golang-migrate с file:// требует абсолютный путь и прямые слэши
	src := "file://" + filepath.ToSlash(filepath.Join(root, "migrations"))

	m, err := migrate.New(src, s.dsn)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, _, _ := m.Version()
	logger.Info("test_db_migrated", map[string]any{"db": s.name, "version": version})
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// SetupTestDB creates and migrates the scratch database, then hands its DSN
// to connect (usually db.InitPostgres). The returned teardown drops it.
func SetupTestDB(baseDSN string, connect func(string) error) (teardown func() error, err error) {
	if os.Getenv("APP_ENV") == "production" {
		return nil, errors.New("APP_ENV=production, refusing to create test databases")
	}
	s, err := newScratchDB(baseDSN)
	if err != nil {
		return nil, err
	}
	if err := s.create(); err != nil {
		return nil, fmt.Errorf("create DB %q: %w", s.name, err)
	}
	logger.Info("test_db_created", map[string]any{"db": s.name})

	if err := s.migrate(); err != nil {
		_ = s.drop()
		return nil, err
	}
	if connect != nil {
		if err := connect(s.dsn); err != nil {
			_ = s.drop()
			return nil, fmt.Errorf("connect %s: %w", s.redacted, err)
		}
	}
	return s.drop, nil
}

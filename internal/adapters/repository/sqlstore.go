package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/okian/attrition/internal/domain/model"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// timeLayout is fixed width so created_at sorts lexically on every driver.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS registered_models (
	id                 VARCHAR(64)   NOT NULL PRIMARY KEY,
	name               VARCHAR(128)  NOT NULL,
	version            INTEGER       NOT NULL,
	model_type         VARCHAR(64)   NOT NULL,
	artifact_path      VARCHAR(1024) NOT NULL,
	is_active          INTEGER       NOT NULL DEFAULT 0,
	accuracy           DOUBLE PRECISION NOT NULL,
	f1_score           DOUBLE PRECISION NOT NULL,
	auc_score          DOUBLE PRECISION NOT NULL,
	hyperparameters    TEXT,
	feature_importance TEXT,
	schema_version     VARCHAR(64)   NOT NULL,
	created_by         VARCHAR(128)  NOT NULL,
	created_at         VARCHAR(40)   NOT NULL,
	UNIQUE (name, version)
)`

const columns = `id, name, version, model_type, artifact_path, is_active, accuracy, f1_score, auc_score,
	hyperparameters, feature_importance, schema_version, created_by, created_at`

// SQLStore is a Store over database/sql.
type SQLStore struct {
	db              *sql.DB
	driver          string
	now             func() time.Time
	busyTimeout     time.Duration
	connMaxLifetime time.Duration
}

// Open connects to driver/dsn and creates the schema if needed. For SQLite
// the dsn is a file path (or ":memory:").
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}
	s := &SQLStore{
		driver:          strings.ToLower(driver),
		now:             time.Now,
		busyTimeout:     5 * time.Second,
		connMaxLifetime: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	switch s.driver {
	case DriverSQLite:
		s.db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		// One writer; keeps :memory: databases on a single connection too.
		s.db.SetMaxOpenConns(1)
		pragmas := []string{
			fmt.Sprintf("PRAGMA busy_timeout=%d", s.busyTimeout.Milliseconds()),
			"PRAGMA journal_mode=WAL",
		}
		for _, p := range pragmas {
			if _, err := s.db.ExecContext(ctx, p); err != nil {
				_ = s.db.Close()
				return nil, fmt.Errorf("pragma: %w", err)
			}
		}
	case DriverMySQL:
		cfg, perr := mysql.ParseDSN(dsn)
		if perr != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", perr)
		}
		connector, cerr := mysql.NewConnector(cfg)
		if cerr != nil {
			return nil, fmt.Errorf("mysql connector: %w", cerr)
		}
		s.db = sql.OpenDB(connector)
		s.db.SetMaxOpenConns(10)
		s.db.SetMaxIdleConns(5)
		s.db.SetConnMaxLifetime(s.connMaxLifetime)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	if err := s.db.PingContext(ctx); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Driver reports the backing driver name.
func (s *SQLStore) Driver() string { return s.driver }

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Insert(ctx context.Context, m *model.RegisteredModel, activate bool) error {
	hyper, err := json.Marshal(m.Hyperparameters)
	if err != nil {
		return fmt.Errorf("marshal hyperparameters: %w", err)
	}
	importance, err := json.Marshal(m.FeatureImportance)
	if err != nil {
		return fmt.Errorf("marshal feature importance: %w", err)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	m.CreatedAt = m.CreatedAt.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var latest int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM registered_models WHERE name = ?`, m.Name,
	).Scan(&latest)
	if err != nil {
		return fmt.Errorf("next version: %w", err)
	}
	m.Version = latest + 1
	m.IsActive = false

	_, err = tx.ExecContext(ctx,
		`INSERT INTO registered_models (`+columns+`)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Version, m.ModelType, m.ArtifactPath,
		m.Accuracy, m.F1Score, m.AUCScore, string(hyper), string(importance),
		m.SchemaVersion, m.CreatedBy, m.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert model: %w", err)
	}

	if activate {
		if err := activateTx(ctx, tx, m.ID); err != nil {
			return err
		}
		m.IsActive = true
	}

	if err := tx.Commit(); err != nil {
		m.IsActive = false
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLStore) Activate(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM registered_models WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("lookup model: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrModelNotFound, id)
	}
	if err := activateTx(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// activateTx deactivates every other row and activates id.
func activateTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE registered_models SET is_active = 0 WHERE id <> ? AND is_active <> 0`, id); err != nil {
		return fmt.Errorf("deactivate models: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE registered_models SET is_active = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("activate model: %w", err)
	}
	return nil
}

func (s *SQLStore) Active(ctx context.Context) (*model.RegisteredModel, error) {
	return s.one(ctx, `SELECT `+columns+` FROM registered_models
		WHERE is_active <> 0 ORDER BY created_at DESC LIMIT 1`)
}

func (s *SQLStore) Best(ctx context.Context) (*model.RegisteredModel, error) {
	return s.one(ctx, `SELECT `+columns+` FROM registered_models
		ORDER BY accuracy DESC, created_at DESC, version DESC LIMIT 1`)
}

func (s *SQLStore) Get(ctx context.Context, id string) (*model.RegisteredModel, error) {
	m, err := s.one(ctx, `SELECT `+columns+` FROM registered_models WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrModelNotFound, id)
	}
	return m, nil
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]model.RegisteredModel, error) {
	query := `SELECT ` + columns + ` FROM registered_models ORDER BY created_at DESC, version DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	out := make([]model.RegisteredModel, 0)
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registered_models`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count models: %w", err)
	}
	return n, nil
}

// one returns nil, nil when the query matches no row.
func (s *SQLStore) one(ctx context.Context, query string, args ...any) (*model.RegisteredModel, error) {
	m, err := scanModel(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModel(row scanner) (*model.RegisteredModel, error) {
	var (
		m                 model.RegisteredModel
		active            int
		hyper, importance sql.NullString
		created           string
	)
	err := row.Scan(&m.ID, &m.Name, &m.Version, &m.ModelType, &m.ArtifactPath, &active,
		&m.Accuracy, &m.F1Score, &m.AUCScore, &hyper, &importance,
		&m.SchemaVersion, &m.CreatedBy, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan model: %w", err)
	}
	m.IsActive = active != 0
	if hyper.Valid && hyper.String != "" && hyper.String != "null" {
		if err := json.Unmarshal([]byte(hyper.String), &m.Hyperparameters); err != nil {
			return nil, fmt.Errorf("unmarshal hyperparameters of %s: %w", m.ID, err)
		}
	}
	if importance.Valid && importance.String != "" && importance.String != "null" {
		if err := json.Unmarshal([]byte(importance.String), &m.FeatureImportance); err != nil {
			return nil, fmt.Errorf("unmarshal feature importance of %s: %w", m.ID, err)
		}
	}
	if m.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at of %s: %w", m.ID, err)
	}
	return &m, nil
}

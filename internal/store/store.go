// Package store is the authoritative record of users and planted flowers.
// It runs on an embedded sqlite file by default or on postgres for shared
// deployments; both share one schema managed by goose.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/INSANE0777/AIS-GARDEN/internal/api"
	"github.com/INSANE0777/AIS-GARDEN/internal/canvas"
	"github.com/INSANE0777/AIS-GARDEN/internal/config"
	"github.com/INSANE0777/AIS-GARDEN/internal/paths"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
	"github.com/INSANE0777/AIS-GARDEN/internal/store/migrations"
)

const (
	tableUsers   = "users"
	tableFlowers = "planted_flowers"
)

// Store persists users and flowers.
type Store struct {
	db      *sql.DB
	dialect string
	sb      squirrel.StatementBuilderType
	log     zerolog.Logger

	newID func() string
	now   func() time.Time

	// stampMu guards lastStamp, which keeps created_at strictly increasing so
	// that ordering by it is total.
	stampMu   sync.Mutex
	lastStamp int64
}

// Open connects to the configured database, applies migrations and returns
// a ready store. An empty sqlite DSN places garden.db in dataDir.
func Open(ctx context.Context, cfg config.DatabaseConfig, dataDir string, log zerolog.Logger) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			path, perr := paths.DatabasePath(dataDir)
			if perr != nil {
				return nil, fmt.Errorf("store: data dir: %w", perr)
			}
			dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
		db, err = sql.Open("sqlite", dsn)
		if err == nil {
			// One writer; sqlite serializes anyway.
			db.SetMaxOpenConns(1)
		}
	case config.DriverPostgres:
		db, err = sql.Open("pgx", cfg.DSN)
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", cfg.Driver, err)
	}

	s := New(db, cfg.Driver, log)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. dialect is config.DriverSQLite or
// config.DriverPostgres.
func New(db *sql.DB, dialect string, log zerolog.Logger) *Store {
	sb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	if dialect == config.DriverPostgres {
		sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return &Store{
		db:      db,
		dialect: dialect,
		sb:      sb,
		log:     log.With().Str("component", "store").Str("driver", dialect).Logger(),
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	dialect := goose.DialectSQLite3
	if s.dialect == config.DriverPostgres {
		dialect = goose.DialectPostgres
	}
	provider, err := goose.NewProvider(dialect, s.db, migrations.FS)
	if err != nil {
		return fmt.Errorf("store: goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	for _, r := range results {
		s.log.Info().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("applied migration")
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser registers a display name and returns its durable identifier.
// Names are trimmed; an empty name fails with ErrValidation.
func (s *Store) CreateUser(ctx context.Context, name string) (api.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return api.User{}, fmt.Errorf("user name is empty: %w", ErrValidation)
	}

	user := api.User{ID: s.newID(), Name: name}
	query, args, err := s.sb.Insert(tableUsers).
		Columns("id", "name", "created_at").
		Values(user.ID, user.Name, s.stamp()).
		ToSql()
	if err != nil {
		return api.User{}, fmt.Errorf("build insert user: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return api.User{}, mapError(err, "user", user.ID)
	}

	s.log.Debug().Str("user_id", user.ID).Msg("user created")
	return user, nil
}

// CreateFlower validates and persists a flower and returns the stored row
// with its durable identifier and author name.
func (s *Store) CreateFlower(ctx context.Context, req api.CreateFlowerRequest) (api.FlowerRow, error) {
	c, err := validateFlower(req)
	if err != nil {
		return api.FlowerRow{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return api.FlowerRow{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query, args, err := s.sb.Select("name").From(tableUsers).Where(squirrel.Eq{"id": req.AuthorID}).ToSql()
	if err != nil {
		return api.FlowerRow{}, fmt.Errorf("build select user: %w", err)
	}
	var authorName string
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&authorName); err != nil {
		return api.FlowerRow{}, mapError(err, "user", req.AuthorID)
	}

	created := s.stamp()
	row := api.FlowerRow{
		ID:          s.newID(),
		AuthorID:    req.AuthorID,
		AuthorName:  authorName,
		DrawingData: req.DrawingData,
		X:           req.X,
		Y:           req.Y,
		Color:       c.Hex(),
		CreatedAt:   time.Unix(0, created).UTC(),
	}
	query, args, err = s.sb.Insert(tableFlowers).
		Columns("id", "user_id", "drawing_data", "x", "y", "color", "created_at").
		Values(row.ID, row.AuthorID, row.DrawingData, row.X, row.Y, row.Color, created).
		ToSql()
	if err != nil {
		return api.FlowerRow{}, fmt.Errorf("build insert flower: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return api.FlowerRow{}, mapError(err, "flower", row.ID)
	}
	if err := tx.Commit(); err != nil {
		return api.FlowerRow{}, mapError(err, "flower", row.ID)
	}

	s.log.Debug().Str("flower_id", row.ID).Str("user_id", row.AuthorID).Msg("flower planted")
	return row, nil
}

// ListFlowers returns every flower with its author name, ordered by creation
// time. Flowers whose author row is missing carry an empty author name.
func (s *Store) ListFlowers(ctx context.Context, order api.Order) ([]api.FlowerRow, error) {
	dir := "ASC"
	if order == api.OrderDesc {
		dir = "DESC"
	}
	query, args, err := s.sb.
		Select("f.id", "f.user_id", "COALESCE(u.name, '')", "f.drawing_data", "f.x", "f.y", "f.color", "f.created_at").
		From(tableFlowers + " f").
		LeftJoin(tableUsers + " u ON u.id = f.user_id").
		OrderBy("f.created_at " + dir).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list flowers: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list flowers: %w", err)
	}
	defer rows.Close()

	var out []api.FlowerRow
	for rows.Next() {
		var (
			r       api.FlowerRow
			created int64
		)
		if err := rows.Scan(&r.ID, &r.AuthorID, &r.AuthorName, &r.DrawingData, &r.X, &r.Y, &r.Color, &created); err != nil {
			return nil, fmt.Errorf("scan flower: %w", err)
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list flowers: %w", err)
	}
	return out, nil
}

func (s *Store) stamp() int64 {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	n := s.now().UnixNano()
	if n <= s.lastStamp {
		n = s.lastStamp + 1
	}
	s.lastStamp = n
	return n
}

func validateFlower(req api.CreateFlowerRequest) (state.Color, error) {
	if strings.TrimSpace(req.AuthorID) == "" {
		return "", fmt.Errorf("author_id is required: %w", ErrValidation)
	}
	if _, err := canvas.DecodeDataURL(req.DrawingData); err != nil {
		return "", fmt.Errorf("drawing_data: %v: %w", err, ErrValidation)
	}
	if !(state.Position{X: req.X, Y: req.Y}).Valid() {
		return "", fmt.Errorf("position (%g,%g) outside [0,100]: %w", req.X, req.Y, ErrValidation)
	}
	c, err := state.ParseColor(req.Color)
	if err != nil {
		return "", fmt.Errorf("color: %v: %w", err, ErrValidation)
	}
	return c, nil
}

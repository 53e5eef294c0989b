package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/sink"
)

// Pool is the subset of pgxpool.Pool used by the store. pgxmock pools satisfy it too.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// Store implements sink.Sink on PostgreSQL.
type Store struct {
	pool Pool
}

var _ sink.Sink = (*Store)(nil)

// Connect opens a pool, verifies it and applies migrations.
func Connect(ctx context.Context, connString string, poolCfg PoolConfig) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	if poolCfg.MaxConns > 0 {
		cfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		cfg.MinConns = poolCfg.MinConns
	}
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	if err := Migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// NewStore wraps an existing pool.
func NewStore(pool Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const upsertSiteSQL = `INSERT INTO sites (id, name, url, ecosystem, priority, current_status, ai_readable)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	url = EXCLUDED.url,
	ecosystem = EXCLUDED.ecosystem,
	priority = EXCLUDED.priority,
	updated_at = now()`

// UpsertSites writes site identities. Cached status columns are only
// set on first insert.
func (s *Store) UpsertSites(ctx context.Context, sites []domain.SiteRecord) error {
	for _, rec := range sites {
		_, err := s.pool.Exec(ctx, upsertSiteSQL,
			rec.ID, rec.Name, rec.URL, string(rec.Ecosystem), string(rec.Priority),
			string(rec.CurrentStatus), rec.AIReadable)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert site %s", rec.URL)
		}
	}
	return nil
}

const selectSiteColumns = `SELECT id, name, url, ecosystem, priority, current_status, last_check, ai_readable FROM sites`

func (s *Store) FindSite(ctx context.Context, url string) (domain.SiteRecord, error) {
	row := s.pool.QueryRow(ctx, selectSiteColumns+` WHERE url = $1`, url)
	rec, err := scanSite(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SiteRecord{}, sink.ErrSiteNotFound
	}
	if err != nil {
		return domain.SiteRecord{}, eris.Wrapf(err, "postgres: find site %s", url)
	}
	return rec, nil
}

func (s *Store) ListSites(ctx context.Context) ([]domain.SiteRecord, error) {
	rows, err := s.pool.Query(ctx, selectSiteColumns+` ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sites")
	}
	defer rows.Close()

	out := []domain.SiteRecord{}
	for rows.Next() {
		rec, err := scanSite(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan site")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate sites")
}

func scanSite(row pgx.Row) (domain.SiteRecord, error) {
	var (
		rec                         domain.SiteRecord
		ecosystem, priority, status string
	)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.URL, &ecosystem, &priority, &status, &rec.LastCheck, &rec.AIReadable); err != nil {
		return domain.SiteRecord{}, err
	}
	rec.Ecosystem = domain.Ecosystem(ecosystem)
	rec.Priority = domain.Priority(priority)
	rec.CurrentStatus = domain.Status(status)
	return rec, nil
}

func (s *Store) UpdateSiteStatus(ctx context.Context, siteID string, u domain.StatusUpdate) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if u.AIReadable != nil {
		tag, err = s.pool.Exec(ctx,
			`UPDATE sites SET current_status = $1, last_check = $2, ai_readable = $3, updated_at = now() WHERE id = $4`,
			string(u.Status), u.LastCheck, *u.AIReadable, siteID)
	} else {
		tag, err = s.pool.Exec(ctx,
			`UPDATE sites SET current_status = $1, last_check = $2, updated_at = now() WHERE id = $3`,
			string(u.Status), u.LastCheck, siteID)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: update site %s", siteID)
	}
	if tag.RowsAffected() == 0 {
		return sink.ErrSiteNotFound
	}
	return nil
}

func (s *Store) InsertCheck(ctx context.Context, c domain.CheckRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO checks (id, site_id, timestamp, status, content_found, response_time, error) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.SiteID, c.Timestamp, string(c.Status), c.ContentFound, c.ResponseTime, c.Error)
	return eris.Wrap(err, "postgres: insert check")
}

func (s *Store) RecentChecks(ctx context.Context, siteID string, limit int) ([]domain.CheckRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, site_id, timestamp, status, content_found, response_time, error FROM checks WHERE site_id = $1 ORDER BY timestamp DESC LIMIT $2`,
		siteID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent checks")
	}
	defer rows.Close()

	out := []domain.CheckRecord{}
	for rows.Next() {
		var (
			c      domain.CheckRecord
			status string
		)
		if err := rows.Scan(&c.ID, &c.SiteID, &c.Timestamp, &status, &c.ContentFound, &c.ResponseTime, &c.Error); err != nil {
			return nil, eris.Wrap(err, "postgres: scan check")
		}
		c.Status = domain.Status(status)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate checks")
}

func (s *Store) PruneChecks(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM checks WHERE timestamp < $1`, olderThan)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune checks")
	}
	return tag.RowsAffected(), nil
}

func (s *Store) InsertBuild(ctx context.Context, b domain.BuildRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO builds (id, site_id, timestamp, status, build_time, deploy_time) VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.SiteID, b.Timestamp, string(b.Status), b.BuildTime, b.DeployTime)
	return eris.Wrap(err, "postgres: insert build")
}

// Package postgres backs the cache store with a single Postgres table, for
// deployments that already run a database but no Redis. Expiry is enforced
// on read and reclaimed opportunistically, since Postgres has no native
// TTLs.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rameerez/allgood/cache"
)

type Config struct {
	URL               string        `mapstructure:"url"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	QueryTimeout      time.Duration `mapstructure:"query_timeout"`
}

// Store keeps cache entries in the allgood_cache table (see migrations/).
type Store struct {
	Pool         *pgxpool.Pool
	QueryTimeout time.Duration
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		pcfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(hctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &Store{Pool: pool, QueryTimeout: cfg.QueryTimeout}, nil
}

func (s *Store) Close() { s.Pool.Close() }

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.QueryTimeout)
}

const (
	qRead = `
SELECT value FROM allgood_cache
WHERE key = $1 AND expires_at > now();
`
	qWrite = `
INSERT INTO allgood_cache (key, value, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at;
`
	qDelete = `
DELETE FROM allgood_cache WHERE key = $1;
`
	qDeleteLike = `
DELETE FROM allgood_cache WHERE key LIKE $1;
`
	qPurgeExpired = `
DELETE FROM allgood_cache WHERE expires_at <= now();
`
)

func (s *Store) Read(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var value []byte
	err := s.Pool.QueryRow(ctx, qRead, key).Scan(&value)
	if err != nil {
		// misses and transport errors read the same to the engine
		return nil, false
	}
	return value, true
}

func (s *Store) Write(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.Pool.Exec(ctx, qWrite, key, value, time.Now().UTC().Add(ttl)); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.Pool.Exec(ctx, qDelete, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// DeleteMatched translates the glob to a LIKE pattern and piggybacks a purge
// of expired rows, which is the only reclamation Postgres gets.
func (s *Store) DeleteMatched(ctx context.Context, pattern string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.Pool.Exec(ctx, qDeleteLike, globToLike(pattern)); err != nil {
		return fmt.Errorf("delete matched cache entries: %w", err)
	}
	if _, err := s.Pool.Exec(ctx, qPurgeExpired); err != nil {
		return fmt.Errorf("purge expired cache entries: %w", err)
	}
	return nil
}

// globToLike maps shell globs to SQL LIKE: * to %, ? to _, escaping the
// characters LIKE treats specially.
func globToLike(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ cache.Store = (*Store)(nil)

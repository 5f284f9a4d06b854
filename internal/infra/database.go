package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
)

// Database bundles the ORM handle with the pgx pool it runs on, when PostgreSQL is used.
type Database struct {
	ORM  *gorm.DB
	Pool *pgxpool.Pool
}

// OpenDatabase connects to PostgreSQL (postgres:// URLs) or an embedded SQLite file.
func OpenDatabase(ctx context.Context, url, appName string) (*Database, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	if !IsPostgresURL(url) {
		orm, err := NewSQLiteORM(ctx, url)
		if err != nil {
			return nil, err
		}
		return &Database{ORM: orm}, nil
	}

	pool, err := NewPostgresPool(ctx, url, appName)
	if err != nil {
		return nil, err
	}
	orm, err := NewPostgresORM(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Database{ORM: orm, Pool: pool}, nil
}

// Ping verifies the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	if d.Pool != nil {
		return d.Pool.Ping(ctx)
	}
	return PingORM(ctx, d.ORM)
}

// Close releases the ORM handle and the underlying pool.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	err := CloseORM(d.ORM)
	if d.Pool != nil {
		d.Pool.Close()
	}
	return err
}

// NewPostgresPool configures and returns a PostgreSQL connection pool.
func NewPostgresPool(ctx context.Context, url, appName string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if appName != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = appName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

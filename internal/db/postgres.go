package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

type PostgresDB struct {
	Pool *pgxpool.Pool
	SQLX *sqlx.DB
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Secondary sqlx handle over the pgx stdlib driver for
	// struct-scanning repositories.
	sqlxDB, err := sqlx.ConnectContext(ctx, "pgx", databaseURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to open sqlx connection: %w", err)
	}
	sqlxDB.SetMaxOpenConns(10)
	sqlxDB.SetConnMaxLifetime(time.Hour)

	log.Info("[DB] ✅ Connected to PostgreSQL")
	return &PostgresDB{Pool: pool, SQLX: sqlxDB}, nil
}

func (db *PostgresDB) Close() {
	if db.SQLX != nil {
		db.SQLX.Close()
	}
	if db.Pool != nil {
		db.Pool.Close()
		log.Info("[DB] PostgreSQL connection closed")
	}
}

package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schema string

// Service owns the order console's connection pool.
type Service interface {
	// Health pings the store and reports "status" ("up" or "down") with pool usage.
	Health(ctx context.Context) map[string]string
	DB() *sql.DB
	Close() error
}

type service struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// NewPostgres opens a pgx-backed pool for dsn and verifies it with a ping.
func NewPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func New(db *sql.DB, log logrus.FieldLogger) Service {
	return &service{db: db, log: log}
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *service) DB() *sql.DB {
	return s.db
}

const healthTimeout = time.Second

func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.log.WithError(err).Error("database health check failed")
		return map[string]string{"status": "down", "error": err.Error()}
	}

	pool := s.db.Stats()
	return map[string]string{
		"status":           "up",
		"open_connections": strconv.Itoa(pool.OpenConnections),
		"in_use":           strconv.Itoa(pool.InUse),
		"idle":             strconv.Itoa(pool.Idle),
		"wait_count":       strconv.FormatInt(pool.WaitCount, 10),
	}
}

func (s *service) Close() error {
	s.log.Info("disconnected from database")
	return s.db.Close()
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"
	"webstore-orders/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Service owns the order store connection pool.
type Service interface {
	// DB exposes the shared pool to repositories and services.
	DB() *sql.DB
	// Health reports "status" (StatusUp or StatusDown) and, when up, the
	// pool state under "pool" along with its counters.
	Health(ctx context.Context) map[string]string
	Close() error
}

type service struct {
	db   *sql.DB
	name string
	log  *zap.Logger
}

var (
	dbInstance *service
	dbErr      error
	once       sync.Once
)

// New returns the process wide pool, opening it on first use.
// Later calls return the same instance regardless of cfg.
func New(cfg config.DatabaseConfig, log *zap.Logger) (Service, error) {
	once.Do(func() {
		db, err := Open(cfg)
		if err != nil {
			dbErr = err
			return
		}
		dbInstance = &service{db: db, name: cfg.Database, log: log}
	})
	if dbErr != nil {
		return nil, dbErr
	}
	return dbInstance, nil
}

// Open creates a fresh pool without touching the shared instance.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Wrap exposes an existing pool as a Service.
func Wrap(db *sql.DB, log *zap.Logger) Service {
	return &service{db: db, log: log}
}

func (s *service) DB() *sql.DB {
	return s.db
}

const (
	StatusUp   = "up"
	StatusDown = "down"

	// pool states reported under the "pool" key
	PoolOK            = "ok"
	PoolSaturated     = "saturated"
	PoolContended     = "contended"
	PoolIdleChurn     = "idle_churn"
	PoolLifetimeChurn = "lifetime_churn"
)

// Health pings the order store and reports the connection pool state.
func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.log.Error("order store ping failed", zap.Error(err))
		return map[string]string{
			"status": StatusDown,
			"error":  fmt.Sprintf("order store unreachable: %v", err),
		}
	}

	st := s.db.Stats()
	return map[string]string{
		"status":   StatusUp,
		"pool":     poolState(st),
		"max_open": strconv.Itoa(st.MaxOpenConnections),
		"open":     strconv.Itoa(st.OpenConnections),
		"in_use":   strconv.Itoa(st.InUse),
		"idle":     strconv.Itoa(st.Idle),
		"waits":    strconv.FormatInt(st.WaitCount, 10),
		"waited":   st.WaitDuration.String(),
	}
}

// poolState flags the first pressure sign found in st, or PoolOK.
func poolState(st sql.DBStats) string {
	switch {
	case st.MaxOpenConnections > 0 && st.InUse >= st.MaxOpenConnections*4/5:
		return PoolSaturated
	case st.WaitCount > 1000:
		return PoolContended
	case st.MaxIdleClosed > int64(st.OpenConnections)/2:
		return PoolIdleChurn
	case st.MaxLifetimeClosed > int64(st.OpenConnections)/2:
		return PoolLifetimeChurn
	}
	return PoolOK
}

// Close closes the database connection.
func (s *service) Close() error {
	s.log.Info("disconnected from database", zap.String("database", s.name))
	return s.db.Close()
}

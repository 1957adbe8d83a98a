package worker

import (
	"context"
	"time"
	"webstore-orders/internal/database"

	"go.uber.org/zap"
)

// PoolMonitor periodically reports the health of the shared connection pool.
type PoolMonitor struct {
	db       database.Service
	log      *zap.Logger
	interval time.Duration
}

func NewPoolMonitor(db database.Service, log *zap.Logger, interval time.Duration) *PoolMonitor {
	return &PoolMonitor{db: db, log: log, interval: interval}
}

func (pm *PoolMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(pm.interval)
	defer ticker.Stop()

	pm.log.Info("pool monitor started", zap.Duration("interval", pm.interval))

	for {
		select {
		case <-ctx.Done():
			pm.log.Info("pool monitor stopped")
			return
		case <-ticker.C:
			pm.process(ctx)
		}
	}
}

func (pm *PoolMonitor) process(ctx context.Context) {
	stats := pm.db.Health(ctx)

	fields := make([]zap.Field, 0, len(stats))
	for k, v := range stats {
		fields = append(fields, zap.String(k, v))
	}

	switch {
	case stats["status"] != database.StatusUp:
		pm.log.Error("order store unreachable", fields...)
	case stats["pool"] != database.PoolOK:
		pm.log.Warn("order store pool under pressure", fields...)
	default:
		pm.log.Debug("order store pool healthy", fields...)
	}
}

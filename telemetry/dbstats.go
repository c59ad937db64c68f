package telemetry

import (
	"context"
	"database/sql"
	"time"

	"github.com/cogzy/cogzy-api/safego"
	"go.uber.org/zap"
)

// PoolStatsFunc returns the current stats of every open pool, keyed by a log-safe label
type PoolStatsFunc func() map[string]sql.DBStats

// RecordPoolStats copies one snapshot of pool stats into the gauges
func (m *Metrics) RecordPoolStats(stats map[string]sql.DBStats) {
	if m == nil {
		return
	}
	for pool, s := range stats {
		m.dbConnectionsOpen.WithLabelValues(pool).Set(float64(s.OpenConnections))
		m.dbConnectionsInUse.WithLabelValues(pool).Set(float64(s.InUse))
		m.dbConnectionsIdle.WithLabelValues(pool).Set(float64(s.Idle))
		m.dbConnectionsWaiting.WithLabelValues(pool).Set(float64(s.WaitCount))
	}
}

// RunDBStatsCollector polls source every interval until ctx is cancelled.
// A panic while polling is logged and the loop keeps running.
func (m *Metrics) RunDBStatsCollector(ctx context.Context, source PoolStatsFunc, interval time.Duration, logger *zap.Logger) {
	if m == nil || source == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			safego.Run(logger, func() {
				m.RecordPoolStats(source())
			})
		}
	}
}

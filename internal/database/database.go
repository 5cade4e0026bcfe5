// Package database opens the relational store and provides the placeholder
// portability layer shared by every repository.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config holds connection and pool settings.
type Config struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN renders the driver-specific connection string.
func (c Config) DSN() string {
	if c.Driver == DriverMySQL {
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Name)
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode)
}

// Open connects to the configured database, applies pool limits, verifies
// the connection and starts the pool stats exporter.
func Open(cfg Config) (*sql.DB, error) {
	driver := normalizeDriver(cfg.Driver)
	SetDriver(driver)

	db, err := sql.Open(driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
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
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	go collectPoolStats(db)

	return db, nil
}

type poolMetrics struct {
	active  prometheus.Gauge
	idle    prometheus.Gauge
	waits   prometheus.Counter
	maxIdle prometheus.Counter
	maxLife prometheus.Counter
}

var (
	poolMetricsOnce sync.Once
	poolMetricsInst *poolMetrics
)

func globalPoolMetrics() *poolMetrics {
	poolMetricsOnce.Do(func() {
		poolMetricsInst = &poolMetrics{
			active: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "deskflow",
				Name:      "db_pool_active_connections",
				Help:      "Number of connections currently in use",
			}),
			idle: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "deskflow",
				Name:      "db_pool_idle_connections",
				Help:      "Number of idle connections",
			}),
			waits: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "deskflow",
				Name:      "db_pool_wait_count_total",
				Help:      "Total number of waits for a connection",
			}),
			maxIdle: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "deskflow",
				Name:      "db_pool_max_idle_closed_total",
				Help:      "Connections closed due to max idle",
			}),
			maxLife: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "deskflow",
				Name:      "db_pool_max_lifetime_closed_total",
				Help:      "Connections closed due to max lifetime",
			}),
		}
	})
	return poolMetricsInst
}

// collectPoolStats exports sql.DBStats every 10 seconds for the lifetime of
// the connection. Counter deltas are derived from the cumulative stats.
func collectPoolStats(db *sql.DB) {
	m := globalPoolMetrics()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	var lastWaits, lastMaxIdle, lastMaxLife int64
	for range ticker.C {
		stats := db.Stats()
		m.active.Set(float64(stats.InUse))
		m.idle.Set(float64(stats.Idle))
		if d := stats.WaitCount - lastWaits; d > 0 {
			m.waits.Add(float64(d))
		}
		if d := stats.MaxIdleClosed - lastMaxIdle; d > 0 {
			m.maxIdle.Add(float64(d))
		}
		if d := stats.MaxLifetimeClosed - lastMaxLife; d > 0 {
			m.maxLife.Add(float64(d))
		}
		lastWaits, lastMaxIdle, lastMaxLife = stats.WaitCount, stats.MaxIdleClosed, stats.MaxLifetimeClosed

		if stats.OpenConnections == 0 && stats.InUse == 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err := db.PingContext(ctx)
			cancel()
			if err != nil {
				log.Printf("database health check failed: %v", err)
			}
		}
	}
}

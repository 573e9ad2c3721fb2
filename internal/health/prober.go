// Package health runs periodic and on-demand connectivity probes against the backing stores.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/pkg/clock"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"
)

const probeTimeout = 5 * time.Second

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusUnknown  Status = "unknown"
)

type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

type CheckResult struct {
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latency_ns"`
	CheckedAt time.Time     `json:"checked_at"`
}

type Report struct {
	Status    Status                 `json:"status"`
	CheckedAt time.Time              `json:"checked_at"`
	Checks    map[string]CheckResult `json:"checks"`
}

type Prober struct {
	probes   []Probe
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	trigger chan struct{}

	mu   sync.RWMutex
	last Report
}

func NewProber(interval time.Duration, clk clock.Clock, logger *slog.Logger, probes ...Probe) *Prober {
	return &Prober{
		probes:   probes,
		interval: interval,
		clock:    clk,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
		last:     Report{Status: StatusUnknown, Checks: map[string]CheckResult{}},
	}
}

// Run probes immediately, then on every tick and every Trigger, until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.ProbeNow(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("health prober stopped")
			return
		case <-ticker.C:
			p.ProbeNow(ctx)
		case <-p.trigger:
			p.ProbeNow(ctx)
		}
	}
}

// Trigger asks the running prober for an extra cycle without waiting for it.
func (p *Prober) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Prober) ProbeNow(ctx context.Context) Report {
	report := Report{
		Status:    StatusOK,
		CheckedAt: p.clock.Now(),
		Checks:    make(map[string]CheckResult, len(p.probes)),
	}

	for _, probe := range p.probes {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		start := time.Now()
		err := probe.Check(pctx)
		cancel()

		res := CheckResult{
			Status:    StatusOK,
			Latency:   time.Since(start),
			CheckedAt: p.clock.Now(),
		}
		if err != nil {
			res.Status = StatusDegraded
			res.Error = err.Error()
			report.Status = StatusDegraded
			p.logger.Warn("health probe failed", "probe", probe.Name, "error", err)
		}
		report.Checks[probe.Name] = res
	}

	p.mu.Lock()
	p.last = report
	p.mu.Unlock()

	return report
}

func (p *Prober) Last() Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// DatabaseProbe runs a count on categories; on failure it pings the pool to
// re-establish connections and retries once.
func DatabaseProbe(db *gorm.DB) Probe {
	count := func(ctx context.Context) error {
		var n int64
		return db.WithContext(ctx).Model(&model.Category{}).Count(&n).Error
	}

	return Probe{
		Name: "database",
		Check: func(ctx context.Context) error {
			err := count(ctx)
			if err == nil {
				return nil
			}

			sqlDB, derr := db.DB()
			if derr != nil {
				return fmt.Errorf("get sql db: %w", derr)
			}
			if perr := sqlDB.PingContext(ctx); perr != nil {
				return fmt.Errorf("ping database: %w", perr)
			}
			if err := count(ctx); err != nil {
				return fmt.Errorf("count categories: %w", err)
			}
			return nil
		},
	}
}

func MongoProbe(client *mongo.Client) Probe {
	return Probe{
		Name: "mongo",
		Check: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	}
}

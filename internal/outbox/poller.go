// Package outbox drains the pending-notification table on a schedule.
// Notifications are written transactionally with the change they announce;
// this poller is the only component that delivers them, giving at-least-once
// semantics with the idempotency key available to downstream consumers.
package outbox

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/deskflow-io/deskflow/internal/config"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/repository"
)

// Sender delivers one notification. Implemented by notifications.Notifier.
type Sender interface {
	Notify(ctx context.Context, n *models.OutboxNotification) error
}

// Poller fetches pending notifications and hands them to the sender. A run
// in progress suppresses the next tick instead of stacking.
type Poller struct {
	outbox      repository.OutboxRepository
	sender      Sender
	batchSize   int
	maxAttempts int
	interval    time.Duration

	cron    *cron.Cron
	running atomic.Bool
}

// NewPoller creates a poller from the outbox configuration.
func NewPoller(outbox repository.OutboxRepository, sender Sender, cfg config.OutboxConfig) *Poller {
	return &Poller{
		outbox:      outbox,
		sender:      sender,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		interval:    cfg.Interval,
	}
}

// Start schedules the poll loop. Stop with Stop.
func (p *Poller) Start() error {
	if p.cron != nil {
		return fmt.Errorf("poller already started")
	}
	p.cron = cron.New()
	spec := fmt.Sprintf("@every %s", p.interval)
	if _, err := p.cron.AddFunc(spec, func() {
		if err := p.RunOnce(context.Background()); err != nil {
			log.Printf("outbox poll failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule outbox poller: %w", err)
	}
	p.cron.Start()
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (p *Poller) Stop() {
	if p.cron == nil {
		return
	}
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// RunOnce drains one batch. Returns nil when another run holds the guard.
func (p *Poller) RunOnce(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		globalPollerMetrics().skipped.Inc()
		return nil
	}
	defer p.running.Store(false)

	pending, err := p.outbox.FetchPending(ctx, p.batchSize, p.maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to fetch pending notifications: %w", err)
	}

	done := globalPollerMetrics().recordRun(len(pending))
	defer done()

	for i := range pending {
		n := &pending[i]
		if err := p.sender.Notify(ctx, n); err != nil {
			log.Printf("notification %d (%s) delivery failed: %v", n.ID, n.Topic, err)
			globalPollerMetrics().recordDelivery(false)
			if err := p.outbox.MarkFailed(ctx, n.ID); err != nil {
				return err
			}
			continue
		}
		globalPollerMetrics().recordDelivery(true)
		if err := p.outbox.MarkProcessed(ctx, n.ID); err != nil {
			return err
		}
	}
	return nil
}

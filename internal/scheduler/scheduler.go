// Package scheduler wraps robfig/cron to run housekeeping jobs: history pruning and the daily digest.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Manjussha/allocheck/internal/history"
	"github.com/Manjussha/allocheck/internal/report"
	"github.com/Manjussha/allocheck/internal/webhook"
)

// HistoryStore is the subset of history.Store the jobs need.
type HistoryStore interface {
	Stats(ctx context.Context, since time.Time) (*history.Stats, error)
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier sends an event to Telegram and webhooks.
type Notifier interface {
	Send(event, text string, payload interface{})
}

// Settings reads runtime toggles.
type Settings interface {
	GetSetting(key, fallback string) string
}

// Feed receives each digest for live viewers.
type Feed interface {
	PublishDigest(st *history.Stats)
}

// Engine manages the cron scheduler.
type Engine struct {
	cron     *cron.Cron
	store    HistoryStore
	notifier Notifier
	settings Settings
	feed     Feed

	defaultRetentionDays int
	now                  func() time.Time
}

// New creates a new cron-based Engine.
func New(store HistoryStore, notifier Notifier, settings Settings, retentionDays int) *Engine {
	return &Engine{
		cron:                 cron.New(cron.WithSeconds()),
		store:                store,
		notifier:             notifier,
		settings:             settings,
		defaultRetentionDays: retentionDays,
		now:                  time.Now,
	}
}

// SetFeed attaches a live feed for digests. Call before Start.
func (e *Engine) SetFeed(f Feed) {
	e.feed = f
}

// Start registers the jobs and begins the cron engine. It stops when ctx is done.
func (e *Engine) Start(ctx context.Context, pruneSpec, digestSpec string) error {
	if _, err := e.cron.AddFunc(pruneSpec, func() { e.runPrune(ctx) }); err != nil {
		return fmt.Errorf("scheduler.Start: prune spec %q: %w", pruneSpec, err)
	}
	if _, err := e.cron.AddFunc(digestSpec, func() { e.runDigest(ctx) }); err != nil {
		return fmt.Errorf("scheduler.Start: digest spec %q: %w", digestSpec, err)
	}
	e.cron.Start()
	go func() {
		<-ctx.Done()
		e.cron.Stop()
	}()
	return nil
}

// NextRuns returns the next fire time of each registered job.
func (e *Engine) NextRuns() []time.Time {
	var out []time.Time
	for _, entry := range e.cron.Entries() {
		out = append(out, entry.Next)
	}
	return out
}

// Prune deletes history older than the retention window and returns the row count.
func (e *Engine) Prune(ctx context.Context) (int64, error) {
	days := e.defaultRetentionDays
	if e.settings != nil {
		if n, err := strconv.Atoi(e.settings.GetSetting("history_retention_days", "")); err == nil {
			days = n
		}
	}
	if days <= 0 {
		return 0, nil
	}
	cutoff := e.now().AddDate(0, 0, -days)
	n, err := e.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("scheduler.Prune: %w", err)
	}
	return n, nil
}

// Digest sends the last 24h of stats. It is a no-op when digest_enabled is off.
func (e *Engine) Digest(ctx context.Context) error {
	if e.settings != nil && e.settings.GetSetting("digest_enabled", "1") != "1" {
		return nil
	}
	st, err := e.store.Stats(ctx, e.now().Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("scheduler.Digest: %w", err)
	}
	e.notifier.Send(webhook.EventDigest, report.Stats(st), st)
	if e.feed != nil {
		e.feed.PublishDigest(st)
	}
	return nil
}

func (e *Engine) runPrune(ctx context.Context) {
	n, err := e.Prune(ctx)
	if err != nil {
		log.Printf("scheduler: %v", err)
		return
	}
	log.Printf("scheduler: pruned %d checks", n)
}

func (e *Engine) runDigest(ctx context.Context) {
	if err := e.Digest(ctx); err != nil {
		log.Printf("scheduler: %v", err)
	}
}

// Package notify routes check events to Telegram and webhooks.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/Manjussha/allocheck/internal/allocation"
	"github.com/Manjussha/allocheck/internal/estimator"
	"github.com/Manjussha/allocheck/internal/report"
	"github.com/Manjussha/allocheck/internal/webhook"
)

// Sender can send a plain text message.
type Sender interface {
	Send(msg string) error
}

// WebhookFirer can fire a webhook event.
type WebhookFirer interface {
	Fire(event string, payload interface{})
}

// Settings reads runtime toggles.
type Settings interface {
	GetSetting(key, fallback string) string
}

// Dispatcher routes notification events to Telegram and webhooks.
type Dispatcher struct {
	telegram Sender
	webhook  WebhookFirer
	settings Settings
}

// New creates a Dispatcher. telegram, webhook and settings may be nil.
func New(telegram Sender, webhook WebhookFirer, settings Settings) *Dispatcher {
	return &Dispatcher{telegram: telegram, webhook: webhook, settings: settings}
}

// Send dispatches an event: text goes to Telegram, payload to webhooks.
func (d *Dispatcher) Send(event, text string, payload interface{}) {
	d.SendTelegram(text)
	if d.webhook != nil {
		d.webhook.Fire(event, payload)
	}
}

// SendTelegram sends a message only via Telegram.
func (d *Dispatcher) SendTelegram(msg string) {
	if d.telegram == nil {
		return
	}
	if err := d.telegram.Send(msg); err != nil {
		log.Printf("notify: telegram: %v", err)
	}
}

// Publish implements estimator.Sink. Every check fires check.completed;
// Elite checks also alert the admin chat when elite_alerts is on.
func (d *Dispatcher) Publish(_ context.Context, est *estimator.Estimate) {
	if d.webhook != nil {
		d.webhook.Fire(webhook.EventCheckCompleted, est)
	}
	if est.Allocation.Tier != allocation.TierElite || !d.enabled("elite_alerts") {
		return
	}
	if d.webhook != nil {
		d.webhook.Fire(webhook.EventCheckElite, est)
	}
	d.SendTelegram(fmt.Sprintf("🏆 *Elite check* `%s`\n\n%s",
		report.ShortAddress(est.Address), report.Estimate(est, true)))
}

func (d *Dispatcher) enabled(key string) bool {
	if d.settings == nil {
		return true
	}
	return d.settings.GetSetting(key, "1") == "1"
}

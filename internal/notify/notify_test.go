package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Manjussha/allocheck/internal/allocation"
	"github.com/Manjussha/allocheck/internal/estimator"
	"github.com/Manjussha/allocheck/internal/webhook"
)

type fakeSender struct {
	msgs []string
	err  error
}

func (f *fakeSender) Send(msg string) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

type fakeFirer struct{ events []string }

func (f *fakeFirer) Fire(event string, _ interface{}) { f.events = append(f.events, event) }

type fakeSettings map[string]string

func (f fakeSettings) GetSetting(key, fallback string) string {
	if v, ok := f[key]; ok {
		return v
	}
	return fallback
}

func est(tier allocation.Tier) *estimator.Estimate {
	return &estimator.Estimate{
		Address:    "0x11111111111111111111111111111111111111ff",
		Allocation: allocation.Result{EstimatedTokens: 80000, Tier: tier, TierLabel: tier.Label()},
		Disclaimer: estimator.Disclaimer,
	}
}

func TestPublish_RegularCheck(t *testing.T) {
	tg, wh := &fakeSender{}, &fakeFirer{}
	d := New(tg, wh, nil)

	d.Publish(context.Background(), est(allocation.TierMid))
	assert.Equal(t, []string{webhook.EventCheckCompleted}, wh.events)
	assert.Empty(t, tg.msgs)
}

func TestPublish_EliteAlerts(t *testing.T) {
	tg, wh := &fakeSender{}, &fakeFirer{}
	d := New(tg, wh, fakeSettings{"elite_alerts": "1"})

	d.Publish(context.Background(), est(allocation.TierElite))
	assert.Equal(t, []string{webhook.EventCheckCompleted, webhook.EventCheckElite}, wh.events)
	assert.Len(t, tg.msgs, 1)
	assert.Contains(t, tg.msgs[0], "Elite check")
}

func TestPublish_EliteAlertsDisabled(t *testing.T) {
	tg, wh := &fakeSender{}, &fakeFirer{}
	d := New(tg, wh, fakeSettings{"elite_alerts": "0"})

	d.Publish(context.Background(), est(allocation.TierElite))
	assert.Equal(t, []string{webhook.EventCheckCompleted}, wh.events)
	assert.Empty(t, tg.msgs)
}

func TestNilAdapters(t *testing.T) {
	d := New(nil, nil, nil)
	d.Send("x", "text", 1)
	d.Publish(context.Background(), est(allocation.TierElite))
}

func TestSendTelegram_ErrorIsLogged(t *testing.T) {
	tg := &fakeSender{err: errors.New("boom")}
	d := New(tg, nil, nil)
	d.SendTelegram("hi")
	assert.Equal(t, []string{"hi"}, tg.msgs)
}

func TestSend(t *testing.T) {
	tg, wh := &fakeSender{}, &fakeFirer{}
	d := New(tg, wh, nil)
	d.Send(webhook.EventDigest, "digest text", map[string]int{"total": 3})
	assert.Equal(t, []string{"digest text"}, tg.msgs)
	assert.Equal(t, []string{webhook.EventDigest}, wh.events)
}

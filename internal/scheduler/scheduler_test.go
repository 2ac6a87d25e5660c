package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manjussha/allocheck/internal/db"
	"github.com/Manjussha/allocheck/internal/history"
	"github.com/Manjussha/allocheck/internal/webhook"
)

type fakeStore struct {
	cutoff time.Time
	since  time.Time
}

func (f *fakeStore) Stats(_ context.Context, since time.Time) (*history.Stats, error) {
	f.since = since
	return &history.Stats{Since: since, Total: 4, ByTier: map[int]int{5: 4}}, nil
}

func (f *fakeStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 7, nil
}

type fakeNotifier struct {
	events []string
	texts  []string
}

func (f *fakeNotifier) Send(event, text string, _ interface{}) {
	f.events = append(f.events, event)
	f.texts = append(f.texts, text)
}

type fakeSettings map[string]string

func (f fakeSettings) GetSetting(key, fallback string) string {
	if v, ok := f[key]; ok {
		return v
	}
	return fallback
}

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestPrune_UsesSettingOverDefault(t *testing.T) {
	store := &fakeStore{}
	e := New(store, &fakeNotifier{}, fakeSettings{"history_retention_days": "7"}, 30)
	e.now = func() time.Time { return fixedNow }

	n, err := e.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, fixedNow.AddDate(0, 0, -7), store.cutoff)
}

func TestPrune_DefaultAndDisabled(t *testing.T) {
	store := &fakeStore{}
	e := New(store, &fakeNotifier{}, nil, 30)
	e.now = func() time.Time { return fixedNow }
	_, err := e.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, -30), store.cutoff)

	store = &fakeStore{}
	e = New(store, &fakeNotifier{}, fakeSettings{"history_retention_days": "0"}, 30)
	n, err := e.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, store.cutoff.IsZero())
}

func TestDigest(t *testing.T) {
	store, n := &fakeStore{}, &fakeNotifier{}
	e := New(store, n, fakeSettings{}, 30)
	e.now = func() time.Time { return fixedNow }

	require.NoError(t, e.Digest(context.Background()))
	assert.Equal(t, fixedNow.Add(-24*time.Hour), store.since)
	assert.Equal(t, []string{webhook.EventDigest}, n.events)
	assert.Contains(t, n.texts[0], "Total: 4")
}

type fakeFeed struct{ digests []*history.Stats }

func (f *fakeFeed) PublishDigest(st *history.Stats) { f.digests = append(f.digests, st) }

func TestDigest_PublishesToFeed(t *testing.T) {
	feed := &fakeFeed{}
	e := New(&fakeStore{}, &fakeNotifier{}, nil, 30)
	e.SetFeed(feed)
	require.NoError(t, e.Digest(context.Background()))
	require.Len(t, feed.digests, 1)
	assert.Equal(t, 4, feed.digests[0].Total)
}

func TestPrune_MigratedDatabaseUsesConfiguredRetention(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "allocheck_scheduler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())

	store := &fakeStore{}
	e := New(store, &fakeNotifier{}, database, 7)
	e.now = func() time.Time { return fixedNow }
	_, err = e.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, -7), store.cutoff)

	require.NoError(t, database.SetSetting("history_retention_days", "90"))
	_, err = e.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, -90), store.cutoff)
}

func TestDigest_Disabled(t *testing.T) {
	n := &fakeNotifier{}
	e := New(&fakeStore{}, n, fakeSettings{"digest_enabled": "0"}, 30)
	require.NoError(t, e.Digest(context.Background()))
	assert.Empty(t, n.events)
}

func TestStart_RejectsBadSpec(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := New(&fakeStore{}, &fakeNotifier{}, nil, 30)
	assert.Error(t, e.Start(ctx, "not a cron", "0 0 9 * * *"))
}

func TestStart_RegistersJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := New(&fakeStore{}, &fakeNotifier{}, nil, 30)
	require.NoError(t, e.Start(ctx, "0 30 3 * * *", "0 0 9 * * *"))
	runs := e.NextRuns()
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.True(t, r.After(time.Now()))
	}
}

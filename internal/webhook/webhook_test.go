package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manjussha/allocheck/internal/db"
)

func newDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "allocheck_webhook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	return database
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var p Payload
		_ = json.NewDecoder(req.Body).Decode(&p)
		r.mu.Lock()
		r.events = append(r.events, p.Event)
		r.mu.Unlock()
		w.WriteHeader(status)
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestMatchesEvent(t *testing.T) {
	assert.True(t, matchesEvent("check.completed, check.elite", "check.elite"))
	assert.False(t, matchesEvent("check.completed", "check.elite"))
}

func TestFire_FiltersBySubscription(t *testing.T) {
	database := newDB(t)
	rec := &recorder{}
	srv := httptest.NewServer(rec.handler(http.StatusOK))
	defer srv.Close()

	_, err := database.Exec(`INSERT INTO webhooks (name, url, events) VALUES (?,?,?)`,
		"elite only", srv.URL, EventCheckElite)
	require.NoError(t, err)
	_, err = database.Exec(`INSERT INTO webhooks (name, url, events) VALUES (?,?,?)`,
		"everything", srv.URL, "")
	require.NoError(t, err)

	d := New(database)
	d.Fire(EventCheckCompleted, map[string]int{"tokens": 1000})

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		var status int
		_ = database.QueryRow(`SELECT last_status FROM webhooks WHERE name='everything'`).Scan(&status)
		return status == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestFire_RetriesOnFailure(t *testing.T) {
	database := newDB(t)
	rec := &recorder{}
	srv := httptest.NewServer(rec.handler(http.StatusInternalServerError))
	defer srv.Close()

	_, err := database.Exec(`INSERT INTO webhooks (name, url) VALUES (?,?)`, "flaky", srv.URL)
	require.NoError(t, err)

	d := New(database)
	d.delays = []time.Duration{0, time.Millisecond, time.Millisecond}
	d.Fire(EventCheckCompleted, nil)

	require.Eventually(t, func() bool { return rec.count() == 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestTestWebhook(t *testing.T) {
	database := newDB(t)
	rec := &recorder{}
	okSrv := httptest.NewServer(rec.handler(http.StatusNoContent))
	defer okSrv.Close()
	badSrv := httptest.NewServer(rec.handler(http.StatusBadGateway))
	defer badSrv.Close()

	_, err := database.Exec(`INSERT INTO webhooks (id, name, url) VALUES (1,'ok',?), (2,'bad',?)`, okSrv.URL, badSrv.URL)
	require.NoError(t, err)

	d := New(database)
	ctx := context.Background()
	assert.NoError(t, d.TestWebhook(ctx, 1))
	assert.Error(t, d.TestWebhook(ctx, 2))
	assert.Error(t, d.TestWebhook(ctx, 99))
	assert.Equal(t, []string{EventTest, EventTest}, rec.events)
}

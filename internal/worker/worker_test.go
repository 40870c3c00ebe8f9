package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aescanero/goto-dispatcher/internal/action"
	"github.com/aescanero/goto-dispatcher/internal/config"
	"github.com/aescanero/goto-dispatcher/internal/manifest"
	"github.com/aescanero/goto-dispatcher/internal/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConfig() *config.Config {
	return &config.Config{
		WorkerID:      "dispatch-test",
		StreamKey:     "dispatch.navigate",
		ConsumerGroup: "dispatch-workers",
		ResultStream:  "dispatch.results",
		BlockTime:     50 * time.Millisecond,
	}
}

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func newTestRegistry(t *testing.T) *session.Registry {
	t.Helper()
	m, err := manifest.Load("../../configs/routes.yaml")
	require.NoError(t, err)
	return session.NewRegistry(m, action.NewRunner(nil), newTestConfig().DispatchOptions(), nil)
}

func startWorker(t *testing.T, client *redis.Client, handler Handler) *Worker {
	t.Helper()
	w := NewWorker(newTestConfig(), client, handler, zap.NewNop())
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func publish(t *testing.T, client *redis.Client, data string) string {
	t.Helper()
	id, err := client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: "dispatch.navigate",
		Values: map[string]interface{}{"data": data},
	}).Result()
	require.NoError(t, err)
	return id
}

func waitForEntries(t *testing.T, client *redis.Client, stream string, n int) []redis.XMessage {
	t.Helper()
	var entries []redis.XMessage
	require.Eventually(t, func() bool {
		var err error
		entries, err = client.XRange(context.Background(), stream, "-", "+").Result()
		return err == nil && len(entries) >= n
	}, 2*time.Second, 10*time.Millisecond)
	return entries
}

func decodeResult(t *testing.T, msg redis.XMessage) Result {
	t.Helper()
	var result Result
	require.NoError(t, json.Unmarshal([]byte(msg.Values["data"].(string)), &result))
	return result
}

func TestWorkerPublishesOutcomes(t *testing.T) {
	client, _ := newTestClient(t)
	registry := newTestRegistry(t)
	startWorker(t, client, registry)

	loadID := publish(t, client, `{"session_id":"s1","kind":"load","path":"/test/search.htm","links":["#advanced"]}`)
	clickID := publish(t, client, `{"session_id":"s1","kind":"click","href":"#advanced"}`)

	entries := waitForEntries(t, client, "dispatch.results", 2)

	load := decodeResult(t, entries[0])
	assert.Equal(t, loadID, load.MessageID)
	assert.Equal(t, "dispatch-test", load.WorkerID)
	assert.Equal(t, "s1", load.SessionID)
	assert.Equal(t, "s1", entries[0].Values["session_id"])
	assert.Len(t, load.Messages, 4)
	assert.Equal(t, "advanced", load.Location.Fragment)

	click := decodeResult(t, entries[1])
	assert.Equal(t, clickID, click.MessageID)
	assert.True(t, click.Intercepted)
	require.Len(t, click.Messages, 1)
	assert.Equal(t, "advancedSearch", click.Messages[0].Message)

	assert.Equal(t, 1, registry.Len())
}

func TestWorkerPublishesErrors(t *testing.T) {
	client, _ := newTestClient(t)
	startWorker(t, client, newTestRegistry(t))

	badID := publish(t, client, `{not json`)
	missingID := publish(t, client, `{"session_id":"gone","kind":"navigate","path":"/test/hello.htm"}`)

	entries := waitForEntries(t, client, "dispatch.results.errors", 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["data"].(string)), &first))
	require.NoError(t, json.Unmarshal([]byte(entries[1].Values["data"].(string)), &second))

	assert.Equal(t, badID, first["message_id"])
	assert.Contains(t, first["error"], "failed to unmarshal dispatch request")

	assert.Equal(t, missingID, second["message_id"])
	assert.Equal(t, "gone", second["session_id"])
	assert.Contains(t, second["error"], "session not found")
}

func TestWorkerAcknowledgesMessages(t *testing.T) {
	client, _ := newTestClient(t)
	startWorker(t, client, newTestRegistry(t))

	publish(t, client, `{"session_id":"s1","kind":"load","path":"/test/hello.htm"}`)
	publish(t, client, `{"kind":"bogus"}`)

	waitForEntries(t, client, "dispatch.results", 1)
	waitForEntries(t, client, "dispatch.results.errors", 1)

	require.Eventually(t, func() bool {
		pending, err := client.XPending(context.Background(), "dispatch.navigate", "dispatch-workers").Result()
		return err == nil && pending.Count == 0
	}, 2*time.Second, 10*time.Millisecond)
}

type failingHandler struct{}

func (failingHandler) Handle(req session.Request) (session.Outcome, error) {
	return session.Outcome{}, errors.New("boom")
}

func TestWorkerReportsHandlerFailure(t *testing.T) {
	client, _ := newTestClient(t)
	startWorker(t, client, failingHandler{})

	publish(t, client, `{"session_id":"s1","kind":"load","path":"/"}`)

	entries := waitForEntries(t, client, "dispatch.results.errors", 1)
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["data"].(string)), &event))
	assert.Equal(t, "dispatch failed: boom", event["error"])
	assert.Equal(t, "load", event["kind"])
}

func TestEnsureConsumerGroupIsIdempotent(t *testing.T) {
	client, _ := newTestClient(t)
	w := NewWorker(newTestConfig(), client, failingHandler{}, zap.NewNop())

	require.NoError(t, w.ensureConsumerGroup())
	assert.NoError(t, w.ensureConsumerGroup())
}

func TestWorkerStopReturns(t *testing.T) {
	client, _ := newTestClient(t)
	w := NewWorker(newTestConfig(), client, failingHandler{}, zap.NewNop())
	require.NoError(t, w.Start())

	done := make(chan struct{})
	go func() {
		_ = w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

type blockingHandler struct {
	entered chan struct{}
	release chan struct{}
}

func (h blockingHandler) Handle(req session.Request) (session.Outcome, error) {
	close(h.entered)
	<-h.release
	return session.Outcome{SessionID: req.SessionID}, nil
}

func TestStopFinishesMessageInFlight(t *testing.T) {
	client, _ := newTestClient(t)
	handler := blockingHandler{entered: make(chan struct{}), release: make(chan struct{})}
	w := NewWorker(newTestConfig(), client, handler, zap.NewNop())
	require.NoError(t, w.Start())

	publish(t, client, `{"session_id":"s1","kind":"load","path":"/test/hello.htm"}`)

	select {
	case <-handler.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("request was not picked up")
	}

	done := make(chan struct{})
	go func() {
		_ = w.Stop()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	close(handler.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	ctx := context.Background()
	n, err := client.XLen(ctx, "dispatch.results").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	pending, err := client.XPending(ctx, "dispatch.navigate", "dispatch-workers").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestParseRequest(t *testing.T) {
	req, err := parseRequest(map[string]interface{}{
		"data": `{"session_id":"s1","kind":"navigate","navigator":"results","redirect":true}`,
	})
	require.NoError(t, err)
	assert.Equal(t, session.Request{SessionID: "s1", Kind: session.KindNavigate, Navigator: "results", Redirect: true}, req)

	_, err = parseRequest(map[string]interface{}{})
	assert.ErrorContains(t, err, "missing or invalid 'data' field")
}

type fixedSessions int

func (n fixedSessions) Len() int { return int(n) }

func TestHealthEndpoints(t *testing.T) {
	client, mr := newTestClient(t)
	hs := NewHealthServer(0, client, fixedSessions(3), zap.NewNop())
	handler := hs.Handler()

	get := func(path string) (int, HealthResponse) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var body HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		return rec.Code, body
	}

	code, body := get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["redis"])
	require.NotNil(t, body.Sessions)
	assert.Equal(t, 3, *body.Sessions)

	code, body = get("/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body.Status)

	mr.SetError("LOADING server is down")

	code, body = get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)

	code, body = get("/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body.Status)
}

func TestHealthStopWithoutStart(t *testing.T) {
	client, _ := newTestClient(t)
	hs := NewHealthServer(0, client, nil, zap.NewNop())

	assert.NoError(t, hs.Stop())
}

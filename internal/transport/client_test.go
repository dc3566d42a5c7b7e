package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"importctl/internal/backend"
	"importctl/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startBackend(t *testing.T, processing time.Duration) (*httptest.Server, *backend.Server) {
	t.Helper()
	srv := backend.NewServer(backend.Options{ProcessingTime: processing})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Store().Wait()
	})
	return ts, srv
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestClient_UploadReportsProgress(t *testing.T) {
	ts, srv := startBackend(t, 0)
	c := New(ts.URL, WithRetryCount(0))

	content := `{"rows": [1, 2, 3]}`
	path := writeFile(t, "rows.json", content)

	var mu sync.Mutex
	var calls [][2]int64
	err := c.Upload(context.Background(), path, func(loaded, total int64) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int64{loaded, total})
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, int64(len(content)), last[0])
	assert.Equal(t, int64(len(content)), last[1])
	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i][0], calls[i-1][0])
	}

	job, ok := srv.Store().Current()
	require.True(t, ok)
	assert.Equal(t, "rows.json", job.FileName)
	assert.Equal(t, int64(len(content)), job.Size)
}

func TestClient_PendingAndPollLifecycle(t *testing.T) {
	ts, _ := startBackend(t, 300*time.Millisecond)
	c := New(ts.URL, WithRetryCount(0))
	ctx := context.Background()

	pending, err := c.CheckPending(ctx)
	require.NoError(t, err)
	assert.False(t, pending)

	require.NoError(t, c.Upload(ctx, writeFile(t, "data.json", `[]`), nil))

	pending, err = c.CheckPending(ctx)
	require.NoError(t, err)
	assert.True(t, pending)

	res, err := c.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, res.Status)

	require.Eventually(t, func() bool {
		res, err := c.Poll(ctx)
		return err == nil && res.Status == model.StatusSucceeded
	}, 5*time.Second, 20*time.Millisecond)

	pending, err = c.CheckPending(ctx)
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestClient_PollReportsBackendFailureReason(t *testing.T) {
	ts, _ := startBackend(t, 0)
	c := New(ts.URL, WithRetryCount(0))
	ctx := context.Background()

	require.NoError(t, c.Upload(ctx, writeFile(t, "broken.json", `{"rows": [`), nil))

	var last model.PollResult
	require.Eventually(t, func() bool {
		res, err := c.Poll(ctx)
		last = res
		return err == nil && res.Status.Terminal()
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, model.StatusFailed, last.Status)
	assert.Equal(t, "invalid JSON document", last.Reason)
}

func TestClient_PollWithoutJobIsAPIError(t *testing.T) {
	ts, _ := startBackend(t, 0)
	c := New(ts.URL, WithRetryCount(0))

	_, err := c.Poll(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "no import job", apiErr.Error())
}

func TestClient_UploadWhileJobActiveIsRejected(t *testing.T) {
	ts, _ := startBackend(t, 300*time.Millisecond)
	c := New(ts.URL, WithRetryCount(0))
	ctx := context.Background()

	require.NoError(t, c.Upload(ctx, writeFile(t, "a.json", `{}`), nil))
	err := c.Upload(ctx, writeFile(t, "b.json", `{}`), nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "already running")
}

func TestClient_UploadMissingFile(t *testing.T) {
	c := New("http://127.0.0.1:1", WithRetryCount(0))
	err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.zip"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClient_Health(t *testing.T) {
	ts, _ := startBackend(t, 0)
	assert.NoError(t, New(ts.URL).Health(context.Background()))

	unreachable := New("http://127.0.0.1:1", WithRetryCount(0), WithTimeout(time.Second))
	assert.Error(t, unreachable.Health(context.Background()))
}

func TestClient_SendsBearerToken(t *testing.T) {
	var mu sync.Mutex
	var got []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.Header.Get("Authorization"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hasActiveJob": true}`))
	}))
	defer ts.Close()

	c := New(ts.URL+"/", WithToken("s3cret"), WithRetryCount(0))
	pending, err := c.CheckPending(context.Background())
	require.NoError(t, err)
	assert.True(t, pending)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer s3cret"}, got)
}

func TestClient_ErrorWithoutJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL, WithRetryCount(0)).Poll(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "HTTP 502 Bad Gateway", apiErr.Error())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		n := hits
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error": "warming up"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status": 1}`))
	}))
	defer ts.Close()

	res, err := New(ts.URL, WithRetryCount(2)).Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusSucceeded, res.Status)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, hits)
}

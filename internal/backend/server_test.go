package backend

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"importctl/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    []byte
		wantErr string
	}{
		{name: "valid json", file: "a.json", data: []byte(`{"a": 1}`)},
		{name: "upper case ext", file: "A.JSON", data: []byte(`[]`)},
		{name: "invalid json", file: "a.json", data: []byte(`{"a":`), wantErr: "invalid JSON document"},
		{name: "empty", file: "a.json", data: nil, wantErr: "empty file"},
		{name: "valid zip", file: "a.zip", data: zipBytes(t, map[string]string{"rows.csv": "1,2"})},
		{name: "empty zip", file: "a.zip", data: zipBytes(t, nil), wantErr: "zip archive contains no files"},
		{name: "corrupt zip", file: "a.zip", data: []byte("PK not really"), wantErr: "corrupt zip archive"},
		{name: "other type", file: "a.csv", data: []byte("1,2"), wantErr: "unsupported file type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePayload(tt.file, tt.data)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestStore_OneActiveJobAtATime(t *testing.T) {
	s := NewStore(200*time.Millisecond, nil)
	defer s.Wait()

	first, err := s.Create("a.json", []byte(`{}`))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.True(t, s.HasActive())

	_, err = s.Create("b.json", []byte(`{}`))
	assert.ErrorIs(t, err, ErrJobActive)

	s.Wait()
	job, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, first.ID, job.ID)
	assert.Equal(t, JobSucceeded, job.State)
	assert.False(t, s.HasActive())

	second, err := s.Create("b.json", []byte(`{}`))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestJob_PollResult(t *testing.T) {
	tests := []struct {
		state JobState
		want  model.PollResult
	}{
		{state: JobQueued, want: model.PollResult{Status: model.StatusInProgress}},
		{state: JobProcessing, want: model.PollResult{Status: model.StatusInProgress}},
		{state: JobSucceeded, want: model.PollResult{Status: model.StatusSucceeded}},
		{state: JobFailed, want: model.PollResult{Status: model.StatusFailed, Reason: "bad schema"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			j := Job{State: tt.state, Reason: "bad schema"}
			assert.Equal(t, tt.want, j.PollResult())
		})
	}
}

func TestServer_Routes(t *testing.T) {
	srv := NewServer(Options{})
	r := srv.Router()
	defer srv.Store().Wait()

	do := func(method, target string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, bytes.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, "/api/v1/imports/progress", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no import job")

	w = do(http.MethodPost, "/api/v1/imports", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(http.MethodPost, "/api/v1/imports?filename=export.zip", zipBytes(t, map[string]string{"x.json": "{}"}))
	require.Equal(t, http.StatusAccepted, w.Code)
	var receipt model.UploadReceipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	assert.NotEmpty(t, receipt.JobID)

	srv.Store().Wait()

	w = do(http.MethodGet, "/api/v1/imports/pending", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"hasActiveJob": false}`, w.Body.String())

	w = do(http.MethodGet, "/api/v1/imports/progress", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": 1}`, w.Body.String())
}

func TestServer_UploadPathIsSanitised(t *testing.T) {
	srv := NewServer(Options{})
	r := srv.Router()
	defer srv.Store().Wait()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports?filename=../../etc/data.json", strings.NewReader(`[]`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	job, ok := srv.Store().Current()
	require.True(t, ok)
	assert.Equal(t, "data.json", job.FileName)
}

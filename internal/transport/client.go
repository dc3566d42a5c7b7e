// Package transport talks to the import backend over HTTP.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"importctl/internal/model"
)

const (
	uploadPath   = "/api/v1/imports"
	pendingPath  = "/api/v1/imports/pending"
	progressPath = "/api/v1/imports/progress"
	healthPath   = "/health"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client implements job.Transport against the import API.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	retries int
	logger  *zap.Logger

	api    *resty.Client // status queries: timeout + retries
	upload *resty.Client // file transfer: streamed, never retried or timed out
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets a bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout bounds status queries. Uploads are not affected.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetryCount sets how many times a status query is retried on 429/5xx.
func WithRetryCount(n int) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// WithLogger attaches a zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 30 * time.Second,
		retries: 2,
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	c.api = resty.New().
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(c.timeout).
		SetRetryCount(c.retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500)
		})

	c.upload = resty.New().
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json")

	if c.token != "" {
		c.api.SetAuthToken(c.token)
		c.upload.SetAuthToken(c.token)
	}
	return c
}

// BaseURL returns the backend address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload streams the file at path to the backend, reporting bytes read as they are sent.
func (c *Client) Upload(ctx context.Context, path string, onProgress func(loaded, total int64)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var total int64
	if st, err := f.Stat(); err == nil {
		total = st.Size()
	}
	body := &countingReader{r: f, total: total, onProgress: onProgress}

	var receipt model.UploadReceipt
	resp, err := c.upload.R().
		SetContext(ctx).
		SetQueryParam("filename", filepath.Base(path)).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(body).
		SetResult(&receipt).
		SetError(&errorBody{}).
		Post(uploadPath)
	if err != nil {
		return err
	}
	if err := apiError(resp); err != nil {
		return err
	}
	c.logger.Debug("upload acknowledged",
		zap.String("file", filepath.Base(path)),
		zap.String("job_id", receipt.JobID),
		zap.Int64("bytes", body.loaded))
	return nil
}

// CheckPending asks whether the backend has an active or queued job.
func (c *Client) CheckPending(ctx context.Context) (bool, error) {
	var out model.PendingResult
	resp, err := c.api.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{}).
		Get(pendingPath)
	if err != nil {
		return false, err
	}
	if err := apiError(resp); err != nil {
		return false, err
	}
	return out.HasActiveJob, nil
}

// Poll returns the status of the current job.
func (c *Client) Poll(ctx context.Context) (model.PollResult, error) {
	var out model.PollResult
	resp, err := c.api.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{}).
		Get(progressPath)
	if err != nil {
		return model.PollResult{}, err
	}
	if err := apiError(resp); err != nil {
		return model.PollResult{}, err
	}
	return out, nil
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.api.R().
		SetContext(ctx).
		SetError(&errorBody{}).
		Get(healthPath)
	if err != nil {
		return err
	}
	return apiError(resp)
}

func apiError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	e := &APIError{StatusCode: resp.StatusCode()}
	if b, ok := resp.Error().(*errorBody); ok && b != nil {
		e.Message = b.Error
		if e.Message == "" {
			e.Message = b.Message
		}
	}
	return e
}

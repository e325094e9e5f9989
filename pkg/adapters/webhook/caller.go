// Package webhook performs the outbound HTTP calls of webhook blocks.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/fluxo/internal/logging"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 10 * time.Second
	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 1 << 20
)

// ErrServerStatus marks a 5xx or 429 response that exhausted the retries.
var ErrServerStatus = errors.New("server returned a retryable status")

// Caller implements ports.WebhookCaller over net/http.
type Caller struct {
	client     *http.Client
	maxRetries uint64
	maxElapsed time.Duration
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Caller.
type Option func(*Caller)

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(w *Caller) {
		w.client = c
	}
}

// WithTimeout sets the per-attempt timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(w *Caller) {
		w.client.Timeout = d
	}
}

// WithRetry retries transport errors, 5xx and 429 responses up to n times
// with exponential backoff, never beyond maxElapsed in total.
func WithRetry(n uint64, maxElapsed time.Duration) Option {
	return func(w *Caller) {
		w.maxRetries = n
		w.maxElapsed = maxElapsed
	}
}

// WithUserAgent sets the User-Agent header unless the request sets one.
func WithUserAgent(ua string) Option {
	return func(w *Caller) {
		w.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Caller) {
		w.logger = logger
	}
}

// New creates a caller. Without WithRetry every call is a single attempt.
func New(opts ...Option) *Caller {
	w := &Caller{
		client:     &http.Client{Timeout: DefaultTimeout},
		maxElapsed: 30 * time.Second,
		userAgent:  "fluxo-webhook/1",
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Call performs the request. Any HTTP status is a successful call unless it
// is retryable and the retries ran out; the body is returned as read.
func (w *Caller) Call(ctx context.Context, req ports.WebhookRequest) (*ports.WebhookResponse, error) {
	start := time.Now()
	var (
		resp    *ports.WebhookResponse
		attempt int
	)

	op := func() error {
		attempt++
		r, err := w.do(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		if retryable(r.StatusCode) {
			return fmt.Errorf("%w: %d", ErrServerStatus, r.StatusCode)
		}
		return nil
	}

	notify := func(err error, next time.Duration) {
		w.logger.WarnContext(ctx, "webhook attempt failed",
			"url", req.URL,
			"attempt", attempt,
			"retry_in", next,
			"err", err)
	}

	err := backoff.RetryNotify(op, w.policy(ctx), notify)
	if err != nil {
		if errors.Is(err, ErrServerStatus) && resp != nil {
			// Out of retries: hand back the last response so the status is still recorded.
			resp.Duration = time.Since(start)
			return resp, nil
		}
		return nil, err
	}
	resp.Duration = time.Since(start)
	return resp, nil
}

func (w *Caller) policy(ctx context.Context) backoff.BackOffContext {
	// BackOff implementations are stateful; build a fresh one per call.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = w.maxElapsed
	return backoff.WithContext(backoff.WithMaxRetries(bo, w.maxRetries), ctx)
}

func (w *Caller) do(ctx context.Context, req ports.WebhookRequest) (*ports.WebhookResponse, error) {
	var body io.Reader
	if req.Body != "" {
		body = bytes.NewBufferString(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", w.userAgent)
	}

	httpResp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &ports.WebhookResponse{StatusCode: httpResp.StatusCode, Body: data}, nil
}

func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

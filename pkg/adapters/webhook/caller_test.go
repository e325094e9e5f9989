package webhook_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/fluxo/pkg/adapters/webhook"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaller_Call(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"contact":"5511999"}`, string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order":{"id":42}}`))
	}))
	defer srv.Close()

	resp, err := webhook.New().Call(context.Background(), ports.WebhookRequest{
		URL:     srv.URL,
		Method:  http.MethodPost,
		Headers: map[string]string{"X-Api-Key": "secret"},
		Body:    `{"contact":"5511999"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"order":{"id":42}}`, string(resp.Body))
}

func TestCaller_ClientErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := webhook.New(webhook.WithRetry(3, time.Second))
	resp, err := c.Call(context.Background(), ports.WebhookRequest{URL: srv.URL, Method: http.MethodGet})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCaller_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := webhook.New(webhook.WithRetry(5, 5*time.Second))
	resp, err := c.Call(context.Background(), ports.WebhookRequest{URL: srv.URL, Method: http.MethodGet})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), hits.Load())
}

func TestCaller_ExhaustedRetriesReturnLastResponse(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := webhook.New(webhook.WithRetry(1, 5*time.Second))
	resp, err := c.Call(context.Background(), ports.WebhookRequest{URL: srv.URL, Method: http.MethodGet})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCaller_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := webhook.New().Call(context.Background(), ports.WebhookRequest{URL: url, Method: http.MethodGet})
	assert.Error(t, err)
}

func TestCaller_InvalidRequest(t *testing.T) {
	_, err := webhook.New(webhook.WithRetry(3, time.Second)).Call(context.Background(), ports.WebhookRequest{URL: "://bad", Method: http.MethodGet})
	assert.Error(t, err)
}

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-crypto-trader/internal/types"
)

func TestDecodeJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v", r.Header.Get("X-Test"))
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"n":7}`))
		case "/bad":
			_, _ = w.Write([]byte(`not json`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHeader("X-Test", "v"), WithTimeout(time.Second))
	ctx := context.Background()

	var out struct{ N int }
	resp, err := c.R(ctx).Get("/ok")
	require.NoError(t, DecodeJSON(resp, err, &out))
	assert.Equal(t, 7, out.N)

	resp, err = c.R(ctx).Get("/bad")
	assert.True(t, errors.Is(DecodeJSON(resp, err, &out), types.ErrMalformedResponse))

	resp, err = c.R(ctx).Get("/missing")
	assert.True(t, errors.Is(DecodeJSON(resp, err, &out), types.ErrTransport))
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRetry(3, time.Millisecond, 5*time.Millisecond))
	resp, err := c.R(context.Background()).Get("/")
	require.NoError(t, Check(resp, err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

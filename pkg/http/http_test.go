package http_test

import (
	"context"
	gohttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eadens/cakeworld/pkg/http"
)

func flaky(failures int32) (*httptest.Server, *int32) {
	var calls int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if atomic.AddInt32(&calls, 1) <= failures {
			w.WriteHeader(gohttp.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":200,"data":{"auth":"` + r.Header.Get("Authorization") + `"}}`))
	}))
	return srv, &calls
}

func TestGetRetriesTransientStatus(t *testing.T) {
	srv, calls := flaky(2)
	defer srv.Close()

	resp, err := http.Get(srv.URL).Bearer("abc").Retry(3, time.Millisecond).Send()
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))

	var body struct {
		Data struct {
			Auth string `json:"auth"`
		} `json:"data"`
	}
	require.NoError(t, resp.JSON(&body))
	assert.Equal(t, "Bearer abc", body.Data.Auth)
}

func TestPostIsNeverRetried(t *testing.T) {
	srv, calls := flaky(5)
	defer srv.Close()

	resp, err := http.Post(srv.URL).Body(map[string]int{"quantity": 1}).Retry(3, time.Millisecond).Send()
	require.NoError(t, err)
	assert.Equal(t, gohttp.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestLastTransientResponseIsReturned(t *testing.T) {
	srv, calls := flaky(5)
	defer srv.Close()

	resp, err := http.Get(srv.URL).Retry(2, time.Millisecond).Send()
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestCancelledContextStopsRetries(t *testing.T) {
	srv, _ := flaky(100)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := http.Get(srv.URL).Retry(5, time.Second).WithContext(ctx).Send()
	assert.Error(t, err)
}

func TestGetRetriesThrottledResponse(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(gohttp.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"status":200}`))
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL).Retry(2, time.Millisecond).Send()
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

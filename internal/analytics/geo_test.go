package analytics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/stretchr/testify/assert"
)

func TestExempt(t *testing.T) {
	exempt := []string{"", "not-an-ip", "127.0.0.1", "::1", "10.1.2.3", "192.168.0.10", "172.16.5.4", "0.0.0.0", "169.254.1.1", "fe80::1"}
	for _, ip := range exempt {
		assert.True(t, analytics.Exempt(ip), ip)
	}

	public := []string{"8.8.8.8", "203.0.114.7", "2001:4860:4860::8888"}
	for _, ip := range public {
		assert.False(t, analytics.Exempt(ip), ip)
	}
}

func TestHTTPGeoLocator(t *testing.T) {
	t.Run("reads country and city", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/8.8.8.8/json/", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"country_name":"United States","city":"Mountain View"}`))
		}))
		defer srv.Close()

		geo := analytics.NewHTTPGeoLocator(srv.URL, time.Second)

		loc := geo.Locate(context.Background(), "8.8.8.8")

		assert.Equal(t, analytics.Location{Country: "United States", City: "Mountain View"}, loc)
	})

	t.Run("missing fields are unknown", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"country_name":"France"}`))
		}))
		defer srv.Close()

		loc := analytics.NewHTTPGeoLocator(srv.URL+"/", time.Second).Locate(context.Background(), "8.8.8.8")

		assert.Equal(t, analytics.Location{Country: "France", City: analytics.Unknown}, loc)
	})

	t.Run("private address skips the lookup", func(t *testing.T) {
		var calls atomic.Int32

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(`{"country_name":"Nowhere"}`))
		}))
		defer srv.Close()

		loc := analytics.NewHTTPGeoLocator(srv.URL, time.Second).Locate(context.Background(), "192.168.1.20")

		assert.Equal(t, analytics.UnknownLocation, loc)
		assert.Zero(t, calls.Load())
	})

	t.Run("server error is unknown", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		loc := analytics.NewHTTPGeoLocator(srv.URL, time.Second).Locate(context.Background(), "8.8.8.8")

		assert.Equal(t, analytics.UnknownLocation, loc)
	})

	t.Run("malformed body is unknown", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		loc := analytics.NewHTTPGeoLocator(srv.URL, time.Second).Locate(context.Background(), "8.8.8.8")

		assert.Equal(t, analytics.UnknownLocation, loc)
	})

	t.Run("timeout is unknown", func(t *testing.T) {
		block := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-block:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(block)

		loc := analytics.NewHTTPGeoLocator(srv.URL, 50*time.Millisecond).Locate(context.Background(), "8.8.8.8")

		assert.Equal(t, analytics.UnknownLocation, loc)
	})
}

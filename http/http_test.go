package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_GetJSON(t *testing.T) {

	var client = New(time.Second, "")

	t.Run("valid JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("symbol") != "BTCUSDT" {
				t.Errorf("Query not forwarded, got %q", r.URL.RawQuery)
			}
			w.Write([]byte(`{"lastPrice":"1.5"}`))
		}))
		defer server.Close()

		body, err := client.GetJSON(context.Background(), server.URL, WithQuery(map[string]string{"symbol": "BTCUSDT"}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if string(body) != `{"lastPrice":"1.5"}` {
			t.Fatalf("Unexpected body %s", body)
		}
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
		}))
		defer server.Close()

		_, err := client.GetJSON(context.Background(), server.URL)
		var respErr *ResponseError
		if !errors.As(err, &respErr) {
			t.Fatalf("Expecting ResponseError, got %v", err)
		}
		if respErr.StatusCode != http.StatusBadRequest || len(respErr.Body) == 0 {
			t.Fatalf("Status or body lost: %+v", respErr)
		}
		if !strings.HasPrefix(respErr.Error(), "GET "+server.URL+": HTTP 400") {
			t.Fatalf("Error should name the url, got %q", respErr.Error())
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		}))
		defer server.Close()

		_, err := client.GetJSON(context.Background(), server.URL)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Expecting ParseError, got %v", err)
		}
	})

	t.Run("timeout aborts the request", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer server.Close()
		defer close(release)

		start := time.Now()
		_, err := client.GetJSON(context.Background(), server.URL, WithTimeout(50*time.Millisecond))
		var timeoutErr *TimeoutError
		if !errors.As(err, &timeoutErr) {
			t.Fatalf("Expecting TimeoutError, got %v", err)
		}
		if timeoutErr.After != 50*time.Millisecond || !timeoutErr.Timeout() {
			t.Fatalf("Unexpected timeout error %+v", timeoutErr)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Fatalf("Timeout took %s", elapsed)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		addr := server.URL
		server.Close()

		_, err := client.GetJSON(context.Background(), addr)
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			t.Fatalf("Expecting NetworkError, got %v", err)
		}
	})

	t.Run("cancelled by caller", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer server.Close()
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		_, err := client.GetJSON(ctx, server.URL)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expecting context.Canceled, got %v", err)
		}
	})
}

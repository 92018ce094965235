package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kbukum/genaikit/logger"
)

func TestHTTPTransport_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}
		if r.Header.Get("X-Api-Key") != "k" {
			t.Errorf("expected api key header, got %v", r.Header)
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Echo", "1")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	e, err := New(Config{BaseURL: srv.URL, Auth: APIKeyAuthHeader("k", "X-Api-Key")}, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = e.Close(context.Background()) }()

	resp, err := e.Patch(context.Background(), "/items/1", `{"name":"x"}`, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Body != `{"name":"x"}` {
		t.Errorf("expected echoed body, got %q", resp.Body)
	}
	if resp.Header("X-Echo") != "1" {
		t.Errorf("expected X-Echo header, got %v", resp.Headers)
	}
}

func TestHTTPTransport_ErrorStatusIsReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(time.Second)
	defer func() { _ = tr.Close() }()

	reply, err := tr.Send(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("5xx must be a reply, got error %v", err)
	}
	if reply.StatusCode != http.StatusServiceUnavailable || string(reply.Body) != "overloaded" {
		t.Errorf("unexpected reply %d %q", reply.StatusCode, reply.Body)
	}
}

func TestHTTPTransport_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	e, err := New(Config{ConnectTimeout: time.Second}, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = e.Close(context.Background()) }()

	_, err = e.Get(context.Background(), addr+"/x", nil)
	if !IsExecutionFailure(err) {
		t.Fatalf("expected execution_failure, got %v", err)
	}
}

func TestHTTPTransport_TimeoutAgainstSlowServer(t *testing.T) {
	unblock := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-unblock:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(unblock)

	e, err := New(Config{BaseURL: srv.URL, ResponseTimeout: 50 * time.Millisecond}, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = e.Close(context.Background()) }()

	if _, err := e.Get(context.Background(), "/slow", nil); !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

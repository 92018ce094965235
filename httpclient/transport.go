package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Transport performs the network I/O for the Executor. Implementations must
// return any HTTP reply, including 4xx and 5xx, as a Reply and reserve the
// error return for low-level faults (DNS, TLS, connection reset).
type Transport interface {
	Send(ctx context.Context, req *Request) (*Reply, error)
	Close() error
}

// HTTPTransport is the net/http Transport. It owns the connection pool.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport whose dial and TLS handshake are
// bounded by connectTimeout. The response wait is bounded by the Executor.
func NewHTTPTransport(connectTimeout time.Duration) *HTTPTransport {
	base := http.DefaultTransport.(*http.Transport).Clone()
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	base.DialContext = dialer.DialContext
	base.TLSHandshakeTimeout = connectTimeout

	return &HTTPTransport{
		client: &http.Client{Transport: base},
	}
}

// Send executes req. The request is aborted when ctx is cancelled.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Reply, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Reply{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       data,
	}, nil
}

// Close releases idle pooled connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

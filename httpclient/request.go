package httpclient

import (
	"net/http"
	"strings"
)

// Request describes one outbound call.
type Request struct {
	// Method is the HTTP verb (GET, POST, PATCH, DELETE).
	Method string
	// URL is absolute, or relative to the executor's BaseURL.
	URL string
	// Headers are request-specific headers, merged over the executor defaults.
	// A nil map is treated as empty.
	Headers map[string]string
	// Body is the opaque request body. Required for POST and PATCH.
	Body string
	// ContentType is sent as Content-Type when Body is set.
	ContentType string
}

// hasBody reports whether the verb requires a body.
func (r *Request) hasBody() bool {
	return r.Method == http.MethodPost || r.Method == http.MethodPatch
}

// Reply is the raw outcome of a transport send.
type Reply struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Response is the result of a successful call (status < 400).
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body string
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Header returns the first header value matching name case-insensitively.
func (r *Response) Header(name string) string {
	return lookupHeader(r.Headers, name)
}

func lookupHeader(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}

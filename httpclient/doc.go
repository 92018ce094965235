// Package httpclient is the transport core used by the resource clients.
//
// An Executor offers blocking GET, POST, PATCH and DELETE calls. Each call
// is admitted by a sliding-window rate limiter shared by every call on that
// executor, then handed to a Transport on its own goroutine. The caller
// waits for at most the configured response timeout. Every outcome is
// normalized: a reply with status below 400 becomes a *Response, anything
// else becomes an *Error whose Kind says what went wrong.
//
// # Basic Usage
//
//	exec, err := httpclient.New(httpclient.Config{
//	    BaseURL:         "https://api.example.com",
//	    ResponseTimeout: 30 * time.Second,
//	    Auth:            httpclient.BearerAuth("my-token"),
//	    RateLimiter: &resilience.RateLimiterConfig{
//	        RequestsPerWindow: 10,
//	        Window:            time.Second,
//	    },
//	})
//	defer exec.Close(ctx)
//
//	resp, err := exec.Post(ctx, "/v1/items", `{"name":"x"}`, nil, "application/json")
//	if httpclient.IsProtocolError(err) {
//	    log.Printf("status %d: %s", httpclient.StatusCode(err), err)
//	}
//
// # Retries
//
// The executor never retries. Callers that want retries wrap calls with
// resilience.Retry and DefaultRetryConfig, which retries timeouts,
// transport faults and throttling or gateway statuses.
package httpclient

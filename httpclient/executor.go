package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/genaikit/logger"
	"github.com/kbukum/genaikit/observability"
	"github.com/kbukum/genaikit/resilience"
)

const defaultContentType = "application/json"

// Executor exposes blocking verb calls that run the transport on a
// goroutine, bound the wait by the response timeout, and share one
// sliding-window rate limiter across all calls. It is safe for
// concurrent use.
type Executor struct {
	config    Config
	transport Transport
	limiter   *resilience.RateLimiter
	log       *logger.Logger
	metrics   *observability.ClientMetrics
	now       func() time.Time

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Option customizes an Executor.
type Option func(*Executor)

// WithTransport replaces the default net/http transport.
func WithTransport(t Transport) Option {
	return func(e *Executor) { e.transport = t }
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// WithMetrics enables metric recording.
func WithMetrics(m *observability.ClientMetrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// New creates an Executor. It fails when the configuration, including an
// explicitly supplied rate limiter config, is invalid.
func New(cfg Config, opts ...Option) (*Executor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Executor{config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.GetGlobalLogger()
	}
	e.log = e.log.WithComponent(cfg.Name)
	if e.transport == nil {
		e.transport = NewHTTPTransport(cfg.ConnectTimeout)
	}

	rlCfg := *cfg.RateLimiter
	onLimit := rlCfg.OnLimit
	rlCfg.OnLimit = func(name string, wait time.Duration) {
		e.log.Debug("rate limit reached, waiting", logger.Fields(logger.FieldWait, wait.Milliseconds()))
		if onLimit != nil {
			onLimit(name, wait)
		}
	}
	limiter, err := resilience.NewRateLimiter(rlCfg)
	if err != nil {
		return nil, err
	}
	e.limiter = limiter

	return e, nil
}

// Get issues a GET request.
func (e *Executor) Get(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	return e.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Headers: headers})
}

// Post issues a POST request. body must be non-empty.
func (e *Executor) Post(ctx context.Context, rawURL, body string, headers map[string]string, contentType string) (*Response, error) {
	return e.Do(ctx, Request{Method: http.MethodPost, URL: rawURL, Headers: headers, Body: body, ContentType: contentType})
}

// Patch issues a PATCH request. body must be non-empty.
func (e *Executor) Patch(ctx context.Context, rawURL, body string, headers map[string]string, contentType string) (*Response, error) {
	return e.Do(ctx, Request{Method: http.MethodPatch, URL: rawURL, Headers: headers, Body: body, ContentType: contentType})
}

// Delete issues a DELETE request.
func (e *Executor) Delete(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	return e.Do(ctx, Request{Method: http.MethodDelete, URL: rawURL, Headers: headers})
}

// Do executes req. It returns a Response when the reply status is below
// 400 and an *Error in every other case.
func (e *Executor) Do(ctx context.Context, req Request) (*Response, error) {
	callID := uuid.NewString()
	ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(observability.AttrClientName, e.config.Name),
			attribute.String(observability.AttrCallID, callID),
			attribute.String(observability.AttrHTTPMethod, req.Method),
		),
	)

	start := e.now()
	resp, callErr := e.execute(ctx, req)
	elapsed := e.now().Sub(start)

	fields := logger.Fields(
		logger.FieldCallID, callID,
		logger.FieldMethod, req.Method,
		logger.FieldURL, req.URL,
		logger.FieldDuration, elapsed.Milliseconds(),
	)

	if callErr != nil {
		span.SetAttributes(attribute.String(observability.AttrErrorKind, callErr.Kind.String()))
		if callErr.StatusCode != UnknownStatus {
			span.SetAttributes(attribute.Int(observability.AttrHTTPStatus, callErr.StatusCode))
			fields[logger.FieldStatusCode] = callErr.StatusCode
		}
		fields[logger.FieldErrorKind] = callErr.Kind.String()
		e.log.Warn("request failed", logger.MergeWithError(fields, callErr))
		observability.EndSpan(span, callErr)
		return nil, callErr
	}

	span.SetAttributes(attribute.Int(observability.AttrHTTPStatus, resp.StatusCode))
	fields[logger.FieldStatusCode] = resp.StatusCode
	e.log.Debug("request completed", fields)
	observability.EndSpan(span, nil)
	return resp, nil
}

// execute walks one call through validate, admit, dispatch and normalize.
func (e *Executor) execute(ctx context.Context, req Request) (*Response, *Error) {
	if e.closed.Load() {
		return nil, NewExecutionError(ErrClosed)
	}

	out, verr := e.prepare(req)
	if verr != nil {
		return nil, verr
	}

	waitStart := e.now()
	if err := e.limiter.Acquire(ctx); err != nil {
		return nil, NewInterruptedError(err)
	}
	e.metrics.RecordRateLimitWait(ctx, e.config.Name, e.now().Sub(waitStart))

	return e.dispatch(ctx, out)
}

type outcome struct {
	reply *Reply
	err   error
}

// dispatch runs the transport on its own goroutine and waits for the first
// of reply, response timeout, or caller cancellation. A reply observed at or
// after the deadline is reported as a timeout.
func (e *Executor) dispatch(ctx context.Context, req *Request) (*Response, *Error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so an abandoned send never blocks the goroutine.
	done := make(chan outcome, 1)
	start := e.now()
	deadline := start.Add(e.config.ResponseTimeout)
	e.metrics.RecordDispatch(ctx, e.config.Name)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("transport panic: %v", r)}
			}
		}()
		reply, err := e.transport.Send(callCtx, req)
		done <- outcome{reply: reply, err: err}
	}()

	timer := time.NewTimer(e.config.ResponseTimeout)
	defer timer.Stop()

	var resp *Response
	var callErr *Error
	select {
	case out := <-done:
		if !e.now().Before(deadline) {
			callErr = e.timeoutError()
		} else {
			resp, callErr = normalize(ctx, out)
		}
	case <-timer.C:
		callErr = e.timeoutError()
	case <-ctx.Done():
		callErr = NewInterruptedError(ctx.Err())
	}

	result := "ok"
	if callErr != nil {
		result = callErr.Kind.String()
		e.metrics.RecordError(ctx, e.config.Name, result)
	}
	e.metrics.RecordResult(ctx, e.config.Name, req.Method, result, e.now().Sub(start))
	return resp, callErr
}

func (e *Executor) timeoutError() *Error {
	return NewTimeoutError(
		fmt.Sprintf("no response within %s", e.config.ResponseTimeout),
		context.DeadlineExceeded,
	)
}

// normalize maps a transport outcome onto Response or Error.
func normalize(ctx context.Context, out outcome) (*Response, *Error) {
	if out.err != nil {
		// The transport saw the caller's cancellation before we did.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, NewInterruptedError(ctxErr)
		}
		return nil, NewExecutionError(out.err)
	}
	if out.reply == nil {
		return nil, NewExecutionError(fmt.Errorf("transport returned no reply"))
	}

	body := string(out.reply.Body)
	if out.reply.StatusCode >= 400 {
		return nil, NewProtocolError(out.reply.StatusCode, out.reply.Headers, body)
	}
	return &Response{
		StatusCode: out.reply.StatusCode,
		Headers:    out.reply.Headers,
		Body:       body,
	}, nil
}

// prepare validates req and builds the outbound copy with resolved URL,
// merged headers and auth. Nothing here touches the network.
func (e *Executor) prepare(req Request) (*Request, *Error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete:
	case "":
		return nil, NewInvalidRequestError("method is required")
	default:
		return nil, NewInvalidRequestError(fmt.Sprintf("unsupported method %q", req.Method))
	}

	target, verr := e.resolveURL(req.URL)
	if verr != nil {
		return nil, verr
	}

	out := &Request{
		Method:  method,
		URL:     target,
		Headers: make(map[string]string, len(e.config.Headers)+len(req.Headers)+2),
		Body:    req.Body,
	}
	if out.hasBody() {
		if req.Body == "" {
			return nil, NewInvalidRequestError(fmt.Sprintf("%s requires a non-empty body", method))
		}
		out.ContentType = req.ContentType
		if out.ContentType == "" {
			out.ContentType = defaultContentType
		}
	}

	for k, v := range e.config.Headers {
		out.Headers[k] = v
	}
	if e.config.UserAgent != "" {
		out.Headers["User-Agent"] = e.config.UserAgent
	}
	for k, v := range req.Headers {
		out.Headers[k] = v
	}

	if err := e.config.Auth.apply(out); err != nil {
		return nil, NewInvalidRequestError(fmt.Sprintf("apply auth: %v", err))
	}
	return out, nil
}

func (e *Executor) resolveURL(raw string) (string, *Error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", NewInvalidRequestError("url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", NewInvalidRequestError(fmt.Sprintf("invalid url %q: %v", raw, err))
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", NewInvalidRequestError(fmt.Sprintf("unsupported url scheme %q", u.Scheme))
		}
		if u.Host == "" {
			return "", NewInvalidRequestError(fmt.Sprintf("url %q has no host", raw))
		}
		return raw, nil
	}

	if e.config.BaseURL == "" {
		return "", NewInvalidRequestError(fmt.Sprintf("relative url %q with no base url", raw))
	}
	return strings.TrimRight(e.config.BaseURL, "/") + "/" + strings.TrimLeft(raw, "/"), nil
}

// Close releases the transport. Only the first call does any work; later
// calls return nil. Calls issued after Close fail with ErrClosed.
func (e *Executor) Close(_ context.Context) error {
	var closedNow bool
	e.closeOnce.Do(func() {
		closedNow = true
		e.closed.Store(true)
		e.closeErr = e.transport.Close()
		e.log.Debug("executor closed")
	})
	if !closedNow {
		return nil
	}
	return e.closeErr
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return e.config.Name
}

// Limiter returns the shared rate limiter.
func (e *Executor) Limiter() *resilience.RateLimiter {
	return e.limiter
}

package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	gkerrors "github.com/kbukum/genaikit/errors"
	"github.com/kbukum/genaikit/httpclient"
	"github.com/kbukum/genaikit/logger"
	"github.com/kbukum/genaikit/observability"
	"github.com/kbukum/genaikit/resilience"
	"github.com/kbukum/genaikit/version"
)

// Client is a Generative Language API client. Each Client owns one
// executor and therefore one rate limiter; independent clients never
// share admission slots.
type Client struct {
	exec  *httpclient.Executor
	cfg   Config
	retry *resilience.RetryConfig
	log   *logger.Logger

	// Models exposes generation, token counting, embedding and model listing.
	Models *Models
	// CachedContents manages context caches.
	CachedContents *CachedContents
}

type clientOptions struct {
	exec []httpclient.Option
	log  *logger.Logger
}

// Option customizes a Client.
type Option func(*clientOptions)

// WithTransport replaces the default net/http transport.
func WithTransport(t httpclient.Transport) Option {
	return func(o *clientOptions) { o.exec = append(o.exec, httpclient.WithTransport(t)) }
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// WithMetrics enables executor metrics.
func WithMetrics(m *observability.ClientMetrics) Option {
	return func(o *clientOptions) { o.exec = append(o.exec, httpclient.WithMetrics(m)) }
}

// New creates a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}

	exec, err := httpclient.New(httpclient.Config{
		Name:            cfg.Name,
		BaseURL:         cfg.BaseURL,
		ConnectTimeout:  cfg.ConnectTimeout,
		ResponseTimeout: cfg.ResponseTimeout,
		Headers:         cfg.Headers,
		UserAgent:       version.UserAgent(),
		Auth:            httpclient.APIKeyAuthHeader(cfg.APIKey, apiKeyHeader),
		RateLimiter:     cfg.RateLimit,
	}, append(o.exec, httpclient.WithLogger(o.log))...)
	if err != nil {
		return nil, fmt.Errorf("genai: create executor: %w", err)
	}

	c := &Client{
		exec: exec,
		cfg:  cfg,
		log:  o.log.WithComponent(cfg.Name),
	}
	if cfg.Retry != nil {
		retry := *cfg.Retry
		if retry.RetryIf == nil {
			retry.RetryIf = httpclient.IsTransient
		}
		if retry.RetryAfter == nil {
			retry.RetryAfter = httpclient.RetryAfter
		}
		if retry.OnRetry == nil {
			retry.OnRetry = c.logRetry
		}
		c.retry = &retry
	}
	c.Models = &Models{client: c}
	c.CachedContents = &CachedContents{client: c}
	return c, nil
}

// Close releases the underlying connections. It is safe to call twice.
func (c *Client) Close(ctx context.Context) error {
	return c.exec.Close(ctx)
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) logRetry(attempt int, err error, backoff time.Duration) {
	c.log.Warn("retrying request", logger.Fields(
		"attempt", attempt,
		logger.FieldError, err.Error(),
		logger.FieldWait, backoff.Milliseconds(),
	))
}

// call encodes in, sends it, and decodes the reply into out. Either may
// be nil.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, in, out any) (err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanGenAICall,
		trace.WithAttributes(attribute.String(observability.AttrOperation, op)),
	)
	defer func() { observability.EndSpan(span, err) }()

	var body string
	if in != nil {
		data, encErr := json.Marshal(in)
		if encErr != nil {
			return gkerrors.Encoding("request", encErr)
		}
		body = string(data)
	}

	target := c.cfg.APIVersion + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	send := func(ctx context.Context) (*httpclient.Response, error) {
		switch method {
		case http.MethodPost:
			return c.exec.Post(ctx, target, body, nil, "application/json")
		case http.MethodPatch:
			return c.exec.Patch(ctx, target, body, nil, "application/json")
		case http.MethodDelete:
			return c.exec.Delete(ctx, target, nil)
		default:
			return c.exec.Get(ctx, target, nil)
		}
	}

	var resp *httpclient.Response
	if c.retry != nil {
		resp, err = resilience.Retry(ctx, *c.retry, send)
	} else {
		resp, err = send(ctx)
	}
	if err != nil {
		return decodeError(err)
	}

	if out == nil || strings.TrimSpace(resp.Body) == "" {
		return nil
	}
	if decErr := json.Unmarshal([]byte(resp.Body), out); decErr != nil {
		return gkerrors.Encoding("response", decErr)
	}
	return nil
}

// resolveModel applies the default model and the "models/" prefix.
func (c *Client) resolveModel(model string) (string, error) {
	if model == "" {
		model = c.cfg.DefaultModel
	}
	if model == "" {
		return "", gkerrors.MissingField("model")
	}
	return modelName(model), nil
}

func modelName(model string) string {
	if strings.HasPrefix(model, "models/") || strings.HasPrefix(model, "tunedModels/") {
		return model
	}
	return "models/" + model
}

func cachedContentName(name string) string {
	if name == "" || strings.HasPrefix(name, "cachedContents/") {
		return name
	}
	return "cachedContents/" + name
}

func pageQuery(opts *ListOptions) url.Values {
	if opts == nil {
		return nil
	}
	q := url.Values{}
	if opts.PageSize > 0 {
		q.Set("pageSize", fmt.Sprint(opts.PageSize))
	}
	if opts.PageToken != "" {
		q.Set("pageToken", opts.PageToken)
	}
	return q
}

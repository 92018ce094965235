package genai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gkerrors "github.com/kbukum/genaikit/errors"
	"github.com/kbukum/genaikit/httpclient"
	"github.com/kbukum/genaikit/logger"
	"github.com/kbukum/genaikit/resilience"
)

type recorded struct {
	method string
	path   string
	query  string
	key    string
	agent  string
	body   map[string]any
}

type recorder struct {
	mu   sync.Mutex
	reqs []recorded
}

func (r *recorder) add(rec recorded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, rec)
}

func (r *recorder) at(i int) recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[i]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

// fakeAPI serves handler and records every request.
func fakeAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *recorder, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	reqs := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		rec := recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			key:    r.Header.Get("x-goog-api-key"),
			agent:  r.Header.Get("User-Agent"),
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			if err := json.Unmarshal(data, &rec.body); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		reqs.add(rec)
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, reqs, &hits
}

func newTestClient(t *testing.T, baseURL string, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		APIKey:       "test-key",
		BaseURL:      baseURL,
		DefaultModel: "gemini-test",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

const generateReply = `{
  "candidates": [{
    "content": {"role": "model", "parts": [{"text": "Hello"}, {"text": ", world"}]},
    "finishReason": "STOP",
    "index": 0,
    "safetyRatings": [{"category": "HARM_CATEGORY_HARASSMENT", "probability": "NEGLIGIBLE"}]
  }],
  "usageMetadata": {"promptTokenCount": 3, "candidatesTokenCount": 2, "totalTokenCount": 5},
  "modelVersion": "gemini-test-001"
}`

func TestModels_GenerateContent(t *testing.T) {
	srv, reqs, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, generateReply)
	})
	c := newTestClient(t, srv.URL)

	req := NewGenerateContentRequest(
		[]Content{Text("Say hello")},
		WithSystemInstruction("Be brief."),
		WithGenerationConfig(GenerationConfig{Temperature: Ptr(0.2), MaxOutputTokens: Ptr(64)}),
		WithSafetySettings(SafetySetting{Category: HarmCategoryHarassment, Threshold: BlockOnlyHigh}),
	)
	resp, err := c.Models.GenerateContent(context.Background(), "", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := resp.Text(); got != "Hello, world" {
		t.Errorf("expected 'Hello, world', got %q", got)
	}
	if resp.Candidates[0].FinishReason != FinishReasonStop {
		t.Errorf("expected STOP, got %s", resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata == nil || resp.UsageMetadata.TotalTokenCount != 5 {
		t.Errorf("unexpected usage %+v", resp.UsageMetadata)
	}

	got := reqs.at(0)
	if got.method != http.MethodPost {
		t.Errorf("expected POST, got %s", got.method)
	}
	if got.path != "/v1beta/models/gemini-test:generateContent" {
		t.Errorf("unexpected path %s", got.path)
	}
	if got.key != "test-key" {
		t.Errorf("expected api key header, got %q", got.key)
	}
	if !strings.HasPrefix(got.agent, "genaikit/") {
		t.Errorf("unexpected user agent %q", got.agent)
	}
	if _, ok := got.body["systemInstruction"]; !ok {
		t.Errorf("expected systemInstruction in body, got %v", got.body)
	}
	gc, _ := got.body["generationConfig"].(map[string]any)
	if gc["temperature"] != 0.2 || gc["maxOutputTokens"] != float64(64) {
		t.Errorf("unexpected generationConfig %v", gc)
	}
	if _, ok := gc["topP"]; ok {
		t.Error("unset optional fields must be omitted")
	}
}

func TestModels_GenerateContentPreflight(t *testing.T) {
	srv, _, hits := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	c := newTestClient(t, srv.URL)

	_, err := c.Models.GenerateContent(context.Background(), "", NewGenerateContentRequest(nil))
	if !gkerrors.HasCode(err, gkerrors.ErrCodeMissingField) {
		t.Errorf("expected MISSING_FIELD, got %v", err)
	}

	_, err = c.Models.GenerateContent(context.Background(), "",
		NewGenerateContentRequest([]Content{Text("x")}, WithGenerationConfig(GenerationConfig{Temperature: Ptr(5.0)})))
	if !gkerrors.HasCode(err, gkerrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}

	if n := hits.Load(); n != 0 {
		t.Errorf("pre-flight failures must not reach the server, got %d", n)
	}
}

func TestModels_APIError(t *testing.T) {
	srv, _, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT","details":[{"@type":"type.googleapis.com/google.rpc.ErrorInfo","reason":"API_KEY_INVALID"}]}}`)
	})
	c := newTestClient(t, srv.URL)

	_, err := c.Models.GenerateText(context.Background(), "", "hi")
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Code != 400 || apiErr.Status != "INVALID_ARGUMENT" {
		t.Errorf("unexpected api error %+v", apiErr)
	}
	if len(apiErr.Details) != 1 || apiErr.Details[0]["reason"] != "API_KEY_INVALID" {
		t.Errorf("unexpected details %v", apiErr.Details)
	}
	if !httpclient.IsProtocolError(err) {
		t.Error("api errors should still report as protocol errors")
	}
	if httpclient.StatusCode(err) != 400 {
		t.Errorf("expected status 400, got %d", httpclient.StatusCode(err))
	}
}

func TestModels_NonEnvelopeErrorPassesThrough(t *testing.T) {
	srv, _, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down")
	})
	c := newTestClient(t, srv.URL)

	_, err := c.Models.Get(context.Background(), "gemini-test")
	if _, ok := AsAPIError(err); ok {
		t.Error("plain text bodies should not decode as APIError")
	}
	httpErr, ok := httpclient.AsError(err)
	if !ok || httpErr.StatusCode != 502 || httpErr.Body != "upstream down" {
		t.Errorf("expected raw protocol error, got %v", err)
	}
}

func TestModels_RetryOnTransient(t *testing.T) {
	var calls atomic.Int32
	srv, _, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		_, _ = io.WriteString(w, generateReply)
	})
	c := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.Retry = &resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	})

	resp, err := c.Models.GenerateText(context.Background(), "", "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "Hello, world" {
		t.Errorf("unexpected text %q", resp.Text())
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 calls, got %d", n)
	}
}

func TestModels_NoRetryOnClientError(t *testing.T) {
	srv, _, hits := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"not found","status":"NOT_FOUND"}}`)
	})
	c := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.Retry = &resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}
	})

	if _, err := c.Models.Get(context.Background(), "missing"); err == nil {
		t.Fatal("expected error")
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("404 must not be retried, got %d calls", n)
	}
}

func TestModels_CountTokens(t *testing.T) {
	srv, reqs, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"totalTokens": 7}`)
	})
	c := newTestClient(t, srv.URL)

	resp, err := c.Models.CountTokens(context.Background(), "gemini-other", &CountTokensRequest{
		GenerateContentRequest: NewGenerateContentRequest([]Content{Text("count me")}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalTokens != 7 {
		t.Errorf("expected 7, got %d", resp.TotalTokens)
	}
	got := reqs.at(0)
	if got.path != "/v1beta/models/gemini-other:countTokens" {
		t.Errorf("unexpected path %s", got.path)
	}
	nested, _ := got.body["generateContentRequest"].(map[string]any)
	if nested["model"] != "models/gemini-other" {
		t.Errorf("nested request should name the model, got %v", nested["model"])
	}

	if _, err := c.Models.CountTokens(context.Background(), "", &CountTokensRequest{}); !gkerrors.HasCode(err, gkerrors.ErrCodeMissingField) {
		t.Errorf("expected MISSING_FIELD, got %v", err)
	}
}

func TestModels_Embed(t *testing.T) {
	srv, reqs, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ":batchEmbedContents") {
			_, _ = io.WriteString(w, `{"embeddings":[{"values":[0.1,0.2]},{"values":[0.3]}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"embedding":{"values":[0.5,0.25]}}`)
	})
	c := newTestClient(t, srv.URL)

	single, err := c.Models.EmbedContent(context.Background(), "text-embedding-004", &EmbedContentRequest{
		Content:  Text("hello"),
		TaskType: TaskTypeRetrievalQuery,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(single.Embedding.Values) != 2 || single.Embedding.Values[1] != 0.25 {
		t.Errorf("unexpected embedding %v", single.Embedding.Values)
	}

	batch, err := c.Models.BatchEmbedContents(context.Background(), "text-embedding-004", &BatchEmbedContentsRequest{
		Requests: []EmbedContentRequest{{Content: Text("a")}, {Content: Text("b"), Model: "other"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(batch.Embeddings))
	}

	body := reqs.at(1).body
	items, _ := body["requests"].([]any)
	first, _ := items[0].(map[string]any)
	second, _ := items[1].(map[string]any)
	if first["model"] != "models/text-embedding-004" || second["model"] != "models/other" {
		t.Errorf("unexpected per-request models %v / %v", first["model"], second["model"])
	}
}

func TestModels_ListAndGet(t *testing.T) {
	srv, reqs, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1beta/models" {
			_, _ = io.WriteString(w, `{"models":[{"name":"models/a","inputTokenLimit":1000}],"nextPageToken":"p2"}`)
			return
		}
		_, _ = io.WriteString(w, `{"name":"models/a","displayName":"A","supportedGenerationMethods":["generateContent"]}`)
	})
	c := newTestClient(t, srv.URL)

	page, err := c.Models.List(context.Background(), &ListOptions{PageSize: 10, PageToken: "p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Models) != 1 || page.NextPageToken != "p2" {
		t.Errorf("unexpected page %+v", page)
	}
	if q := reqs.at(0).query; q != "pageSize=10&pageToken=p1" {
		t.Errorf("unexpected query %q", q)
	}

	m, err := c.Models.Get(context.Background(), "models/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.DisplayName != "A" {
		t.Errorf("unexpected model %+v", m)
	}
	if p := reqs.at(1).path; p != "/v1beta/models/a" {
		t.Errorf("prefixed names must not be doubled, got %s", p)
	}
}

func TestCachedContents_Lifecycle(t *testing.T) {
	srv, reqs, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			_, _ = io.WriteString(w, `{}`)
		case http.MethodGet:
			if r.URL.Path == "/v1beta/cachedContents" {
				_, _ = io.WriteString(w, `{"cachedContents":[{"name":"cachedContents/abc"}]}`)
				return
			}
			fallthrough
		default:
			_, _ = io.WriteString(w, `{"name":"cachedContents/abc","model":"models/gemini-test","ttl":"600s","usageMetadata":{"totalTokenCount":4096}}`)
		}
	})
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	created, err := c.CachedContents.Create(ctx, &CachedContent{
		Contents: []Content{Text("a long document")},
		TTL:      "300s",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "cachedContents/abc" || created.UsageMetadata.TotalTokenCount != 4096 {
		t.Errorf("unexpected cache entry %+v", created)
	}

	if _, err := c.CachedContents.Get(ctx, "abc"); err != nil {
		t.Fatalf("get: %v", err)
	}
	list, err := c.CachedContents.List(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.CachedContents) != 1 {
		t.Errorf("expected 1 entry, got %d", len(list.CachedContents))
	}
	if _, err := c.CachedContents.Update(ctx, "abc", &CachedContentUpdate{TTL: "600s"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := c.CachedContents.Delete(ctx, "cachedContents/abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []struct{ method, path, query string }{
		{http.MethodPost, "/v1beta/cachedContents", ""},
		{http.MethodGet, "/v1beta/cachedContents/abc", ""},
		{http.MethodGet, "/v1beta/cachedContents", ""},
		{http.MethodPatch, "/v1beta/cachedContents/abc", "updateMask=ttl"},
		{http.MethodDelete, "/v1beta/cachedContents/abc", ""},
	}
	if reqs.count() != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), reqs.count())
	}
	for i, w := range want {
		got := reqs.at(i)
		if got.method != w.method || got.path != w.path || got.query != w.query {
			t.Errorf("request %d: got %s %s?%s, want %s %s?%s", i, got.method, got.path, got.query, w.method, w.path, w.query)
		}
	}
	if reqs.at(0).body["model"] != "models/gemini-test" {
		t.Errorf("create should default the model, got %v", reqs.at(0).body["model"])
	}
}

func TestCachedContents_UpdateValidation(t *testing.T) {
	srv, _, hits := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	c := newTestClient(t, srv.URL)

	if _, err := c.CachedContents.Update(context.Background(), "abc", &CachedContentUpdate{}); !gkerrors.HasCode(err, gkerrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	if _, err := c.CachedContents.Update(context.Background(), "abc", &CachedContentUpdate{TTL: "1s", ExpireTime: "2030-01-01T00:00:00Z"}); err == nil {
		t.Error("expected error when both ttl and expire_time are set")
	}
	if err := c.CachedContents.Delete(context.Background(), ""); !gkerrors.HasCode(err, gkerrors.ErrCodeMissingField) {
		t.Errorf("expected MISSING_FIELD, got %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestClient_IndependentRateLimiters(t *testing.T) {
	srv, _, _ := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"name":"models/a"}`)
	})
	limited := func(cfg *Config) {
		cfg.RateLimit = &resilience.RateLimiterConfig{RequestsPerWindow: 1, Window: time.Minute}
	}
	a := newTestClient(t, srv.URL, limited)
	b := newTestClient(t, srv.URL, limited)

	if _, err := a.Models.Get(context.Background(), "a"); err != nil {
		t.Fatalf("client a: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := b.Models.Get(ctx, "a"); err != nil {
		t.Fatalf("client b must not be limited by client a: %v", err)
	}
}

func TestClient_CloseTwice(t *testing.T) {
	c, err := New(Config{APIKey: "k"}, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

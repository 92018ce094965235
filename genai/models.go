package genai

import (
	"context"
	"net/http"

	gkerrors "github.com/kbukum/genaikit/errors"
)

// Models is the models resource.
type Models struct {
	client *Client
}

// GenerateContent generates a response for req. An empty model selects the
// client default.
func (m *Models) GenerateContent(ctx context.Context, model string, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	name, err := m.client.resolveModel(model)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, gkerrors.MissingField("request")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out GenerateContentResponse
	if err := m.client.call(ctx, "generate_content", http.MethodPost, name+":generateContent", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateText is a shortcut for a single-turn text prompt.
func (m *Models) GenerateText(ctx context.Context, model, prompt string, opts ...RequestOption) (*GenerateContentResponse, error) {
	return m.GenerateContent(ctx, model, NewGenerateContentRequest([]Content{Text(prompt)}, opts...))
}

// CountTokens counts the tokens req would consume.
func (m *Models) CountTokens(ctx context.Context, model string, req *CountTokensRequest) (*CountTokensResponse, error) {
	name, err := m.client.resolveModel(model)
	if err != nil {
		return nil, err
	}
	if req == nil || (len(req.Contents) == 0 && req.GenerateContentRequest == nil) {
		return nil, gkerrors.MissingField("contents")
	}
	if nested := req.GenerateContentRequest; nested != nil && nested.Model == "" {
		// The nested request must name its model.
		withModel := *nested
		withModel.Model = name
		req = &CountTokensRequest{Contents: req.Contents, GenerateContentRequest: &withModel}
	}

	var out CountTokensResponse
	if err := m.client.call(ctx, "count_tokens", http.MethodPost, name+":countTokens", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EmbedContent embeds a single content.
func (m *Models) EmbedContent(ctx context.Context, model string, req *EmbedContentRequest) (*EmbedContentResponse, error) {
	name, err := m.client.resolveModel(model)
	if err != nil {
		return nil, err
	}
	if req == nil || len(req.Content.Parts) == 0 {
		return nil, gkerrors.MissingField("content")
	}

	var out EmbedContentResponse
	if err := m.client.call(ctx, "embed_content", http.MethodPost, name+":embedContent", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BatchEmbedContents embeds several contents in one call. Requests that
// name no model inherit the call's model.
func (m *Models) BatchEmbedContents(ctx context.Context, model string, req *BatchEmbedContentsRequest) (*BatchEmbedContentsResponse, error) {
	name, err := m.client.resolveModel(model)
	if err != nil {
		return nil, err
	}
	if req == nil || len(req.Requests) == 0 {
		return nil, gkerrors.MissingField("requests")
	}

	batch := &BatchEmbedContentsRequest{Requests: make([]EmbedContentRequest, len(req.Requests))}
	for i, r := range req.Requests {
		if len(r.Content.Parts) == 0 {
			return nil, gkerrors.InvalidInput("requests", "every request needs content")
		}
		if r.Model == "" {
			r.Model = name
		} else {
			r.Model = modelName(r.Model)
		}
		batch.Requests[i] = r
	}

	var out BatchEmbedContentsResponse
	if err := m.client.call(ctx, "batch_embed_contents", http.MethodPost, name+":batchEmbedContents", nil, batch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns one page of models. opts may be nil.
func (m *Models) List(ctx context.Context, opts *ListOptions) (*ListModelsResponse, error) {
	var out ListModelsResponse
	if err := m.client.call(ctx, "list_models", http.MethodGet, "models", pageQuery(opts), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns one model.
func (m *Models) Get(ctx context.Context, model string) (*Model, error) {
	if model == "" {
		return nil, gkerrors.MissingField("model")
	}
	var out Model
	if err := m.client.call(ctx, "get_model", http.MethodGet, modelName(model), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

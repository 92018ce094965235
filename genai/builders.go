package genai

import (
	"strings"

	"github.com/kbukum/genaikit/validation"
)

// Ptr returns a pointer to v, for optional GenerationConfig fields.
func Ptr[T any](v T) *T { return &v }

// NewTextPart creates a text part.
func NewTextPart(text string) Part {
	return Part{Text: text}
}

// NewBlobPart creates an inline media part.
func NewBlobPart(mimeType string, data []byte) Part {
	return Part{InlineData: &Blob{MIMEType: mimeType, Data: data}}
}

// NewFileDataPart creates a part referencing an uploaded file.
func NewFileDataPart(mimeType, fileURI string) Part {
	return Part{FileData: &FileData{MIMEType: mimeType, FileURI: fileURI}}
}

// NewFunctionCallPart creates a function call part, used when replaying
// model turns.
func NewFunctionCallPart(name string, args map[string]any) Part {
	return Part{FunctionCall: &FunctionCall{Name: name, Args: args}}
}

// NewFunctionResponsePart creates a function result part.
func NewFunctionResponsePart(name string, response map[string]any) Part {
	return Part{FunctionResponse: &FunctionResponse{Name: name, Response: response}}
}

// NewUserContent creates a user turn.
func NewUserContent(parts ...Part) Content {
	return Content{Role: RoleUser, Parts: parts}
}

// NewModelContent creates a model turn.
func NewModelContent(parts ...Part) Content {
	return Content{Role: RoleModel, Parts: parts}
}

// Text creates a single user turn holding text.
func Text(text string) Content {
	return NewUserContent(NewTextPart(text))
}

// RequestOption customizes a GenerateContentRequest.
type RequestOption func(*GenerateContentRequest)

// WithSystemInstruction sets the system instruction.
func WithSystemInstruction(text string) RequestOption {
	return func(r *GenerateContentRequest) {
		r.SystemInstruction = &Content{Parts: []Part{NewTextPart(text)}}
	}
}

// WithGenerationConfig sets sampling and output options.
func WithGenerationConfig(cfg GenerationConfig) RequestOption {
	return func(r *GenerateContentRequest) { r.GenerationConfig = &cfg }
}

// WithSafetySettings appends safety settings.
func WithSafetySettings(settings ...SafetySetting) RequestOption {
	return func(r *GenerateContentRequest) {
		r.SafetySettings = append(r.SafetySettings, settings...)
	}
}

// WithTools appends tools and, when mode is set, the calling mode.
func WithTools(mode FunctionCallingMode, tools ...Tool) RequestOption {
	return func(r *GenerateContentRequest) {
		r.Tools = append(r.Tools, tools...)
		if mode != "" {
			r.ToolConfig = &ToolConfig{FunctionCallingConfig: &FunctionCallingConfig{Mode: mode}}
		}
	}
}

// WithCachedContent generates against a cache entry.
func WithCachedContent(name string) RequestOption {
	return func(r *GenerateContentRequest) { r.CachedContent = cachedContentName(name) }
}

// NewGenerateContentRequest builds a request from contents and options.
func NewGenerateContentRequest(contents []Content, opts ...RequestOption) *GenerateContentRequest {
	req := &GenerateContentRequest{Contents: contents}
	for _, opt := range opts {
		opt(req)
	}
	return req
}

// Validate checks the request before it is sent.
func (r *GenerateContentRequest) Validate() error {
	v := validation.New().NotEmpty("contents", len(r.Contents))
	for _, s := range r.SafetySettings {
		v.Required("safety_settings.category", string(s.Category)).
			Required("safety_settings.threshold", string(s.Threshold))
	}
	if gc := r.GenerationConfig; gc != nil {
		v.OptionalRange("generation_config.temperature", gc.Temperature, 0, 2).
			OptionalRange("generation_config.top_p", gc.TopP, 0, 1).
			OptionalMin("generation_config.candidate_count", gc.CandidateCount, 1).
			OptionalMin("generation_config.max_output_tokens", gc.MaxOutputTokens, 1)
	}
	return v.Validate()
}

// Text concatenates the text parts of the first candidate.
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// FunctionCalls returns the function calls requested by the first candidate.
func (r *GenerateContentResponse) FunctionCalls() []FunctionCall {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return nil
	}
	var calls []FunctionCall
	for _, p := range r.Candidates[0].Content.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

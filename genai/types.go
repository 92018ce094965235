package genai

// Content is one turn of a conversation.
type Content struct {
	Role  Role   `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is one piece of a Content. Exactly one field is expected to be set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	InlineData       *Blob             `json:"inlineData,omitempty"`
	FileData         *FileData         `json:"fileData,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// Blob is inline media. Data is base64 encoded on the wire.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// FileData references media uploaded through the Files API.
type FileData struct {
	MIMEType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

// FunctionCall is a model request to call a declared function.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries a function result back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// Schema describes function parameters and structured output.
type Schema struct {
	Type        SchemaType         `json:"type,omitempty"`
	Format      string             `json:"format,omitempty"`
	Description string             `json:"description,omitempty"`
	Nullable    bool               `json:"nullable,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// FunctionDeclaration declares a function the model may call.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// CodeExecution enables the built-in code execution tool.
type CodeExecution struct{}

// GoogleSearch enables grounding with Google Search.
type GoogleSearch struct{}

// Tool is a capability offered to the model.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
	CodeExecution        *CodeExecution        `json:"codeExecution,omitempty"`
	GoogleSearch         *GoogleSearch         `json:"googleSearch,omitempty"`
}

// FunctionCallingConfig constrains function calling.
type FunctionCallingConfig struct {
	Mode                 FunctionCallingMode `json:"mode,omitempty"`
	AllowedFunctionNames []string            `json:"allowedFunctionNames,omitempty"`
}

// ToolConfig configures tool use for a request.
type ToolConfig struct {
	FunctionCallingConfig *FunctionCallingConfig `json:"functionCallingConfig,omitempty"`
}

// SafetySetting sets the block threshold for one category.
type SafetySetting struct {
	Category  HarmCategory       `json:"category"`
	Threshold HarmBlockThreshold `json:"threshold"`
}

// GenerationConfig tunes sampling and output. Nil pointers are omitted so
// the server default applies.
type GenerationConfig struct {
	StopSequences    []string `json:"stopSequences,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema  `json:"responseSchema,omitempty"`
	CandidateCount   *int     `json:"candidateCount,omitempty"`
	MaxOutputTokens  *int     `json:"maxOutputTokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	TopK             *int     `json:"topK,omitempty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty"`
	Seed             *int     `json:"seed,omitempty"`
}

// GenerateContentRequest is the body of models.generateContent.
type GenerateContentRequest struct {
	// Model is only required when the request is nested in CountTokens.
	Model             string            `json:"model,omitempty"`
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	ToolConfig        *ToolConfig       `json:"toolConfig,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	CachedContent     string            `json:"cachedContent,omitempty"`
}

// SafetyRating is the safety verdict for one category.
type SafetyRating struct {
	Category    HarmCategory    `json:"category"`
	Probability HarmProbability `json:"probability"`
	Blocked     bool            `json:"blocked,omitempty"`
}

// CitationSource attributes a span of generated text.
type CitationSource struct {
	StartIndex int    `json:"startIndex,omitempty"`
	EndIndex   int    `json:"endIndex,omitempty"`
	URI        string `json:"uri,omitempty"`
	License    string `json:"license,omitempty"`
}

// CitationMetadata lists the sources cited by a candidate.
type CitationMetadata struct {
	CitationSources []CitationSource `json:"citationSources,omitempty"`
}

// Candidate is one generated response.
type Candidate struct {
	Content          *Content          `json:"content,omitempty"`
	FinishReason     FinishReason      `json:"finishReason,omitempty"`
	SafetyRatings    []SafetyRating    `json:"safetyRatings,omitempty"`
	CitationMetadata *CitationMetadata `json:"citationMetadata,omitempty"`
	TokenCount       int               `json:"tokenCount,omitempty"`
	AvgLogprobs      float64           `json:"avgLogprobs,omitempty"`
	Index            int               `json:"index"`
}

// PromptFeedback reports filtering applied to the prompt.
type PromptFeedback struct {
	BlockReason   BlockReason    `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

// UsageMetadata reports token usage for a request.
type UsageMetadata struct {
	PromptTokenCount        int `json:"promptTokenCount"`
	CachedContentTokenCount int `json:"cachedContentTokenCount,omitempty"`
	CandidatesTokenCount    int `json:"candidatesTokenCount"`
	TotalTokenCount         int `json:"totalTokenCount"`
}

// GenerateContentResponse is the result of models.generateContent.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

// CountTokensRequest is the body of models.countTokens. Set either Contents
// or GenerateContentRequest.
type CountTokensRequest struct {
	Contents               []Content               `json:"contents,omitempty"`
	GenerateContentRequest *GenerateContentRequest `json:"generateContentRequest,omitempty"`
}

// CountTokensResponse is the result of models.countTokens.
type CountTokensResponse struct {
	TotalTokens             int `json:"totalTokens"`
	CachedContentTokenCount int `json:"cachedContentTokenCount,omitempty"`
}

// EmbedContentRequest is the body of models.embedContent.
type EmbedContentRequest struct {
	Model                string   `json:"model,omitempty"`
	Content              Content  `json:"content"`
	TaskType             TaskType `json:"taskType,omitempty"`
	Title                string   `json:"title,omitempty"`
	OutputDimensionality *int     `json:"outputDimensionality,omitempty"`
}

// ContentEmbedding is an embedding vector.
type ContentEmbedding struct {
	Values []float32 `json:"values"`
}

// EmbedContentResponse is the result of models.embedContent.
type EmbedContentResponse struct {
	Embedding ContentEmbedding `json:"embedding"`
}

// BatchEmbedContentsRequest is the body of models.batchEmbedContents.
type BatchEmbedContentsRequest struct {
	Requests []EmbedContentRequest `json:"requests"`
}

// BatchEmbedContentsResponse is the result of models.batchEmbedContents.
type BatchEmbedContentsResponse struct {
	Embeddings []ContentEmbedding `json:"embeddings"`
}

// Model describes a model available to the caller.
type Model struct {
	Name                       string   `json:"name"`
	BaseModelID                string   `json:"baseModelId,omitempty"`
	Version                    string   `json:"version,omitempty"`
	DisplayName                string   `json:"displayName,omitempty"`
	Description                string   `json:"description,omitempty"`
	InputTokenLimit            int      `json:"inputTokenLimit,omitempty"`
	OutputTokenLimit           int      `json:"outputTokenLimit,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
	Temperature                *float64 `json:"temperature,omitempty"`
	MaxTemperature             *float64 `json:"maxTemperature,omitempty"`
	TopP                       *float64 `json:"topP,omitempty"`
	TopK                       *int     `json:"topK,omitempty"`
}

// ListModelsResponse is one page of models.
type ListModelsResponse struct {
	Models        []Model `json:"models"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// ListOptions pages through a collection.
type ListOptions struct {
	PageSize  int
	PageToken string
}

// CachedContentUsage reports the size of a cache entry.
type CachedContentUsage struct {
	TotalTokenCount int `json:"totalTokenCount"`
}

// CachedContent is preprocessed content reusable across requests.
// TTL uses the protobuf duration form, e.g. "300s".
type CachedContent struct {
	Name              string              `json:"name,omitempty"`
	DisplayName       string              `json:"displayName,omitempty"`
	Model             string              `json:"model,omitempty"`
	SystemInstruction *Content            `json:"systemInstruction,omitempty"`
	Contents          []Content           `json:"contents,omitempty"`
	Tools             []Tool              `json:"tools,omitempty"`
	ToolConfig        *ToolConfig         `json:"toolConfig,omitempty"`
	TTL               string              `json:"ttl,omitempty"`
	ExpireTime        string              `json:"expireTime,omitempty"`
	CreateTime        string              `json:"createTime,omitempty"`
	UpdateTime        string              `json:"updateTime,omitempty"`
	UsageMetadata     *CachedContentUsage `json:"usageMetadata,omitempty"`
}

// CachedContentUpdate changes the expiration of a cache entry. Set either
// TTL or ExpireTime.
type CachedContentUpdate struct {
	TTL        string `json:"ttl,omitempty"`
	ExpireTime string `json:"expireTime,omitempty"`
}

// ListCachedContentsResponse is one page of cache entries.
type ListCachedContentsResponse struct {
	CachedContents []CachedContent `json:"cachedContents"`
	NextPageToken  string          `json:"nextPageToken,omitempty"`
}

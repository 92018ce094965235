package genai

// Role identifies the author of a Content.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// HarmCategory is a safety filter category.
type HarmCategory string

const (
	HarmCategoryUnspecified      HarmCategory = "HARM_CATEGORY_UNSPECIFIED"
	HarmCategoryHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmCategoryHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmCategorySexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCategoryDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
	HarmCategoryCivicIntegrity   HarmCategory = "HARM_CATEGORY_CIVIC_INTEGRITY"
)

// HarmBlockThreshold is the probability at which content gets blocked.
type HarmBlockThreshold string

const (
	HarmBlockThresholdUnspecified HarmBlockThreshold = "HARM_BLOCK_THRESHOLD_UNSPECIFIED"
	BlockLowAndAbove              HarmBlockThreshold = "BLOCK_LOW_AND_ABOVE"
	BlockMediumAndAbove           HarmBlockThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	BlockOnlyHigh                 HarmBlockThreshold = "BLOCK_ONLY_HIGH"
	BlockNone                     HarmBlockThreshold = "BLOCK_NONE"
	BlockOff                      HarmBlockThreshold = "OFF"
)

// HarmProbability is the likelihood that content is harmful.
type HarmProbability string

const (
	HarmProbabilityUnspecified HarmProbability = "HARM_PROBABILITY_UNSPECIFIED"
	HarmProbabilityNegligible  HarmProbability = "NEGLIGIBLE"
	HarmProbabilityLow         HarmProbability = "LOW"
	HarmProbabilityMedium      HarmProbability = "MEDIUM"
	HarmProbabilityHigh        HarmProbability = "HIGH"
)

// FinishReason says why the model stopped generating.
type FinishReason string

const (
	FinishReasonUnspecified           FinishReason = "FINISH_REASON_UNSPECIFIED"
	FinishReasonStop                  FinishReason = "STOP"
	FinishReasonMaxTokens             FinishReason = "MAX_TOKENS"
	FinishReasonSafety                FinishReason = "SAFETY"
	FinishReasonRecitation            FinishReason = "RECITATION"
	FinishReasonLanguage              FinishReason = "LANGUAGE"
	FinishReasonOther                 FinishReason = "OTHER"
	FinishReasonBlocklist             FinishReason = "BLOCKLIST"
	FinishReasonProhibitedContent     FinishReason = "PROHIBITED_CONTENT"
	FinishReasonSPII                  FinishReason = "SPII"
	FinishReasonMalformedFunctionCall FinishReason = "MALFORMED_FUNCTION_CALL"
)

// BlockReason says why a prompt was blocked.
type BlockReason string

const (
	BlockReasonUnspecified       BlockReason = "BLOCK_REASON_UNSPECIFIED"
	BlockReasonSafety            BlockReason = "SAFETY"
	BlockReasonOther             BlockReason = "OTHER"
	BlockReasonBlocklist         BlockReason = "BLOCKLIST"
	BlockReasonProhibitedContent BlockReason = "PROHIBITED_CONTENT"
)

// TaskType hints how an embedding will be used.
type TaskType string

const (
	TaskTypeUnspecified        TaskType = "TASK_TYPE_UNSPECIFIED"
	TaskTypeRetrievalQuery     TaskType = "RETRIEVAL_QUERY"
	TaskTypeRetrievalDocument  TaskType = "RETRIEVAL_DOCUMENT"
	TaskTypeSemanticSimilarity TaskType = "SEMANTIC_SIMILARITY"
	TaskTypeClassification     TaskType = "CLASSIFICATION"
	TaskTypeClustering         TaskType = "CLUSTERING"
	TaskTypeQuestionAnswering  TaskType = "QUESTION_ANSWERING"
	TaskTypeFactVerification   TaskType = "FACT_VERIFICATION"
)

// FunctionCallingMode controls whether the model may call functions.
type FunctionCallingMode string

const (
	FunctionCallingModeUnspecified FunctionCallingMode = "MODE_UNSPECIFIED"
	FunctionCallingAuto            FunctionCallingMode = "AUTO"
	FunctionCallingAny             FunctionCallingMode = "ANY"
	FunctionCallingNone            FunctionCallingMode = "NONE"
)

// SchemaType is the OpenAPI subset type of a Schema node.
type SchemaType string

const (
	TypeString  SchemaType = "STRING"
	TypeNumber  SchemaType = "NUMBER"
	TypeInteger SchemaType = "INTEGER"
	TypeBoolean SchemaType = "BOOLEAN"
	TypeArray   SchemaType = "ARRAY"
	TypeObject  SchemaType = "OBJECT"
)

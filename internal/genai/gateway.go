// Package genai provides a provider-agnostic gateway to the external
// generation service that analyzes uploads and produces curriculum modules
// and assessment questions.
package genai

import "context"

// TaskType defines the kind of generation task for routing and logging.
type TaskType int

const (
	TaskAnalysis TaskType = iota
	TaskModules
	TaskQuestions
)

func (t TaskType) String() string {
	switch t {
	case TaskAnalysis:
		return "analysis"
	case TaskModules:
		return "modules"
	case TaskQuestions:
		return "questions"
	default:
		return "unknown"
	}
}

// Message represents a chat message sent to a completion provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a provider completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`
}

// CompletionResponse is the output from a provider completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// Provider is the interface all completion providers must implement.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}

// AnalyzeRequest describes one upload to analyze.
type AnalyzeRequest struct {
	UploadID  string `json:"upload_id"`
	Name      string `json:"name"`
	MediaKind string `json:"media_kind"`
	SizeBytes int64  `json:"size_bytes"`
	Excerpt   string `json:"excerpt,omitempty"` // extracted text sample, if available
}

// RawAnalysis is the untrusted per-upload analysis returned by the service.
type RawAnalysis struct {
	KeyTopics             []string `json:"key_topics"`
	Difficulty            int      `json:"difficulty"`
	EstimatedReadMinutes  int      `json:"estimated_read_minutes"`
	LearningObjectives    []string `json:"learning_objectives"`
	Prerequisites         []string `json:"prerequisites"`
	SuggestedModuleTitles []string `json:"suggested_module_titles"`
}

// ModulesRequest asks the service to propose curriculum modules.
type ModulesRequest struct {
	KeyTopics          []string `json:"key_topics"`
	LearningObjectives []string `json:"learning_objectives"`
	Difficulty         int      `json:"difficulty"`
	IndustryHint       string   `json:"industry_hint,omitempty"`
	ModuleCount        int      `json:"module_count"`
}

// ModuleProposal is one proposed module. The service may return fewer or more
// proposals than requested.
type ModuleProposal struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	DurationMinutes    int      `json:"duration_minutes"`
	Difficulty         string   `json:"difficulty"`
	LearningObjectives []string `json:"learning_objectives"`
}

// TypeDistribution is an optional question-type mix for generation requests.
type TypeDistribution struct {
	SingleChoice    int `json:"single_choice"`
	TrueFalse       int `json:"true_false"`
	MultipleCorrect int `json:"multiple_correct"`
}

// QuestionsRequest asks the service to generate assessment questions from content.
type QuestionsRequest struct {
	Content      string            `json:"content"`
	Count        int               `json:"count"`
	Distribution *TypeDistribution `json:"distribution,omitempty"`
}

// RawQuestion is an untrusted question payload. Kind may be absent; the
// correct answer may arrive as a string, number, boolean, or array.
type RawQuestion struct {
	Kind          string   `json:"kind,omitempty"`
	Text          string   `json:"text"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer any      `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Points        int      `json:"points,omitempty"`
}

// Service is the contract the curriculum pipeline consumes. Implementations
// may fail with transport or validation errors; the pipeline absorbs or
// surfaces those per its own policy.
type Service interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (RawAnalysis, error)
	AnalyzeURL(ctx context.Context, url string) (RawAnalysis, error)
	GenerateModules(ctx context.Context, req ModulesRequest) ([]ModuleProposal, error)
	GenerateQuestions(ctx context.Context, req QuestionsRequest) ([]RawQuestion, error)
}

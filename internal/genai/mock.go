package genai

import "context"

// MockProvider is a test double for completion providers.
type MockProvider struct {
	Response    string
	Err         error
	LastRequest *CompletionRequest // captures the last request for inspection
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.LastRequest = &req
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}
	return CompletionResponse{
		Content:      m.Response,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(m.Response),
	}, nil
}

func (m *MockProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "mock", Name: "Mock Model", MaxTokens: 4096, Description: "Test mock"},
	}
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}

// MockService is a test double for the full generation Service.
type MockService struct {
	Analysis     RawAnalysis
	AnalysisErr  error
	Modules      []ModuleProposal
	ModulesErr   error
	Questions    []RawQuestion
	QuestionsErr error

	// QuestionsFunc, when set, overrides Questions/QuestionsErr per call.
	QuestionsFunc func(req QuestionsRequest) ([]RawQuestion, error)

	AnalyzeCalls         []AnalyzeRequest
	LastModulesRequest   *ModulesRequest
	LastQuestionsRequest *QuestionsRequest
	QuestionsCallCount   int
}

func (m *MockService) Analyze(_ context.Context, req AnalyzeRequest) (RawAnalysis, error) {
	m.AnalyzeCalls = append(m.AnalyzeCalls, req)
	if m.AnalysisErr != nil {
		return RawAnalysis{}, m.AnalysisErr
	}
	return m.Analysis, nil
}

func (m *MockService) AnalyzeURL(_ context.Context, url string) (RawAnalysis, error) {
	if m.AnalysisErr != nil {
		return RawAnalysis{}, m.AnalysisErr
	}
	return m.Analysis, nil
}

func (m *MockService) GenerateModules(_ context.Context, req ModulesRequest) ([]ModuleProposal, error) {
	m.LastModulesRequest = &req
	if m.ModulesErr != nil {
		return nil, m.ModulesErr
	}
	return m.Modules, nil
}

func (m *MockService) GenerateQuestions(_ context.Context, req QuestionsRequest) ([]RawQuestion, error) {
	m.LastQuestionsRequest = &req
	m.QuestionsCallCount++
	if m.QuestionsFunc != nil {
		return m.QuestionsFunc(req)
	}
	if m.QuestionsErr != nil {
		return nil, m.QuestionsErr
	}
	return m.Questions, nil
}

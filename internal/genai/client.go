package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrBudgetExhausted is returned when the session's token budget has run out.
// Callers treat it like any other generation failure.
var ErrBudgetExhausted = errors.New("generation token budget exhausted")

// Client implements Service on top of a provider Router. It prompts the
// underlying completion providers, extracts the JSON payload from their
// replies, and validates it against a schema before decoding.
type Client struct {
	router  *Router
	budget  BudgetChecker
	session string
	model   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBudget attaches a token budget checked before every request.
func WithBudget(budget BudgetChecker, sessionID string) ClientOption {
	return func(c *Client) {
		c.budget = budget
		c.session = sessionID
	}
}

// WithModel pins all requests to a specific model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// NewClient creates a generation client over the given router.
func NewClient(router *Router, opts ...ClientOption) *Client {
	c := &Client{router: router}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const analyzeSystemPrompt = `You analyze training source material and reply with JSON only, no prose.
Reply with one JSON object:
{"key_topics": [..], "difficulty": 1-10, "estimated_read_minutes": int,
 "learning_objectives": [..], "prerequisites": [..], "suggested_module_titles": [..]}`

func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (RawAnalysis, error) {
	prompt := fmt.Sprintf("Analyze this uploaded material.\nName: %s\nMedia kind: %s\nSize: %d bytes",
		req.Name, req.MediaKind, req.SizeBytes)
	if req.Excerpt != "" {
		prompt += "\nExcerpt:\n" + req.Excerpt
	}

	payload, err := c.complete(ctx, TaskAnalysis, analyzeSystemPrompt, prompt, 1024)
	if err != nil {
		return RawAnalysis{}, err
	}
	return decodeAnalysis(payload)
}

func (c *Client) AnalyzeURL(ctx context.Context, url string) (RawAnalysis, error) {
	prompt := "Analyze the training material at this URL: " + url

	payload, err := c.complete(ctx, TaskAnalysis, analyzeSystemPrompt, prompt, 1024)
	if err != nil {
		return RawAnalysis{}, err
	}
	return decodeAnalysis(payload)
}

func (c *Client) GenerateModules(ctx context.Context, req ModulesRequest) ([]ModuleProposal, error) {
	system := fmt.Sprintf(`You design training curricula and reply with JSON only, no prose.
Reply with a JSON array of exactly %d module objects:
[{"title": str, "description": str, "duration_minutes": int,
  "difficulty": "beginner"|"intermediate"|"advanced", "learning_objectives": [..]}]`,
		req.ModuleCount)

	var b strings.Builder
	fmt.Fprintf(&b, "Propose %d curriculum modules.\n", req.ModuleCount)
	if req.IndustryHint != "" {
		fmt.Fprintf(&b, "Industry: %s\n", req.IndustryHint)
	}
	if req.Difficulty > 0 {
		fmt.Fprintf(&b, "Overall difficulty: %d/10\n", req.Difficulty)
	}
	if len(req.KeyTopics) > 0 {
		fmt.Fprintf(&b, "Key topics: %s\n", strings.Join(req.KeyTopics, ", "))
	}
	if len(req.LearningObjectives) > 0 {
		fmt.Fprintf(&b, "Learning objectives: %s\n", strings.Join(req.LearningObjectives, "; "))
	}

	payload, err := c.complete(ctx, TaskModules, system, b.String(), 2048)
	if err != nil {
		return nil, err
	}

	if err := validateJSON(modulesSchema, payload); err != nil {
		return nil, fmt.Errorf("modules payload: %w", err)
	}

	var proposals []ModuleProposal
	if err := json.Unmarshal([]byte(payload), &proposals); err != nil {
		return nil, fmt.Errorf("decode modules payload: %w", err)
	}
	return proposals, nil
}

func (c *Client) GenerateQuestions(ctx context.Context, req QuestionsRequest) ([]RawQuestion, error) {
	system := `You write assessment questions and reply with JSON only, no prose.
Reply with a JSON array of question objects:
[{"kind": "single-choice"|"true-false"|"multiple-correct", "text": str,
  "options": [..], "correct_answer": index|[indices]|bool, "explanation": str, "points": int}]`

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d assessment questions from this content.\n", req.Count)
	if d := req.Distribution; d != nil {
		fmt.Fprintf(&b, "Type mix: %d single-choice, %d true-false, %d multiple-correct.\n",
			d.SingleChoice, d.TrueFalse, d.MultipleCorrect)
	}
	b.WriteString("Content:\n")
	b.WriteString(req.Content)

	payload, err := c.complete(ctx, TaskQuestions, system, b.String(), 4096)
	if err != nil {
		return nil, err
	}

	if err := validateJSON(questionsSchema, payload); err != nil {
		return nil, fmt.Errorf("questions payload: %w", err)
	}

	var questions []RawQuestion
	if err := json.Unmarshal([]byte(payload), &questions); err != nil {
		return nil, fmt.Errorf("decode questions payload: %w", err)
	}
	return questions, nil
}

// complete runs one budgeted completion and returns the extracted JSON payload.
func (c *Client) complete(ctx context.Context, task TaskType, system, user string, maxTokens int) (string, error) {
	if c.budget != nil {
		ok, err := c.budget.Check(c.session)
		if err != nil {
			return "", fmt.Errorf("check budget: %w", err)
		}
		if !ok {
			return "", ErrBudgetExhausted
		}
	}

	resp, err := c.router.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Model:     c.model,
		Task:      task,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	if c.budget != nil {
		if err := c.budget.Record(c.session, resp.TotalTokens()); err != nil {
			slog.Warn("failed to record token usage", "error", err)
		}
	}

	payload := ExtractJSON(resp.Content)
	if payload == "" {
		return "", fmt.Errorf("no JSON payload in %s response", task.String())
	}
	return payload, nil
}

func decodeAnalysis(payload string) (RawAnalysis, error) {
	if err := validateJSON(analysisSchema, payload); err != nil {
		return RawAnalysis{}, fmt.Errorf("analysis payload: %w", err)
	}
	var analysis RawAnalysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return RawAnalysis{}, fmt.Errorf("decode analysis payload: %w", err)
	}
	return analysis, nil
}

// ExtractJSON pulls the first JSON value (object or array) out of a model
// reply, tolerating markdown code fences and surrounding prose.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)

	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			content = strings.TrimSpace(rest[:end])
		}
	}

	start := -1
	for i, r := range content {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	open := content[start]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == closer:
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

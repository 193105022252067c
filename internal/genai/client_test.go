package genai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/courseforge/courseforge/internal/genai"
)

func newTestClient(response string, opts ...genai.ClientOption) (*genai.Client, *genai.MockProvider) {
	router := genai.NewRouter()
	mock := genai.NewMockProvider(response)
	router.Register("mock", mock)
	return genai.NewClient(router, opts...), mock
}

func TestClient_Analyze(t *testing.T) {
	payload := `{"key_topics": ["go", "testing"], "difficulty": 4,
		"estimated_read_minutes": 25, "learning_objectives": ["write tests"],
		"prerequisites": ["basic go"], "suggested_module_titles": ["Testing 101"]}`
	client, mock := newTestClient(payload)

	analysis, err := client.Analyze(context.Background(), genai.AnalyzeRequest{
		UploadID:  "u1",
		Name:      "testing.pdf",
		MediaKind: "document",
		SizeBytes: 1024,
	})

	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(analysis.KeyTopics) != 2 || analysis.KeyTopics[0] != "go" {
		t.Errorf("KeyTopics = %v", analysis.KeyTopics)
	}
	if analysis.Difficulty != 4 {
		t.Errorf("Difficulty = %d, want 4", analysis.Difficulty)
	}
	if analysis.EstimatedReadMinutes != 25 {
		t.Errorf("EstimatedReadMinutes = %d, want 25", analysis.EstimatedReadMinutes)
	}
	if mock.LastRequest == nil || len(mock.LastRequest.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %+v", mock.LastRequest)
	}
}

func TestClient_Analyze_InvalidPayload(t *testing.T) {
	// Missing required fields must fail validation, not decode half a struct.
	client, _ := newTestClient(`{"key_topics": ["go"]}`)

	_, err := client.Analyze(context.Background(), genai.AnalyzeRequest{Name: "x"})
	if err == nil {
		t.Fatal("Analyze() should reject payload missing required fields")
	}
}

func TestClient_GenerateModules_StripsCodeFence(t *testing.T) {
	response := "Here you go:\n```json\n" +
		`[{"title": "Core Concepts", "duration_minutes": 45, "difficulty": "beginner"}]` +
		"\n```\nLet me know if you need more."
	client, _ := newTestClient(response)

	proposals, err := client.GenerateModules(context.Background(), genai.ModulesRequest{ModuleCount: 1})
	if err != nil {
		t.Fatalf("GenerateModules() error = %v", err)
	}
	if len(proposals) != 1 || proposals[0].Title != "Core Concepts" {
		t.Errorf("proposals = %+v", proposals)
	}
	if proposals[0].DurationMinutes != 45 {
		t.Errorf("DurationMinutes = %d, want 45", proposals[0].DurationMinutes)
	}
}

func TestClient_GenerateQuestions(t *testing.T) {
	response := `[
		{"kind": "true-false", "text": "Go has generics.", "options": ["True", "False"],
		 "correct_answer": true, "explanation": "Since 1.18.", "points": 5},
		{"kind": "multiple-correct", "text": "Pick the Go keywords.",
		 "options": ["func", "lambda", "defer"], "correct_answer": [0, 2]}
	]`
	client, _ := newTestClient(response)

	questions, err := client.GenerateQuestions(context.Background(), genai.QuestionsRequest{
		Content: "Go language notes",
		Count:   2,
	})
	if err != nil {
		t.Fatalf("GenerateQuestions() error = %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("len(questions) = %d, want 2", len(questions))
	}
	if questions[0].Kind != "true-false" {
		t.Errorf("Kind = %q, want true-false", questions[0].Kind)
	}
	if v, ok := questions[0].CorrectAnswer.(bool); !ok || !v {
		t.Errorf("CorrectAnswer = %v, want true", questions[0].CorrectAnswer)
	}
	if _, ok := questions[1].CorrectAnswer.([]any); !ok {
		t.Errorf("CorrectAnswer = %T, want array", questions[1].CorrectAnswer)
	}
}

func TestClient_GenerateQuestions_NoJSON(t *testing.T) {
	client, _ := newTestClient("Sorry, I can't help with that.")

	_, err := client.GenerateQuestions(context.Background(), genai.QuestionsRequest{Count: 3})
	if err == nil {
		t.Fatal("GenerateQuestions() should fail when the reply has no JSON")
	}
}

func TestClient_BudgetExhausted(t *testing.T) {
	budget := genai.NewInMemoryBudget()
	budget.SetBudget("s1", 1)
	budget.Record("s1", 10)

	client, mock := newTestClient(`[]`, genai.WithBudget(budget, "s1"))

	_, err := client.GenerateQuestions(context.Background(), genai.QuestionsRequest{Count: 1})
	if !errors.Is(err, genai.ErrBudgetExhausted) {
		t.Fatalf("err = %v, want ErrBudgetExhausted", err)
	}
	if mock.LastRequest != nil {
		t.Error("provider should not be called once the budget is exhausted")
	}
}

func TestClient_BudgetRecordsUsage(t *testing.T) {
	budget := genai.NewInMemoryBudget()
	budget.SetBudget("s1", 1000)

	client, _ := newTestClient(`[{"title": "M1"}]`, genai.WithBudget(budget, "s1"))

	if _, err := client.GenerateModules(context.Background(), genai.ModulesRequest{ModuleCount: 1}); err != nil {
		t.Fatalf("GenerateModules() error = %v", err)
	}

	used, _, err := budget.Usage("s1")
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	if used == 0 {
		t.Error("token usage should be recorded after a completion")
	}
}

func TestClient_WithModel(t *testing.T) {
	client, mock := newTestClient(`[]`, genai.WithModel("gpt-4o"))

	if _, err := client.GenerateQuestions(context.Background(), genai.QuestionsRequest{Count: 1}); err != nil {
		t.Fatalf("GenerateQuestions() error = %v", err)
	}
	if mock.LastRequest.Model != "gpt-4o" {
		t.Errorf("Model = %q, want gpt-4o", mock.LastRequest.Model)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"bare array", `[1, 2]`, `[1, 2]`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around", `Sure! {"a": {"b": 2}} hope that helps`, `{"a": {"b": 2}}`},
		{"braces in strings", `{"a": "close }"}`, `{"a": "close }"}`},
		{"escaped quotes", `{"a": "say \"hi\""}`, `{"a": "say \"hi\""}`},
		{"no json", "nothing here", ""},
		{"unbalanced", `{"a": 1`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := genai.ExtractJSON(tt.content); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

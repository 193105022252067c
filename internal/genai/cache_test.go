package genai_test

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/courseforge/courseforge/internal/genai"
)

// An unreachable Redis must never break analysis, only disable caching.
func TestCachedAnalyzer_DegradesWithoutCache(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { client.Close() })

	mock := &genai.MockService{
		Analysis: genai.RawAnalysis{KeyTopics: []string{"go"}, Difficulty: 3},
	}
	cached := genai.NewCachedAnalyzer(mock, client)

	analysis, err := cached.Analyze(context.Background(), genai.AnalyzeRequest{UploadID: "u1", Name: "a.pdf"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(analysis.KeyTopics) != 1 || analysis.KeyTopics[0] != "go" {
		t.Errorf("analysis = %+v, want the underlying service result", analysis)
	}
	if len(mock.AnalyzeCalls) != 1 {
		t.Errorf("underlying Analyze called %d times, want 1", len(mock.AnalyzeCalls))
	}
}

func TestCachedAnalyzer_PropagatesServiceError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { client.Close() })

	mock := &genai.MockService{AnalysisErr: context.DeadlineExceeded}
	cached := genai.NewCachedAnalyzer(mock, client)

	if _, err := cached.Analyze(context.Background(), genai.AnalyzeRequest{UploadID: "u1"}); err == nil {
		t.Fatal("Analyze() should propagate the underlying error")
	}
}

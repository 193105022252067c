package curriculum_test

import (
	"context"
	"errors"
	"testing"

	"github.com/courseforge/courseforge/internal/curriculum"
	"github.com/courseforge/courseforge/internal/genai"
)

func rawQuestions(n int) []genai.RawQuestion {
	raws := make([]genai.RawQuestion, n)
	for i := range raws {
		raws[i] = genai.RawQuestion{
			Kind:          "single-choice",
			Text:          "Q?",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: 0.0,
		}
	}
	return raws
}

func TestGenerate_ScoringFromActualSet(t *testing.T) {
	gen := curriculum.NewGenerator(&genai.MockService{Questions: rawQuestions(4)})

	a, err := gen.Generate(context.Background(), curriculum.AssessmentRequest{
		Title: "Quiz",
		Role:  curriculum.RoleModuleQuiz,
		Count: 4,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// Four questions at the 10-point default: pass mark 28, time limit 8.
	if a.TotalPoints() != 40 {
		t.Errorf("TotalPoints() = %d, want 40", a.TotalPoints())
	}
	if a.PassingScore != 28 {
		t.Errorf("PassingScore = %d, want 28", a.PassingScore)
	}
	if a.TimeLimitMinutes != 8 {
		t.Errorf("TimeLimitMinutes = %d, want 8", a.TimeLimitMinutes)
	}
}

func TestGenerate_QuizShortfallAccepted(t *testing.T) {
	gen := curriculum.NewGenerator(&genai.MockService{Questions: rawQuestions(2)})

	a, err := gen.Generate(context.Background(), curriculum.AssessmentRequest{
		Title: "Quiz",
		Role:  curriculum.RoleModuleQuiz,
		Count: 5,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v, quiz shortfall must be absorbed", err)
	}
	if len(a.Questions) != 2 {
		t.Errorf("len(Questions) = %d, want 2", len(a.Questions))
	}
	// Scoring derives from what came back, not what was asked for.
	if a.TimeLimitMinutes != 4 {
		t.Errorf("TimeLimitMinutes = %d, want 4", a.TimeLimitMinutes)
	}
}

func TestGenerate_FinalExamShortfallSurfaced(t *testing.T) {
	gen := curriculum.NewGenerator(&genai.MockService{Questions: rawQuestions(3)})

	a, err := gen.Generate(context.Background(), curriculum.AssessmentRequest{
		Title: "Final Exam",
		Role:  curriculum.RoleFinalExam,
		Count: 10,
	})

	if !curriculum.IsShortfall(err) {
		t.Fatalf("err = %v, want *ShortfallError", err)
	}
	var shortfall *curriculum.ShortfallError
	errors.As(err, &shortfall)
	if shortfall.Requested != 10 || shortfall.Returned != 3 {
		t.Errorf("shortfall = %+v", shortfall)
	}
	// The exam is still usable; the caller decides whether to retry.
	if len(a.Questions) != 3 {
		t.Errorf("len(Questions) = %d, want 3", len(a.Questions))
	}
}

func TestGenerate_QuizFallbackOnFailure(t *testing.T) {
	gen := curriculum.NewGenerator(&genai.MockService{QuestionsErr: errors.New("upstream down")})

	a, err := gen.Generate(context.Background(), curriculum.AssessmentRequest{
		Title:              "Quiz",
		Role:               curriculum.RoleModuleQuiz,
		Count:              5,
		LearningObjectives: []string{"o1", "o2", "o3"},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v, quiz failure must fall back", err)
	}
	if len(a.Questions) != 3 {
		t.Fatalf("len(Questions) = %d, want one per objective", len(a.Questions))
	}
	for _, q := range a.Questions {
		if q.Kind != curriculum.KindSingleChoice {
			t.Errorf("fallback Kind = %q, want single-choice", q.Kind)
		}
		if len(q.Options) != 4 {
			t.Errorf("fallback options = %d, want 4", len(q.Options))
		}
		if q.Correct.Index != 0 {
			t.Errorf("fallback Correct.Index = %d, want 0", q.Correct.Index)
		}
	}
	if a.PassingScore != 21 {
		t.Errorf("PassingScore = %d, want 21", a.PassingScore)
	}
}

func TestGenerate_FallbackCapsAtEight(t *testing.T) {
	objectives := make([]string, 12)
	for i := range objectives {
		objectives[i] = "objective"
	}
	gen := curriculum.NewGenerator(&genai.MockService{QuestionsErr: errors.New("down")})

	a, _ := gen.Generate(context.Background(), curriculum.AssessmentRequest{
		Title:              "Quiz",
		Role:               curriculum.RoleModuleQuiz,
		LearningObjectives: objectives,
	})
	if len(a.Questions) != 8 {
		t.Errorf("len(Questions) = %d, want 8", len(a.Questions))
	}
}

func TestGenerate_FinalExamFailureIsHard(t *testing.T) {
	gen := curriculum.NewGenerator(&genai.MockService{QuestionsErr: errors.New("upstream down")})

	_, err := gen.Generate(context.Background(), curriculum.AssessmentRequest{
		Title: "Final Exam",
		Role:  curriculum.RoleFinalExam,
		Count: 10,
	})
	if !errors.Is(err, curriculum.ErrFinalExamGeneration) {
		t.Fatalf("err = %v, want ErrFinalExamGeneration", err)
	}
}

func TestNormalizeQuestion_TrueFalseCanonicalOptions(t *testing.T) {
	q := curriculum.NormalizeQuestion(genai.RawQuestion{
		Kind:          "true-false",
		Text:          "Water is wet.",
		Options:       []string{"Yep", "Nope"},
		CorrectAnswer: true,
	})

	if q.Kind != curriculum.KindTrueFalse {
		t.Fatalf("Kind = %q", q.Kind)
	}
	if len(q.Options) != 2 || q.Options[0] != "True" || q.Options[1] != "False" {
		t.Errorf("Options = %v, want canonical True/False", q.Options)
	}
	if q.Correct.Index != 0 {
		t.Errorf("Correct.Index = %d, want 0", q.Correct.Index)
	}
	if q.Points != 10 {
		t.Errorf("Points = %d, want 10 default", q.Points)
	}
	if q.ID == "" {
		t.Error("ID should be assigned")
	}
}

func TestQuestionAward(t *testing.T) {
	single := curriculum.Question{Kind: curriculum.KindSingleChoice, Correct: curriculum.Answer{Index: 2}, Points: 10}
	if got := single.Award(curriculum.Answer{Index: 2}); got != 10 {
		t.Errorf("Award(correct) = %d, want 10", got)
	}
	if got := single.Award(curriculum.Answer{Index: 1}); got != 0 {
		t.Errorf("Award(wrong) = %d, want 0", got)
	}

	multi := curriculum.Question{Kind: curriculum.KindMultipleCorrect, Correct: curriculum.Answer{Indices: []int{0, 2}}, Points: 10}
	if got := multi.Award(curriculum.Answer{Indices: []int{2, 0}}); got != 10 {
		t.Errorf("Award(set equal, different order) = %d, want 10", got)
	}
	if got := multi.Award(curriculum.Answer{Indices: []int{0}}); got != 0 {
		t.Errorf("Award(subset) = %d, want 0 (no partial credit)", got)
	}
	if got := multi.Award(curriculum.Answer{Indices: []int{0, 1, 2}}); got != 0 {
		t.Errorf("Award(superset) = %d, want 0", got)
	}
}

func TestAssessmentScore(t *testing.T) {
	a := curriculum.Assessment{
		PassingScore: 14,
		Questions: []curriculum.Question{
			{ID: "q1", Kind: curriculum.KindSingleChoice, Correct: curriculum.Answer{Index: 0}, Points: 10},
			{ID: "q2", Kind: curriculum.KindSingleChoice, Correct: curriculum.Answer{Index: 1}, Points: 10},
		},
	}

	points, passed := a.Score(map[string]curriculum.Answer{
		"q1": {Index: 0},
		"q2": {Index: 0},
	})
	if points != 10 || passed {
		t.Errorf("Score() = (%d, %v), want (10, false)", points, passed)
	}

	points, passed = a.Score(map[string]curriculum.Answer{
		"q1": {Index: 0},
		"q2": {Index: 1},
	})
	if points != 20 || !passed {
		t.Errorf("Score() = (%d, %v), want (20, true)", points, passed)
	}
}

func TestPassingScore(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{0, 0},
		{10, 7},
		{45, 32},
		{50, 35},
		{100, 70},
	}

	for _, tt := range tests {
		if got := curriculum.PassingScore(tt.total); got != tt.want {
			t.Errorf("PassingScore(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

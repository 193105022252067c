package curriculum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/courseforge/courseforge/internal/genai"
)

const (
	defaultQuestionPoints = 10
	passingRatio          = 0.7
	minutesPerQuestion    = 2
	maxFallbackQuestions  = 8
)

// Generator produces scored, typed assessments from the external
// question-generation service, with a deterministic fallback for module
// quizzes.
type Generator struct {
	svc genai.Service
}

// NewGenerator creates an assessment generator.
func NewGenerator(svc genai.Service) *Generator {
	return &Generator{svc: svc}
}

// AssessmentRequest describes one assessment to generate.
type AssessmentRequest struct {
	Title        string
	Role         AssessmentRole
	Content      string // module or curriculum content fed to the service
	Count        int    // requested question count, never guaranteed
	Distribution *genai.TypeDistribution
	// LearningObjectives drive the generic fallback for module quizzes.
	LearningObjectives []string
}

// Generate requests questions from the service and normalizes them into an
// Assessment. The returned count may be short of the request: module quizzes
// accept the shortfall with a warning log; for the final exam the assessment
// is returned together with a *ShortfallError so the caller can decide
// whether to retry. If the service call fails outright, module quizzes fall
// back to one generic question per learning objective; final-exam failure is
// a hard error wrapping ErrFinalExamGeneration.
func (g *Generator) Generate(ctx context.Context, req AssessmentRequest) (Assessment, error) {
	raws, err := g.svc.GenerateQuestions(ctx, genai.QuestionsRequest{
		Content:      req.Content,
		Count:        req.Count,
		Distribution: req.Distribution,
	})
	if err != nil {
		if req.Role == RoleFinalExam {
			return Assessment{}, fmt.Errorf("%w: %w", ErrFinalExamGeneration, err)
		}
		slog.Warn("question generation failed, using generic fallback questions",
			"assessment", req.Title,
			"error", err,
		)
		return g.fallbackQuiz(req), nil
	}

	questions := make([]Question, 0, len(raws))
	for _, raw := range raws {
		questions = append(questions, NormalizeQuestion(raw))
	}

	assessment := finalizeAssessment(req.Title, req.Role, questions)

	if len(questions) < req.Count {
		shortfall := &ShortfallError{
			Role:      req.Role,
			Requested: req.Count,
			Returned:  len(questions),
		}
		if req.Role == RoleFinalExam {
			return assessment, shortfall
		}
		slog.Warn("question count shortfall accepted",
			"assessment", req.Title,
			"requested", req.Count,
			"returned", len(questions),
		)
	}

	return assessment, nil
}

// NormalizeQuestion classifies a raw payload and converts it into a typed
// Question. True-false questions always end up with the canonical
// True/False option pair; absent points default to 10.
func NormalizeQuestion(raw genai.RawQuestion) Question {
	kind := ClassifyKind(raw)

	options := append([]string(nil), raw.Options...)
	if kind == KindTrueFalse {
		options = append([]string(nil), trueFalseOptions...)
	}

	points := raw.Points
	if points <= 0 {
		points = defaultQuestionPoints
	}

	return Question{
		ID:          uuid.NewString(),
		Text:        raw.Text,
		Kind:        kind,
		Options:     options,
		Correct:     normalizeAnswer(kind, raw.CorrectAnswer, options),
		Explanation: raw.Explanation,
		Points:      points,
	}
}

// finalizeAssessment computes the scoring invariants from the actual
// question set, never from the requested count.
func finalizeAssessment(title string, role AssessmentRole, questions []Question) Assessment {
	a := Assessment{
		ID:        uuid.NewString(),
		Title:     title,
		Role:      role,
		Questions: questions,
	}
	a.PassingScore = PassingScore(a.TotalPoints())
	a.TimeLimitMinutes = minutesPerQuestion * len(questions)
	return a
}

// PassingScore returns the passing threshold for a point total.
func PassingScore(totalPoints int) int {
	return int(math.Round(passingRatio * float64(totalPoints)))
}

// fallbackQuiz synthesizes one generic single-choice question per learning
// objective, capped at eight.
func (g *Generator) fallbackQuiz(req AssessmentRequest) Assessment {
	objectives := req.LearningObjectives
	if len(objectives) == 0 {
		objectives = []string{"the core material covered in this module"}
	}
	if len(objectives) > maxFallbackQuestions {
		objectives = objectives[:maxFallbackQuestions]
	}

	questions := make([]Question, 0, len(objectives))
	for _, obj := range objectives {
		questions = append(questions, Question{
			ID:   uuid.NewString(),
			Text: fmt.Sprintf("Which statement best reflects the learning objective %q?", obj),
			Kind: KindSingleChoice,
			Options: []string{
				fmt.Sprintf("It is central to %s", obj),
				"It is unrelated to this module",
				"It only applies to prerequisite material",
				"It is covered in a later module",
			},
			Correct:     Answer{Index: 0},
			Explanation: fmt.Sprintf("This question checks your understanding of the objective %q.", obj),
			Points:      defaultQuestionPoints,
		})
	}

	return finalizeAssessment(req.Title, req.Role, questions)
}

// Award returns the points earned for a response to this question. Scoring
// is deterministic: scalar kinds compare the selected index, multiple-correct
// requires exact set equality.
func (q Question) Award(response Answer) int {
	switch q.Kind {
	case KindMultipleCorrect:
		if indexSetEqual(q.Correct.Indices, response.Indices) {
			return q.Points
		}
		return 0
	default:
		if response.Index == q.Correct.Index {
			return q.Points
		}
		return 0
	}
}

// Score grades a full response set keyed by question ID and reports whether
// the passing threshold was met.
func (a Assessment) Score(responses map[string]Answer) (points int, passed bool) {
	for _, q := range a.Questions {
		resp, ok := responses[q.ID]
		if !ok {
			continue
		}
		points += q.Award(resp)
	}
	return points, points >= a.PassingScore
}

func indexSetEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]struct{}, len(a))
	for _, i := range a {
		set[i] = struct{}{}
	}
	for _, i := range b {
		if _, ok := set[i]; !ok {
			return false
		}
	}
	return true
}

// IsShortfall reports whether err is a question-count shortfall.
func IsShortfall(err error) bool {
	var shortfall *ShortfallError
	return errors.As(err, &shortfall)
}

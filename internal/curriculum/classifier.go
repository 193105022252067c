package curriculum

import (
	"strconv"
	"strings"

	"github.com/courseforge/courseforge/internal/genai"
)

// trueFalseOptions is the canonical option pair every true-false question
// carries, whatever the service sent.
var trueFalseOptions = []string{"True", "False"}

// ClassifyKind determines the question variant of a raw payload. A kind tag
// on the payload is trusted; otherwise the shape is sniffed: exactly two
// options reading as true/false (English or French) mean true-false, an
// array-valued answer means multiple-correct, anything else single-choice.
// Classification happens once at ingestion; downstream code switches on the
// closed QuestionKind only.
func ClassifyKind(raw genai.RawQuestion) QuestionKind {
	if kind, ok := parseKindTag(raw.Kind); ok {
		return kind
	}

	if len(raw.Options) == 2 && looksBoolean(raw.Options[0]) && looksBoolean(raw.Options[1]) {
		return KindTrueFalse
	}

	if _, ok := raw.CorrectAnswer.([]any); ok {
		return KindMultipleCorrect
	}

	return KindSingleChoice
}

func parseKindTag(tag string) (QuestionKind, bool) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), "_", "-") {
	case "single-choice":
		return KindSingleChoice, true
	case "true-false":
		return KindTrueFalse, true
	case "multiple-correct":
		return KindMultipleCorrect, true
	}
	return "", false
}

func looksBoolean(option string) bool {
	lower := strings.ToLower(option)
	return strings.Contains(lower, "true") || strings.Contains(lower, "vrai") ||
		strings.Contains(lower, "false") || strings.Contains(lower, "faux")
}

// normalizeAnswer converts the dynamic correct-answer shape into the typed
// Answer union for the given kind and option list.
func normalizeAnswer(kind QuestionKind, raw any, options []string) Answer {
	switch kind {
	case KindMultipleCorrect:
		return Answer{Indices: answerIndices(raw, options)}
	case KindTrueFalse:
		return Answer{Index: trueFalseIndex(raw)}
	default:
		return Answer{Index: answerIndex(raw, options)}
	}
}

func answerIndices(raw any, options []string) []int {
	items, ok := raw.([]any)
	if !ok {
		// A scalar on a multiple-correct question degrades to one index.
		return []int{answerIndex(raw, options)}
	}
	indices := make([]int, 0, len(items))
	for _, item := range items {
		indices = append(indices, answerIndex(item, options))
	}
	return indices
}

func answerIndex(raw any, options []string) int {
	switch v := raw.(type) {
	case float64:
		return clampIndex(int(v), len(options))
	case int:
		return clampIndex(v, len(options))
	case string:
		for i, opt := range options {
			if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(v)) {
				return i
			}
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return clampIndex(n, len(options))
		}
	}
	return 0
}

func trueFalseIndex(raw any) int {
	switch v := raw.(type) {
	case bool:
		if v {
			return 0
		}
		return 1
	case float64:
		if int(v) == 1 {
			return 1
		}
		return 0
	case int:
		if v == 1 {
			return 1
		}
		return 0
	case string:
		lower := strings.ToLower(v)
		if strings.Contains(lower, "false") || strings.Contains(lower, "faux") {
			return 1
		}
		return 0
	}
	return 0
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if n > 0 && i >= n {
		return n - 1
	}
	return i
}

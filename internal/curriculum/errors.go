package curriculum

import (
	"errors"
	"fmt"
)

// ErrAnalysisUnavailable marks an upload whose analysis failed or is missing.
// Such uploads are excluded from the combined analysis, never fatal.
var ErrAnalysisUnavailable = errors.New("upload analysis unavailable")

// ErrModuleGenerationFailed marks an external module-proposal failure. It is
// absorbed by full local synthesis and never propagates past the assembler.
var ErrModuleGenerationFailed = errors.New("module generation failed")

// ErrQuestionGeneration marks an external question-generation failure. Module
// quizzes absorb it via the generic fallback; the final exam propagates it.
var ErrQuestionGeneration = errors.New("question generation failed")

// ErrFinalExamGeneration is the hard error surfaced when the final exam could
// not be generated. There is no degraded substitute for an exam; callers must
// not present one.
var ErrFinalExamGeneration = errors.New("final exam generation failed")

// ShortfallError reports that the generation service returned fewer questions
// than requested. For module quizzes it is logged and absorbed; for the final
// exam it is surfaced so the caller can decide whether to retry or accept.
type ShortfallError struct {
	Role      AssessmentRole
	Requested int
	Returned  int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("%s question shortfall: requested %d, got %d", e.Role, e.Requested, e.Returned)
}

package curriculum

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/courseforge/courseforge/internal/genai"
)

const (
	defaultQuizQuestionCount = 5
	defaultExamQuestionCount = 10
)

// AssemblerConfig holds the assembler's collaborators and tuning knobs.
type AssemblerConfig struct {
	Service           genai.Service
	ModuleCount       int // 0 means DefaultModuleCount
	QuizQuestionCount int // questions requested per module quiz (default 5)
	ExamQuestionCount int // questions requested for the final exam (default 10)
	// ContentRef resolves an upload to its stored artifact reference.
	ContentRef func(Upload) string
}

// Assembler orchestrates combining, synthesis, distribution, and assessment
// generation into a complete curriculum.
type Assembler struct {
	svc         genai.Service
	synth       *Synthesizer
	gen         *Generator
	distributor *Distributor
	quizCount   int
	examCount   int
}

// NewAssembler creates a curriculum assembler.
func NewAssembler(cfg AssemblerConfig) *Assembler {
	quizCount := cfg.QuizQuestionCount
	if quizCount <= 0 {
		quizCount = defaultQuizQuestionCount
	}
	examCount := cfg.ExamQuestionCount
	if examCount <= 0 {
		examCount = defaultExamQuestionCount
	}
	return &Assembler{
		svc:         cfg.Service,
		synth:       NewSynthesizer(cfg.Service, cfg.ModuleCount),
		gen:         NewGenerator(cfg.Service),
		distributor: &Distributor{ContentRef: cfg.ContentRef},
		quizCount:   quizCount,
		examCount:   examCount,
	}
}

// Result is the modeled assembly outcome. Degradation is a state, not an
// exception: a curriculum assembled entirely from local synthesis is still a
// valid curriculum.
type Result struct {
	Curriculum *Curriculum
	// Degraded is true when module synthesis fell back to local generation.
	Degraded bool
	// Warnings lists absorbed degradations, including a final-exam question
	// shortfall the caller may want to retry.
	Warnings []string
}

// Assemble runs the full pipeline. Content-level failures are absorbed by
// fallbacks; only final-exam generation failure propagates, wrapped in
// ErrFinalExamGeneration. In that case the returned Result still carries the
// assembled curriculum without an exam; the caller must not present a final
// exam until a regeneration succeeds.
func (a *Assembler) Assemble(ctx context.Context, uploads []Upload, industryHint string) (*Result, error) {
	res := &Result{}

	analyzed := AnalyzedUploads(uploads)
	if len(analyzed) == 0 {
		// Degenerate path: nothing to combine, so modules mirror uploads
		// one-to-one and module synthesis is skipped entirely.
		return a.assembleDegenerate(ctx, uploads, res)
	}

	combined := CombineAnalyses(uploads)
	specs, degraded := a.synth.Synthesize(ctx, combined, industryHint)
	res.Degraded = degraded
	if degraded {
		res.Warnings = append(res.Warnings, "modules synthesized locally: external module generation failed")
	}

	modules := a.distributor.Distribute(uploads, specs, combined.Prerequisites)
	a.attachQuizzes(ctx, modules)

	curriculum := &Curriculum{Modules: modules}
	res.Curriculum = curriculum

	if err := a.attachFinalExam(ctx, curriculum, res); err != nil {
		return res, err
	}
	return res, nil
}

// assembleDegenerate builds one module per upload using each upload's own
// analysis directly. With zero uploads the curriculum is empty and no final
// exam is generated.
func (a *Assembler) assembleDegenerate(ctx context.Context, uploads []Upload, res *Result) (*Result, error) {
	slog.Info("no analyzed uploads, assembling one module per upload", "uploads", len(uploads))

	specs := make([]ModuleSpec, len(uploads))
	for i, u := range uploads {
		spec := ModuleSpec{
			Title:              SectionTitle(u.Name),
			DurationMinutes:    defaultModuleDuration,
			Difficulty:         defaultModuleDifficulty,
			LearningObjectives: []string{},
		}
		if u.Analysis != nil {
			spec.LearningObjectives = u.Analysis.LearningObjectives
		}
		if len(spec.LearningObjectives) == 0 {
			spec.LearningObjectives = moduleObjectives(spec.Title, nil)
		}
		spec.Description = fmt.Sprintf("This module covers %s, built from your uploaded materials.", spec.Title)
		specs[i] = spec
	}

	modules := a.distributor.Distribute(uploads, specs, nil)
	a.attachQuizzes(ctx, modules)

	curriculum := &Curriculum{Modules: modules}
	res.Curriculum = curriculum

	if len(modules) == 0 {
		return res, nil
	}
	if err := a.attachFinalExam(ctx, curriculum, res); err != nil {
		return res, err
	}
	return res, nil
}

func (a *Assembler) attachQuizzes(ctx context.Context, modules []Module) {
	for i := range modules {
		quiz, err := a.GenerateModuleQuiz(ctx, &modules[i])
		if err != nil {
			// The quiz path has an internal fallback, so this only fires on
			// malformed requests; the module stays usable without a quiz.
			slog.Error("module quiz generation failed", "module", modules[i].Title, "error", err)
			continue
		}
		modules[i].Assessments = append(modules[i].Assessments, quiz)
	}
}

// GenerateModuleQuiz produces a fresh quiz assessment for one module.
func (a *Assembler) GenerateModuleQuiz(ctx context.Context, module *Module) (Assessment, error) {
	return a.gen.Generate(ctx, AssessmentRequest{
		Title:              module.Title + " Quiz",
		Role:               RoleModuleQuiz,
		Content:            moduleContent(module),
		Count:              a.quizCount,
		LearningObjectives: module.LearningObjectives,
	})
}

// GenerateFinalExam produces a fresh cumulative exam over all modules. The
// returned error is either a *ShortfallError (exam usable, caller decides)
// or wraps ErrFinalExamGeneration (no exam produced).
func (a *Assembler) GenerateFinalExam(ctx context.Context, curriculum *Curriculum) (Assessment, error) {
	var b strings.Builder
	for i := range curriculum.Modules {
		b.WriteString(moduleContent(&curriculum.Modules[i]))
		b.WriteString("\n")
	}

	return a.gen.Generate(ctx, AssessmentRequest{
		Title:   "Final Exam",
		Role:    RoleFinalExam,
		Content: b.String(),
		Count:   a.examCount,
	})
}

func (a *Assembler) attachFinalExam(ctx context.Context, curriculum *Curriculum, res *Result) error {
	exam, err := a.GenerateFinalExam(ctx, curriculum)
	if err != nil {
		if IsShortfall(err) {
			// Exam integrity depends on coverage; surface the shortfall but
			// keep the exam so the caller can accept or retry.
			res.Warnings = append(res.Warnings, err.Error())
			curriculum.FinalExam = &exam
			return nil
		}
		return err
	}
	curriculum.FinalExam = &exam
	return nil
}

// moduleContent renders the module's title, description, objectives, and
// section key points as exam source content.
func moduleContent(module *Module) string {
	var b strings.Builder
	b.WriteString(module.Title)
	b.WriteString("\n")
	b.WriteString(module.Description)
	if len(module.LearningObjectives) > 0 {
		b.WriteString("\nObjectives: ")
		b.WriteString(strings.Join(module.LearningObjectives, "; "))
	}
	for _, sec := range module.Sections {
		if len(sec.KeyPoints) > 0 {
			b.WriteString("\n")
			b.WriteString(sec.Title)
			b.WriteString(": ")
			b.WriteString(strings.Join(sec.KeyPoints, ", "))
		}
	}
	return b.String()
}

package curriculum

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/courseforge/courseforge/internal/genai"
)

// DefaultModuleCount is how many modules a curriculum has unless configured
// otherwise.
const DefaultModuleCount = 6

const (
	defaultModuleDuration   = 60 // minutes
	defaultModuleDifficulty = "intermediate"
	maxObjectivesPerModule  = 4
)

// Synthesizer turns a combined analysis plus an external module proposal into
// exactly moduleCount ModuleSpecs, synthesizing whatever the service did not
// deliver.
type Synthesizer struct {
	svc         genai.Service
	moduleCount int
}

// NewSynthesizer creates a synthesizer. A moduleCount of zero means
// DefaultModuleCount.
func NewSynthesizer(svc genai.Service, moduleCount int) *Synthesizer {
	if moduleCount <= 0 {
		moduleCount = DefaultModuleCount
	}
	return &Synthesizer{svc: svc, moduleCount: moduleCount}
}

// ModuleCount returns the configured number of modules.
func (s *Synthesizer) ModuleCount() int {
	return s.moduleCount
}

// Synthesize produces exactly moduleCount ModuleSpecs. If the external call
// fails, all modules are synthesized locally from the combined analysis alone
// and degraded is true; a curriculum never depends on the external service
// having succeeded.
func (s *Synthesizer) Synthesize(ctx context.Context, combined CombinedAnalysis, industryHint string) (specs []ModuleSpec, degraded bool) {
	proposals, err := s.svc.GenerateModules(ctx, genai.ModulesRequest{
		KeyTopics:          combined.KeyTopics,
		LearningObjectives: combined.LearningObjectives,
		Difficulty:         combined.Difficulty,
		IndustryHint:       industryHint,
		ModuleCount:        s.moduleCount,
	})
	if err != nil {
		slog.Warn("module generation failed, synthesizing all modules locally",
			"module_count", s.moduleCount,
			"error", err,
		)
		return s.synthesizeAll(combined), true
	}

	if len(proposals) > s.moduleCount {
		slog.Warn("module generation returned extra modules, truncating",
			"returned", len(proposals),
			"keeping", s.moduleCount,
		)
		proposals = proposals[:s.moduleCount]
	}

	specs = make([]ModuleSpec, 0, s.moduleCount)
	for _, p := range proposals {
		specs = append(specs, specFromProposal(p, combined))
	}
	for i := len(specs); i < s.moduleCount; i++ {
		specs = append(specs, s.synthesizeSpec(i, combined))
	}
	return specs, false
}

func (s *Synthesizer) synthesizeAll(combined CombinedAnalysis) []ModuleSpec {
	specs := make([]ModuleSpec, s.moduleCount)
	for i := range specs {
		specs[i] = s.synthesizeSpec(i, combined)
	}
	return specs
}

func (s *Synthesizer) synthesizeSpec(i int, combined CombinedAnalysis) ModuleSpec {
	title := fmt.Sprintf("Advanced Module %d", i+1)
	if i < len(combined.CanonicalModuleTitles) {
		title = combined.CanonicalModuleTitles[i]
	}

	return ModuleSpec{
		Title:              title,
		Description:        fmt.Sprintf("This module covers %s, built from your uploaded materials.", title),
		DurationMinutes:    defaultModuleDuration,
		Difficulty:         defaultModuleDifficulty,
		LearningObjectives: moduleObjectives(title, combined.LearningObjectives),
	}
}

// specFromProposal normalizes an external proposal, filling defaults the
// service omitted.
func specFromProposal(p genai.ModuleProposal, combined CombinedAnalysis) ModuleSpec {
	spec := ModuleSpec{
		Title:              p.Title,
		Description:        p.Description,
		DurationMinutes:    p.DurationMinutes,
		Difficulty:         p.Difficulty,
		LearningObjectives: p.LearningObjectives,
	}
	if spec.Description == "" {
		spec.Description = fmt.Sprintf("This module covers %s, built from your uploaded materials.", spec.Title)
	}
	if spec.DurationMinutes <= 0 {
		spec.DurationMinutes = defaultModuleDuration
	}
	if spec.Difficulty == "" {
		spec.Difficulty = defaultModuleDifficulty
	}
	if len(spec.LearningObjectives) == 0 {
		spec.LearningObjectives = moduleObjectives(spec.Title, combined.LearningObjectives)
	}
	return spec
}

func moduleObjectives(title string, combined []string) []string {
	if len(combined) > 0 {
		if len(combined) > maxObjectivesPerModule {
			combined = combined[:maxObjectivesPerModule]
		}
		return append([]string(nil), combined...)
	}
	return []string{
		fmt.Sprintf("Understand the core ideas behind %s", title),
		fmt.Sprintf("Apply the techniques introduced in %s", title),
		fmt.Sprintf("Evaluate your grasp of %s", title),
	}
}

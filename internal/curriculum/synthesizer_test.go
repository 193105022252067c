package curriculum_test

import (
	"context"
	"errors"
	"testing"

	"github.com/courseforge/courseforge/internal/curriculum"
	"github.com/courseforge/courseforge/internal/genai"
)

func TestSynthesize_FillsToModuleCount(t *testing.T) {
	mock := &genai.MockService{
		Modules: []genai.ModuleProposal{
			{Title: "Service Design", Description: "d", DurationMinutes: 45, Difficulty: "advanced", LearningObjectives: []string{"o1"}},
			{Title: "Operations"},
		},
	}
	synth := curriculum.NewSynthesizer(mock, 6)

	specs, degraded := synth.Synthesize(context.Background(), curriculum.CombineAnalyses(nil), "logistics")

	if degraded {
		t.Fatal("degraded = true, want false")
	}
	if len(specs) != 6 {
		t.Fatalf("len(specs) = %d, want 6", len(specs))
	}
	if specs[0].Title != "Service Design" {
		t.Errorf("specs[0].Title = %q", specs[0].Title)
	}
	// Synthesized remainder uses the canonical scaffold by position.
	if specs[2].Title != curriculum.CanonicalModuleTitles[2] {
		t.Errorf("specs[2].Title = %q, want %q", specs[2].Title, curriculum.CanonicalModuleTitles[2])
	}
	if mock.LastModulesRequest.ModuleCount != 6 {
		t.Errorf("requested module count = %d, want 6", mock.LastModulesRequest.ModuleCount)
	}
	if mock.LastModulesRequest.IndustryHint != "logistics" {
		t.Errorf("IndustryHint = %q", mock.LastModulesRequest.IndustryHint)
	}
}

func TestSynthesize_TruncatesExtras(t *testing.T) {
	proposals := make([]genai.ModuleProposal, 9)
	for i := range proposals {
		proposals[i] = genai.ModuleProposal{Title: "M"}
	}
	synth := curriculum.NewSynthesizer(&genai.MockService{Modules: proposals}, 6)

	specs, _ := synth.Synthesize(context.Background(), curriculum.CombinedAnalysis{}, "")
	if len(specs) != 6 {
		t.Errorf("len(specs) = %d, want 6 after truncation", len(specs))
	}
}

func TestSynthesize_ServiceFailure(t *testing.T) {
	mock := &genai.MockService{ModulesErr: errors.New("upstream down")}
	synth := curriculum.NewSynthesizer(mock, 6)

	combined := curriculum.CombinedAnalysis{
		CanonicalModuleTitles: curriculum.CanonicalModuleTitles,
		LearningObjectives:    []string{"o1", "o2"},
	}
	specs, degraded := synth.Synthesize(context.Background(), combined, "")

	if !degraded {
		t.Fatal("degraded = false, want true on service failure")
	}
	if len(specs) != 6 {
		t.Fatalf("len(specs) = %d, want 6", len(specs))
	}
	for i, spec := range specs {
		if spec.Title != curriculum.CanonicalModuleTitles[i] {
			t.Errorf("specs[%d].Title = %q, want %q", i, spec.Title, curriculum.CanonicalModuleTitles[i])
		}
		if spec.DurationMinutes != 60 || spec.Difficulty != "intermediate" {
			t.Errorf("specs[%d] defaults = %d/%q, want 60/intermediate", i, spec.DurationMinutes, spec.Difficulty)
		}
		if len(spec.LearningObjectives) == 0 {
			t.Errorf("specs[%d] has no learning objectives", i)
		}
	}
}

func TestSynthesize_BeyondCanonicalTitles(t *testing.T) {
	mock := &genai.MockService{ModulesErr: errors.New("down")}
	synth := curriculum.NewSynthesizer(mock, 8)

	combined := curriculum.CombinedAnalysis{CanonicalModuleTitles: curriculum.CanonicalModuleTitles}
	specs, _ := synth.Synthesize(context.Background(), combined, "")

	if len(specs) != 8 {
		t.Fatalf("len(specs) = %d, want 8", len(specs))
	}
	if specs[6].Title != "Advanced Module 7" {
		t.Errorf("specs[6].Title = %q, want %q", specs[6].Title, "Advanced Module 7")
	}
	if specs[7].Title != "Advanced Module 8" {
		t.Errorf("specs[7].Title = %q, want %q", specs[7].Title, "Advanced Module 8")
	}
}

func TestSynthesize_ProposalDefaults(t *testing.T) {
	mock := &genai.MockService{Modules: []genai.ModuleProposal{{Title: "Bare"}}}
	synth := curriculum.NewSynthesizer(mock, 1)

	specs, _ := synth.Synthesize(context.Background(), curriculum.CombinedAnalysis{}, "")

	spec := specs[0]
	if spec.Description == "" {
		t.Error("description should be defaulted")
	}
	if spec.DurationMinutes != 60 {
		t.Errorf("DurationMinutes = %d, want 60", spec.DurationMinutes)
	}
	if spec.Difficulty != "intermediate" {
		t.Errorf("Difficulty = %q, want intermediate", spec.Difficulty)
	}
	if len(spec.LearningObjectives) != 3 {
		t.Errorf("len(LearningObjectives) = %d, want 3 generic objectives", len(spec.LearningObjectives))
	}
}

func TestNewSynthesizer_ZeroCount(t *testing.T) {
	synth := curriculum.NewSynthesizer(&genai.MockService{}, 0)
	if synth.ModuleCount() != curriculum.DefaultModuleCount {
		t.Errorf("ModuleCount() = %d, want %d", synth.ModuleCount(), curriculum.DefaultModuleCount)
	}
}

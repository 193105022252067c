// Package rehearsal tracks a reviewer's progress through an assembled
// curriculum: a linear-but-jumpable position over modules and sections,
// independent completion tracking at both granularities, and the mutation
// surface for regenerating and editing assessments after assembly.
package rehearsal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/courseforge/courseforge/internal/curriculum"
)

// ProgressState is the persistable snapshot of a rehearsal session.
type ProgressState struct {
	CurrentModuleIndex  int      `json:"current_module_index"`
	CurrentSectionIndex int      `json:"current_section_index"`
	CompletedModuleIDs  []string `json:"completed_module_ids"`
	CompletedSectionIDs []string `json:"completed_section_ids"`
	Progress            float64  `json:"progress"`
}

// EngineConfig holds dependencies for the rehearsal engine.
type EngineConfig struct {
	Curriculum *curriculum.Curriculum
	// SessionID tags persisted state and logged events.
	SessionID string
	// Assembler performs assessment regeneration. Optional; without it
	// RegenerateAssessment fails.
	Assembler *curriculum.Assembler
	// Events receives navigation and mutation events. Optional.
	Events EventLogger
	// OnChange is invoked with a fresh snapshot after every state change.
	// Optional; used for live progress feeds.
	OnChange func(ProgressState)
}

// Engine is the rehearsal state machine. Completion is tracked as bitsets
// over the fixed module/section index space; identifier sets are derived
// views. Module completion implies section completion for that module, but
// completing every section does not mark the module.
type Engine struct {
	mu  sync.RWMutex
	cur *curriculum.Curriculum

	assembler *curriculum.Assembler
	events    EventLogger
	onChange  func(ProgressState)

	moduleIdx  int
	sectionIdx int

	moduleDone  bitset
	sectionDone []bitset // one per module
	sessionID   string
}

// NewEngine creates a rehearsal engine positioned at the first section of the
// first module with empty completion sets.
func NewEngine(cfg EngineConfig) *Engine {
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}

	modules := cfg.Curriculum.Modules
	sectionDone := make([]bitset, len(modules))
	for i, m := range modules {
		sectionDone[i] = newBitset(len(m.Sections))
	}

	return &Engine{
		cur:         cfg.Curriculum,
		sessionID:   cfg.SessionID,
		assembler:   cfg.Assembler,
		events:      events,
		onChange:    cfg.OnChange,
		moduleDone:  newBitset(len(modules)),
		sectionDone: sectionDone,
	}
}

// Position returns the current (moduleIndex, sectionIndex) position.
func (e *Engine) Position() (int, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.moduleIdx, e.sectionIdx
}

// GotoSection jumps directly to the given position. Free browsing never
// alters completion state.
func (e *Engine) GotoSection(moduleIdx, sectionIdx int) error {
	e.mu.Lock()
	if err := e.checkPosition(moduleIdx, sectionIdx); err != nil {
		e.mu.Unlock()
		return err
	}
	e.moduleIdx = moduleIdx
	e.sectionIdx = sectionIdx
	e.mu.Unlock()

	e.logEvent("navigated", map[string]any{"module": moduleIdx, "section": sectionIdx})
	e.notify()
	return nil
}

// NextSection advances one section, crossing into the next non-empty module
// at its first section when the current module is exhausted. At the absolute
// last position it is a no-op.
func (e *Engine) NextSection() {
	e.mu.Lock()
	if len(e.cur.Modules) == 0 {
		e.mu.Unlock()
		return
	}
	moved := false
	if e.sectionIdx+1 < e.sectionCount(e.moduleIdx) {
		e.sectionIdx++
		moved = true
	} else {
		for j := e.moduleIdx + 1; j < len(e.cur.Modules); j++ {
			if e.sectionCount(j) > 0 {
				e.moduleIdx = j
				e.sectionIdx = 0
				moved = true
				break
			}
		}
	}
	e.mu.Unlock()

	if moved {
		e.notify()
	}
}

// PreviousSection retreats one section, crossing into the previous non-empty
// module at its last section. At the absolute first position it is a no-op.
func (e *Engine) PreviousSection() {
	e.mu.Lock()
	if len(e.cur.Modules) == 0 {
		e.mu.Unlock()
		return
	}
	moved := false
	if e.sectionIdx > 0 {
		e.sectionIdx--
		moved = true
	} else {
		for j := e.moduleIdx - 1; j >= 0; j-- {
			if n := e.sectionCount(j); n > 0 {
				e.moduleIdx = j
				e.sectionIdx = n - 1
				moved = true
				break
			}
		}
	}
	e.mu.Unlock()

	if moved {
		e.notify()
	}
}

// MarkSectionComplete records the current section as complete without
// advancing the position.
func (e *Engine) MarkSectionComplete() {
	e.mu.Lock()
	if len(e.cur.Modules) == 0 {
		e.mu.Unlock()
		return
	}
	var sectionID string
	if e.sectionIdx < e.sectionCount(e.moduleIdx) {
		e.sectionDone[e.moduleIdx].set(e.sectionIdx)
		sectionID = e.cur.Modules[e.moduleIdx].Sections[e.sectionIdx].ID
	}
	e.mu.Unlock()

	if sectionID != "" {
		e.logEvent("section_completed", map[string]any{"section_id": sectionID})
		e.notify()
	}
}

// MarkModuleComplete records the current module and all of its sections as
// complete, then advances to the first section of the next module if one
// exists. Coarse completion implies fine completion; the converse is never
// inferred.
func (e *Engine) MarkModuleComplete() {
	e.mu.Lock()
	if len(e.cur.Modules) == 0 {
		e.mu.Unlock()
		return
	}
	mi := e.moduleIdx
	e.moduleDone.set(mi)
	for s := 0; s < e.sectionCount(mi); s++ {
		e.sectionDone[mi].set(s)
	}
	moduleID := e.cur.Modules[mi].ID
	if mi+1 < len(e.cur.Modules) {
		e.moduleIdx = mi + 1
		e.sectionIdx = 0
	}
	e.mu.Unlock()

	e.logEvent("module_completed", map[string]any{"module_id": moduleID})
	e.notify()
}

// Progress returns the fraction of modules marked complete.
func (e *Engine) Progress() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.progressLocked()
}

func (e *Engine) progressLocked() float64 {
	if len(e.cur.Modules) == 0 {
		return 0
	}
	return float64(e.moduleDone.count()) / float64(len(e.cur.Modules))
}

// IsModuleComplete reports whether the module at the given index is complete.
func (e *Engine) IsModuleComplete(moduleIdx int) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.moduleDone.has(moduleIdx)
}

// IsSectionComplete reports whether the given section is complete.
func (e *Engine) IsSectionComplete(moduleIdx, sectionIdx int) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if moduleIdx < 0 || moduleIdx >= len(e.sectionDone) {
		return false
	}
	return e.sectionDone[moduleIdx].has(sectionIdx)
}

// CurriculumView runs fn with the curriculum while holding the engine's read
// lock. Assessment mutations are excluded for the duration of fn, so fn must
// not call back into a mutating engine method.
func (e *Engine) CurriculumView(fn func(*curriculum.Curriculum)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.cur)
}

// Snapshot returns the current progress state with derived identifier sets.
func (e *Engine) Snapshot() ProgressState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() ProgressState {
	state := ProgressState{
		CurrentModuleIndex:  e.moduleIdx,
		CurrentSectionIndex: e.sectionIdx,
		CompletedModuleIDs:  []string{},
		CompletedSectionIDs: []string{},
		Progress:            e.progressLocked(),
	}
	for i, m := range e.cur.Modules {
		if e.moduleDone.has(i) {
			state.CompletedModuleIDs = append(state.CompletedModuleIDs, m.ID)
		}
		for s, sec := range m.Sections {
			if e.sectionDone[i].has(s) {
				state.CompletedSectionIDs = append(state.CompletedSectionIDs, sec.ID)
			}
		}
	}
	return state
}

// Restore rebuilds completion bitsets and position from a saved snapshot.
// Identifiers that no longer resolve against the curriculum are dropped.
func (e *Engine) Restore(state ProgressState) {
	e.mu.Lock()
	moduleIDs := make(map[string]struct{}, len(state.CompletedModuleIDs))
	for _, id := range state.CompletedModuleIDs {
		moduleIDs[id] = struct{}{}
	}
	sectionIDs := make(map[string]struct{}, len(state.CompletedSectionIDs))
	for _, id := range state.CompletedSectionIDs {
		sectionIDs[id] = struct{}{}
	}

	for i, m := range e.cur.Modules {
		if _, ok := moduleIDs[m.ID]; ok {
			e.moduleDone.set(i)
		}
		for s, sec := range m.Sections {
			if _, ok := sectionIDs[sec.ID]; ok {
				e.sectionDone[i].set(s)
			}
		}
	}

	if e.checkPosition(state.CurrentModuleIndex, state.CurrentSectionIndex) == nil {
		e.moduleIdx = state.CurrentModuleIndex
		e.sectionIdx = state.CurrentSectionIndex
	}
	e.mu.Unlock()

	e.notify()
}

// EditQuestion replaces one question in place, preserving its position.
// PassingScore and TimeLimitMinutes are left untouched; manual edits do not
// recompute scoring.
func (e *Engine) EditQuestion(moduleID, assessmentID string, questionIndex int, q curriculum.Question) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	assessment, err := e.findAssessment(moduleID, assessmentID)
	if err != nil {
		return err
	}
	if questionIndex < 0 || questionIndex >= len(assessment.Questions) {
		return fmt.Errorf("question index %d out of range (0..%d)", questionIndex, len(assessment.Questions)-1)
	}

	if q.ID == "" {
		q.ID = assessment.Questions[questionIndex].ID
	}
	assessment.Questions[questionIndex] = q

	e.logEventLocked("question_edited", map[string]any{
		"assessment_id":  assessmentID,
		"question_index": questionIndex,
	})
	return nil
}

// RegenerateAssessment replaces the live assessment of one role: the module
// quiz of the given module, or the final exam. The two roles are independent
// slots and never clobber each other. The existing instance is removed before
// the external call; on a final-exam failure the slot stays empty and the
// hard error is returned; callers must not present an exam until a
// regeneration succeeds. A *curriculum.ShortfallError accompanies a usable
// exam the caller may accept or retry.
func (e *Engine) RegenerateAssessment(ctx context.Context, moduleID string, finalExam bool) error {
	if e.assembler == nil {
		return fmt.Errorf("no assembler configured for regeneration")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if finalExam {
		e.cur.FinalExam = nil
		exam, err := e.assembler.GenerateFinalExam(ctx, e.cur)
		if err != nil && !curriculum.IsShortfall(err) {
			slog.Error("final exam regeneration failed", "error", err)
			return err
		}
		e.cur.FinalExam = &exam
		e.logEventLocked("assessment_regenerated", map[string]any{"role": string(curriculum.RoleFinalExam)})
		return err
	}

	module, ok := e.cur.ModuleByID(moduleID)
	if !ok {
		return fmt.Errorf("module not found: %s", moduleID)
	}

	kept := module.Assessments[:0]
	for _, a := range module.Assessments {
		if a.Role != curriculum.RoleModuleQuiz {
			kept = append(kept, a)
		}
	}
	module.Assessments = kept

	quiz, err := e.assembler.GenerateModuleQuiz(ctx, module)
	if err != nil {
		return err
	}
	module.Assessments = append(module.Assessments, quiz)

	e.logEventLocked("assessment_regenerated", map[string]any{
		"role":      string(curriculum.RoleModuleQuiz),
		"module_id": moduleID,
	})
	return nil
}

func (e *Engine) findAssessment(moduleID, assessmentID string) (*curriculum.Assessment, error) {
	if moduleID != "" {
		module, ok := e.cur.ModuleByID(moduleID)
		if !ok {
			return nil, fmt.Errorf("module not found: %s", moduleID)
		}
		for i := range module.Assessments {
			if module.Assessments[i].ID == assessmentID {
				return &module.Assessments[i], nil
			}
		}
		return nil, fmt.Errorf("assessment not found in module %s: %s", moduleID, assessmentID)
	}
	if e.cur.FinalExam != nil && e.cur.FinalExam.ID == assessmentID {
		return e.cur.FinalExam, nil
	}
	return nil, fmt.Errorf("assessment not found: %s", assessmentID)
}

// checkPosition validates a (module, section) pair. Section 0 is a valid
// resting position inside a module with no sections.
func (e *Engine) checkPosition(moduleIdx, sectionIdx int) error {
	if moduleIdx < 0 || moduleIdx >= len(e.cur.Modules) {
		return fmt.Errorf("module index %d out of range (0..%d)", moduleIdx, len(e.cur.Modules)-1)
	}
	n := e.sectionCount(moduleIdx)
	if n == 0 && sectionIdx == 0 {
		return nil
	}
	if sectionIdx < 0 || sectionIdx >= n {
		return fmt.Errorf("section index %d out of range (0..%d)", sectionIdx, n-1)
	}
	return nil
}

func (e *Engine) sectionCount(moduleIdx int) int {
	return len(e.cur.Modules[moduleIdx].Sections)
}

func (e *Engine) notify() {
	if e.onChange == nil {
		return
	}
	e.onChange(e.Snapshot())
}

func (e *Engine) logEvent(eventType string, data map[string]any) {
	if err := e.events.LogEvent(Event{SessionID: e.sessionID, EventType: eventType, Data: data}); err != nil {
		slog.Warn("failed to log rehearsal event", "type", eventType, "error", err)
	}
}

func (e *Engine) logEventLocked(eventType string, data map[string]any) {
	// Same as logEvent; the event logger does its own locking.
	e.logEvent(eventType, data)
}

// bitset is a fixed-capacity bit vector over section/module indices.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) set(i int) {
	if i < 0 || i/64 >= len(b) {
		return
	}
	b[i/64] |= 1 << (uint(i) % 64)
}

func (b bitset) has(i int) bool {
	if i < 0 || i/64 >= len(b) {
		return false
	}
	return b[i/64]&(1<<(uint(i)%64)) != 0
}

func (b bitset) count() int {
	total := 0
	for _, word := range b {
		for ; word != 0; word &= word - 1 {
			total++
		}
	}
	return total
}

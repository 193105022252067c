package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/courseforge/courseforge/internal/curriculum"
	"github.com/courseforge/courseforge/internal/export"
	"github.com/courseforge/courseforge/internal/rehearsal"
)

// routes builds the HTTP router: health checks, the curriculum read surface,
// rehearsal navigation, assessment mutation, and the live progress feed.
func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)

	mux.HandleFunc("GET /api/curriculum", a.handleGetCurriculum)
	mux.HandleFunc("GET /api/curriculum/export", a.handleExportWorkbook)

	mux.HandleFunc("GET /api/progress", a.handleGetProgress)
	mux.HandleFunc("POST /api/progress/goto", a.handleGoto)
	mux.HandleFunc("POST /api/progress/next", a.handleNext)
	mux.HandleFunc("POST /api/progress/previous", a.handlePrevious)
	mux.HandleFunc("POST /api/progress/complete-section", a.handleCompleteSection)
	mux.HandleFunc("POST /api/progress/complete-module", a.handleCompleteModule)

	mux.HandleFunc("POST /api/assessments/regenerate", a.handleRegenerate)
	mux.HandleFunc("POST /api/assessments/edit-question", a.handleEditQuestion)

	mux.HandleFunc("GET /ws/progress", a.handleProgressFeed)

	return mux
}

func (a *app) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ready"}
	code := http.StatusOK

	if a.db != nil {
		if err := a.db.HealthCheck(r.Context()); err != nil {
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if a.cache != nil {
		if err := a.cache.HealthCheck(r.Context()); err != nil {
			status["cache"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if code != http.StatusOK {
		status["status"] = "degraded"
	}
	writeJSON(w, code, status)
}

func (a *app) handleGetCurriculum(w http.ResponseWriter, r *http.Request) {
	// Serialization happens under the engine's read lock so a concurrent
	// regeneration never shows up half-applied.
	a.engine.CurriculumView(func(c *curriculum.Curriculum) {
		writeJSON(w, http.StatusOK, map[string]any{
			"curriculum": c,
			"degraded":   a.result.Degraded,
			"warnings":   a.result.Warnings,
		})
	})
}

func (a *app) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="curriculum.xlsx"`)
	a.engine.CurriculumView(func(c *curriculum.Curriculum) {
		if err := export.WriteWorkbook(c, w); err != nil {
			slog.Error("workbook export failed", "error", err)
		}
	})
}

func (a *app) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Snapshot())
}

func (a *app) handleGoto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModuleIndex  int `json:"module_index"`
		SectionIndex int `json:"section_index"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.engine.GotoSection(req.ModuleIndex, req.SectionIndex); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, a.engine.Snapshot())
}

func (a *app) handleNext(w http.ResponseWriter, r *http.Request) {
	a.engine.NextSection()
	writeJSON(w, http.StatusOK, a.engine.Snapshot())
}

func (a *app) handlePrevious(w http.ResponseWriter, r *http.Request) {
	a.engine.PreviousSection()
	writeJSON(w, http.StatusOK, a.engine.Snapshot())
}

func (a *app) handleCompleteSection(w http.ResponseWriter, r *http.Request) {
	a.engine.MarkSectionComplete()
	writeJSON(w, http.StatusOK, a.engine.Snapshot())
}

func (a *app) handleCompleteModule(w http.ResponseWriter, r *http.Request) {
	a.engine.MarkModuleComplete()
	writeJSON(w, http.StatusOK, a.engine.Snapshot())
}

func (a *app) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModuleID  string `json:"module_id"`
		FinalExam bool   `json:"final_exam"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := a.engine.RegenerateAssessment(r.Context(), req.ModuleID, req.FinalExam)
	if err != nil && !curriculum.IsShortfall(err) {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	a.engine.CurriculumView(func(c *curriculum.Curriculum) {
		resp := map[string]any{"curriculum": c}
		if err != nil {
			resp["warning"] = err.Error()
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func (a *app) handleEditQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModuleID      string              `json:"module_id"`
		AssessmentID  string              `json:"assessment_id"`
		QuestionIndex int                 `json:"question_index"`
		Question      curriculum.Question `json:"question"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := a.engine.EditQuestion(req.ModuleID, req.AssessmentID, req.QuestionIndex, req.Question); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleProgressFeed streams progress snapshots over a websocket. The current
// snapshot is sent on connect, then every state change until the client goes
// away.
func (a *app) handleProgressFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	ch, unsubscribe := a.feed.subscribe()
	defer unsubscribe()

	if err := wsjson.Write(ctx, conn, a.engine.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-ch:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, conn, state); err != nil {
				return
			}
		}
	}
}

// progressFeed fans progress snapshots out to websocket subscribers. Slow
// subscribers drop intermediate snapshots rather than block the engine.
type progressFeed struct {
	mu   sync.Mutex
	subs map[chan rehearsal.ProgressState]struct{}
}

func newProgressFeed() *progressFeed {
	return &progressFeed{subs: make(map[chan rehearsal.ProgressState]struct{})}
}

func (f *progressFeed) subscribe() (<-chan rehearsal.ProgressState, func()) {
	ch := make(chan rehearsal.ProgressState, 8)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
}

func (f *progressFeed) broadcast(state rehearsal.ProgressState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

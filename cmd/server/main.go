package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/courseforge/courseforge/internal/artifact"
	"github.com/courseforge/courseforge/internal/curriculum"
	"github.com/courseforge/courseforge/internal/genai"
	"github.com/courseforge/courseforge/internal/platform/cache"
	"github.com/courseforge/courseforge/internal/platform/config"
	"github.com/courseforge/courseforge/internal/platform/database"
	"github.com/courseforge/courseforge/internal/rehearsal"
)

const defaultSessionID = "default"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, err := buildApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// app holds the wired application: the assembled curriculum, its rehearsal
// engine, and the stores backing them.
type app struct {
	cfg       *config.Config
	svc       genai.Service
	assembler *curriculum.Assembler
	engine    *rehearsal.Engine
	result    *curriculum.Result
	artifacts artifact.Store
	progress  rehearsal.ProgressStore
	feed      *progressFeed

	db    *database.DB
	cache *cache.Cache
}

// buildApp wires providers, stores, and the assembly pipeline, then runs the
// initial assembly from the configured manifest directory. Database and cache
// are optional: failure to connect degrades to in-memory operation.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, feed: newProgressFeed()}

	svc, err := buildService(cfg)
	if err != nil {
		return nil, err
	}
	a.svc = svc

	if db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns); err != nil {
		slog.Warn("database unavailable, using in-memory progress store", "error", err)
	} else {
		a.db = db
	}

	if cfg.Cache.Enabled {
		if c, err := cache.New(ctx, cfg.Cache.URL); err != nil {
			slog.Warn("cache unavailable, analyses will not be cached", "error", err)
		} else {
			a.cache = c
			a.svc = genai.NewCachedAnalyzer(a.svc, c.Client)
		}
	}

	store, err := artifact.NewFSStore(cfg.Assembly.ArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}
	a.artifacts = store

	a.assembler = curriculum.NewAssembler(curriculum.AssemblerConfig{
		Service:           a.svc,
		ModuleCount:       cfg.Assembly.ModuleCount,
		QuizQuestionCount: cfg.Assembly.QuizQuestionCount,
		ExamQuestionCount: cfg.Assembly.ExamQuestionCount,
		ContentRef: func(u curriculum.Upload) string {
			ref, err := store.ContentRef(u.ID + "/" + u.Name)
			if err != nil {
				return ""
			}
			return ref
		},
	})

	if a.db != nil {
		pgStore, err := rehearsal.NewPostgresStore(a.db.Pool)
		if err != nil {
			return nil, fmt.Errorf("progress store: %w", err)
		}
		a.progress = pgStore
	} else {
		a.progress = rehearsal.NewMemoryStore()
	}

	manifest, err := curriculum.LoadManifestDir(cfg.Assembly.ManifestPath)
	if err != nil {
		slog.Warn("manifest directory unavailable, starting with empty upload set", "path", cfg.Assembly.ManifestPath, "error", err)
		manifest = &curriculum.Manifest{}
	}

	if err := a.assemble(ctx, manifest.Uploads, manifest.IndustryHint); err != nil {
		return nil, err
	}
	return a, nil
}

// buildService assembles the provider router and generation client per
// config. Providers register in preference order; the router falls through
// on failure.
func buildService(cfg *config.Config) (genai.Service, error) {
	router := genai.NewRouter()

	if cfg.GenAI.OpenAI.APIKey != "" {
		opts := []genai.OpenAIOption{genai.WithDefaultModel(cfg.GenAI.OpenAI.Model)}
		if cfg.GenAI.OpenAI.BaseURL != "" {
			opts = append(opts, genai.WithBaseURL(cfg.GenAI.OpenAI.BaseURL))
		}
		router.Register("openai", genai.NewOpenAIProvider(cfg.GenAI.OpenAI.APIKey, opts...))
	}
	if cfg.GenAI.Ollama.Enabled {
		router.Register("ollama", genai.NewOllamaProvider(cfg.GenAI.Ollama.URL,
			genai.WithOllamaModel(cfg.GenAI.Ollama.Model)))
	}
	if !router.HasProvider() {
		return nil, fmt.Errorf("no generation provider configured")
	}

	var clientOpts []genai.ClientOption
	if cfg.GenAI.TokenBudget > 0 {
		budget := genai.NewInMemoryBudget()
		budget.SetBudget(defaultSessionID, int64(cfg.GenAI.TokenBudget))
		clientOpts = append(clientOpts, genai.WithBudget(budget, defaultSessionID))
	}

	return genai.NewClient(router, clientOpts...), nil
}

// assemble analyzes any upload missing an analysis, runs the full pipeline,
// and stands up a fresh rehearsal engine, restoring saved progress when
// present.
func (a *app) assemble(ctx context.Context, uploads []curriculum.Upload, industryHint string) error {
	a.analyzeUploads(ctx, uploads)

	res, err := a.assembler.Assemble(ctx, uploads, industryHint)
	if err != nil {
		// A missing final exam is survivable; the curriculum is still served
		// and the exam slot stays empty until a regeneration succeeds.
		slog.Error("final exam generation failed, curriculum has no exam", "error", err)
	}
	a.result = res

	var events rehearsal.EventLogger = rehearsal.NopEventLogger{}
	if a.db != nil {
		events = rehearsal.NewPostgresEventLogger(a.db.Pool)
	}

	a.engine = rehearsal.NewEngine(rehearsal.EngineConfig{
		Curriculum: res.Curriculum,
		SessionID:  defaultSessionID,
		Assembler:  a.assembler,
		Events:     events,
		OnChange:   a.onProgressChange,
	})

	if saved, err := a.progress.Load(ctx, defaultSessionID); err == nil {
		a.engine.Restore(saved.State)
		slog.Info("restored rehearsal progress", "session", defaultSessionID)
	}

	slog.Info("curriculum assembled",
		"modules", len(res.Curriculum.Modules),
		"degraded", res.Degraded,
		"warnings", len(res.Warnings),
	)
	return nil
}

// analyzeUploads fills in missing analyses via the generation service.
// Failures leave the analysis nil; the assembler degrades accordingly.
func (a *app) analyzeUploads(ctx context.Context, uploads []curriculum.Upload) {
	for i := range uploads {
		u := &uploads[i]
		if u.Analysis != nil {
			continue
		}
		raw, err := a.svc.Analyze(ctx, genai.AnalyzeRequest{
			UploadID:  u.ID,
			Name:      u.Name,
			MediaKind: string(u.MediaKind),
			SizeBytes: u.SizeBytes,
		})
		if err != nil {
			slog.Warn("upload analysis failed", "upload", u.Name, "error", err)
			continue
		}
		u.Analysis = &curriculum.Analysis{
			KeyTopics:             raw.KeyTopics,
			Difficulty:            raw.Difficulty,
			EstimatedReadMinutes:  raw.EstimatedReadMinutes,
			LearningObjectives:    raw.LearningObjectives,
			Prerequisites:         raw.Prerequisites,
			SuggestedModuleTitles: raw.SuggestedModuleTitles,
		}
	}
}

func (a *app) onProgressChange(state rehearsal.ProgressState) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := a.progress.Save(ctx, rehearsal.Session{
		ID:    defaultSessionID,
		State: state,
	})
	if err != nil {
		slog.Warn("failed to persist progress", "error", err)
	}

	a.feed.broadcast(state)
}

func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

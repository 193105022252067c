package genai

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const analysisCacheTTL = 24 * time.Hour

// CachedAnalyzer wraps a Service with a Redis cache over per-upload analyses.
// An analysis is produced once per upload; re-assembly reuses the cached copy
// instead of re-paying the analysis call. Cache failures degrade to the
// underlying service, never to an error.
type CachedAnalyzer struct {
	Service
	client *redis.Client
}

// NewCachedAnalyzer creates a caching decorator over svc.
func NewCachedAnalyzer(svc Service, client *redis.Client) *CachedAnalyzer {
	return &CachedAnalyzer{Service: svc, client: client}
}

func (c *CachedAnalyzer) Analyze(ctx context.Context, req AnalyzeRequest) (RawAnalysis, error) {
	key := analysisKey(req.UploadID)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var cached RawAnalysis
		if err := json.Unmarshal(data, &cached); err == nil {
			slog.Debug("analysis cache hit", "upload_id", req.UploadID)
			return cached, nil
		}
	} else if err != redis.Nil {
		slog.Warn("analysis cache read failed", "upload_id", req.UploadID, "error", err)
	}

	analysis, err := c.Service.Analyze(ctx, req)
	if err != nil {
		return RawAnalysis{}, err
	}

	if data, err := json.Marshal(analysis); err == nil {
		if err := c.client.Set(ctx, key, data, analysisCacheTTL).Err(); err != nil {
			slog.Warn("analysis cache write failed", "upload_id", req.UploadID, "error", err)
		}
	}

	return analysis, nil
}

func analysisKey(uploadID string) string {
	return "forge:analysis:" + uploadID
}

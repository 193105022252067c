package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Manifest describes a set of uploads, optionally with pre-baked analyses,
// so a curriculum can be assembled offline or in tests without the analysis
// service.
type Manifest struct {
	IndustryHint string   `yaml:"industry_hint"`
	Uploads      []Upload `yaml:"uploads"`
}

// LoadManifest reads a YAML upload manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	for i := range m.Uploads {
		u := &m.Uploads[i]
		if u.Name == "" {
			return nil, fmt.Errorf("upload %d: name is required", i)
		}
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		if u.MediaKind == "" {
			u.MediaKind = MediaDocument
		}
	}

	slog.Info("upload manifest loaded", "path", path, "uploads", len(m.Uploads))
	return &m, nil
}

// LoadManifestDir loads and merges every manifest (*.yaml, *.yml) under dir.
// Invalid files are skipped with a warning so one bad manifest does not block
// assembly.
func LoadManifestDir(dir string) (*Manifest, error) {
	merged := &Manifest{}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		m, err := LoadManifest(path)
		if err != nil {
			slog.Warn("skipping invalid manifest", "path", path, "error", err)
			return nil
		}
		if merged.IndustryHint == "" {
			merged.IndustryHint = m.IndustryHint
		}
		merged.Uploads = append(merged.Uploads, m.Uploads...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk manifest dir: %w", err)
	}

	return merged, nil
}

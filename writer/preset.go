package writer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tradeflow/internal/metrics"
	"tradeflow/logger"
	"tradeflow/models"
)

// ErrPresetNotFound is returned by Load when no preset exists under the
// requested name.
var ErrPresetNotFound = errors.New("preset not found")

// PresetStore persists report configurations as small JSON files under a
// single directory. Names are sanitized to filesystem-safe slugs, so "My
// Preset!" and "My_Preset" map to the same file.
type PresetStore struct {
	dir string
}

func NewPresetStore(dir string) (*PresetStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("preset directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create preset directory %s: %w", dir, err)
	}
	return &PresetStore{dir: dir}, nil
}

// SanitizePresetName reduces a user-supplied preset name to alphanumerics,
// dashes and underscores, folding interior spaces to underscores.
func SanitizePresetName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
}

func (s *PresetStore) path(name string) (string, error) {
	slug := SanitizePresetName(name)
	if slug == "" {
		return "", fmt.Errorf("preset name %q is empty after sanitization", name)
	}
	return filepath.Join(s.dir, slug+".json"), nil
}

func (s *PresetStore) Save(name string, p models.Preset) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode preset %s: %w", name, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preset %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize preset %s: %w", name, err)
	}

	metrics.IncrementPresetOp("save")
	logger.IncrementPresetOp()
	return nil
}

func (s *PresetStore) Load(name string) (models.Preset, error) {
	var p models.Preset

	path, err := s.path(name)
	if err != nil {
		return p, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
		}
		return p, fmt.Errorf("failed to read preset %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to decode preset %s: %w", name, err)
	}

	metrics.IncrementPresetOp("load")
	logger.IncrementPresetOp()
	return p, nil
}

// List returns the stored preset names sorted alphabetically.
func (s *PresetStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

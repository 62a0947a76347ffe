package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfigFile tests YAML defaults loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads values", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := "threshold: 0.35\nlimit: 25\nmodel: /opt/models/wd.onnx\ncache: true\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		cf.Apply(cfg)

		if cfg.Threshold != 0.35 {
			t.Errorf("Threshold = %v, want 0.35", cfg.Threshold)
		}
		if cfg.Limit != 25 {
			t.Errorf("Limit = %d, want 25", cfg.Limit)
		}
		if cfg.ModelPath != "/opt/models/wd.onnx" {
			t.Errorf("ModelPath = %q", cfg.ModelPath)
		}
		if !cfg.UseCache {
			t.Error("UseCache = false, want true")
		}
	})

	t.Run("absent keys keep defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("limit: 5\n"), 0600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		cf.Apply(cfg)

		if cfg.Threshold != DefaultThreshold {
			t.Errorf("Threshold = %v, want default %v", cfg.Threshold, DefaultThreshold)
		}
		if cfg.Limit != 5 {
			t.Errorf("Limit = %d, want 5", cfg.Limit)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("got %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("threshold: [broken\n"), 0600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})
}

// TestFindConfigFile tests the explicit-path branch.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "conf.yaml")
		if err := os.WriteFile(path, []byte("limit: 1\n"), 0600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("got %q, want %q", got, path)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope")); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})
}

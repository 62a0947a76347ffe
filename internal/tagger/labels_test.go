package tagger

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// TestFindLabelFile tests label file discovery order.
func TestFindLabelFile(t *testing.T) {
	t.Parallel()

	t.Run("prefers sibling csv with model name", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		modelPath := filepath.Join(dir, "model.onnx")
		sibling := filepath.Join(dir, "model.csv")
		fallback := filepath.Join(dir, "selected_tags.csv")
		for _, p := range []string{modelPath, sibling, fallback} {
			if err := os.WriteFile(p, []byte("cat\n"), 0600); err != nil {
				t.Fatalf("write %s: %v", p, err)
			}
		}

		got, err := findLabelFile(modelPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != sibling {
			t.Errorf("got %q, want %q", got, sibling)
		}
	})

	t.Run("falls back to selected_tags.csv", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		modelPath := filepath.Join(dir, "model.onnx")
		fallback := filepath.Join(dir, "selected_tags.csv")
		if err := os.WriteFile(fallback, []byte("cat\n"), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}

		got, err := findLabelFile(modelPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != fallback {
			t.Errorf("got %q, want %q", got, fallback)
		}
	})

	t.Run("missing label file returns ErrNoLabels", func(t *testing.T) {
		t.Parallel()

		_, err := findLabelFile(filepath.Join(t.TempDir(), "model.onnx"))
		if !errors.Is(err, ErrNoLabels) {
			t.Errorf("got %v, want ErrNoLabels", err)
		}
	})
}

// TestLoadLabels tests both accepted CSV layouts.
func TestLoadLabels(t *testing.T) {
	t.Parallel()

	t.Run("bare one-name-per-line layout", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "labels.csv")
		if err := os.WriteFile(path, []byte("cat\ndog\nlong_hair\n"), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}

		got, err := loadLabels(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"cat", "dog", "long_hair"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("selected_tags layout with header", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "selected_tags.csv")
		content := "tag_id,name,category,count\n1,cat,0,100\n2,dog,0,50\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}

		got, err := loadLabels(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"cat", "dog"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("empty file is an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "labels.csv")
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatalf("write: %v", err)
		}

		if _, err := loadLabels(path); err == nil {
			t.Error("expected error for empty label file")
		}
	})
}

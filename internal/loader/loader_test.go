package loader

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pictag/autotagger/internal/log"
)

// writePNG writes a small valid PNG and returns its path.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

// writeJunk writes a file that is not an image.
func writeJunk(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("this is not an image"), 0600); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	return path
}

// TestLoad tests single-file loading and error classification.
func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("decodes a valid image", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writePNG(t, dir, "a.png")

		entry, err := New().Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.Path != path {
			t.Errorf("Path = %q, want %q", entry.Path, path)
		}
		if entry.Image == nil {
			t.Fatal("expected decoded image")
		}
		if entry.Digest == "" {
			t.Error("expected non-empty digest")
		}
	})

	t.Run("undecodable file is classified", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writeJunk(t, dir, "b.txt")

		_, err := New().Load(path)
		if !errors.Is(err, ErrUndecodable) {
			t.Errorf("got %v, want ErrUndecodable", err)
		}
	})

	t.Run("missing file is not a decode error", func(t *testing.T) {
		t.Parallel()

		_, err := New().Load(filepath.Join(t.TempDir(), "ghost.jpg"))
		if err == nil {
			t.Fatal("expected error")
		}
		if errors.Is(err, ErrUndecodable) {
			t.Error("I/O failure must not be classified as a decode failure")
		}
	})

	t.Run("dash reads image bytes from stdin", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writePNG(t, dir, "in.png")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read png: %v", err)
		}

		l := New(WithStdin(bytes.NewReader(data)))
		entry, err := l.Load("-")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.Path != "-" {
			t.Errorf("Path = %q, want -", entry.Path)
		}
	})

	t.Run("digest is stable for identical bytes", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := writePNG(t, dir, "a.png")

		l := New()
		first, err := l.Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := l.Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.Digest != second.Digest {
			t.Errorf("digest changed between loads: %s vs %s", first.Digest, second.Digest)
		}
	})
}

// TestLoadBatch tests order preservation and skip behavior.
func TestLoadBatch(t *testing.T) {
	t.Parallel()

	t.Run("drops failures and keeps order", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		a := writePNG(t, dir, "a.png")
		b := writeJunk(t, dir, "b.txt")
		c := writePNG(t, dir, "c.png")

		var buf bytes.Buffer
		logger, tally := log.NewLogger(&buf, false)

		entries := New(WithLogger(logger)).LoadBatch([]string{a, b, c})

		if len(entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries))
		}
		if entries[0].Path != a || entries[1].Path != c {
			t.Errorf("order not preserved: %s, %s", entries[0].Path, entries[1].Path)
		}
		if tally.Warnings() != 1 {
			t.Errorf("got %d warnings, want 1", tally.Warnings())
		}
		if !strings.Contains(buf.String(), "b.txt") {
			t.Errorf("warning does not reference skipped path: %q", buf.String())
		}
	})

	t.Run("all failures yields empty batch", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		b := writeJunk(t, dir, "b.bin")
		missing := filepath.Join(dir, "missing.jpg")

		var buf bytes.Buffer
		logger, tally := log.NewLogger(&buf, false)

		entries := New(WithLogger(logger)).LoadBatch([]string{b, missing})
		if len(entries) != 0 {
			t.Errorf("got %d entries, want 0", len(entries))
		}
		if tally.Warnings() != 2 {
			t.Errorf("got %d warnings, want 2", tally.Warnings())
		}
	})
}

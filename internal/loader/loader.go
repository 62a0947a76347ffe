package loader

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"

	// Register the standard decoders plus the formats the original tool
	// accepted through PIL. WebP gets an explicit fallback below.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	exif "github.com/dsoprea/go-exif/v3"
	"golang.org/x/crypto/blake2b"

	"github.com/pictag/autotagger/internal/collector"
)

// ErrUndecodable marks files whose bytes could be read but not decoded
// as an image. Callers distinguish it from plain I/O failures with
// errors.Is.
var ErrUndecodable = errors.New("not a readable image")

// Entry is one successfully decoded batch member.
type Entry struct {
	// Path is the path as given, or "-" for standard input.
	Path string

	// Image is the decoded, upright image.
	Image image.Image

	// Digest is the hex BLAKE2b-256 digest of the raw file bytes,
	// used as the prediction cache key.
	Digest string
}

// Loader opens and decodes images for the pipeline.
type Loader struct {
	// logger receives one warning per skipped file.
	logger *slog.Logger

	// stdin is read when a path is the "-" sentinel.
	stdin io.Reader
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a custom logger for skip warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithStdin sets the reader used for the "-" sentinel.
// Defaults to os.Stdin.
func WithStdin(r io.Reader) Option {
	return func(l *Loader) {
		l.stdin = r
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		logger: slog.Default(),
		stdin:  os.Stdin,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadBatch decodes every path in the batch, preserving input order.
// Failed entries are logged and dropped entirely; the returned slice
// may therefore be shorter than paths.
func (l *Loader) LoadBatch(paths []string) []Entry {
	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		entry, err := l.Load(path)
		if err != nil {
			if errors.Is(err, ErrUndecodable) {
				l.logger.Warn("skipping file that is not a readable image", "path", path)
			} else {
				l.logger.Warn("skipping unreadable file", "path", path, "error", err)
			}
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Load reads and decodes a single path. The file is fully read and
// closed before decoding so no handle outlives the call.
func (l *Loader) Load(path string) (Entry, error) {
	var data []byte
	var err error

	if path == collector.Stdin {
		data, err = io.ReadAll(l.stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // User-provided image path is intentional
	}
	if err != nil {
		return Entry{}, err
	}

	img, err := DecodeBytes(data)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrUndecodable, path)
	}

	digest := blake2b.Sum256(data)

	return Entry{
		Path:   path,
		Image:  img,
		Digest: hex.EncodeToString(digest[:]),
	}, nil
}

// DecodeBytes decodes an in-memory image and applies its EXIF
// orientation. Returns ErrUndecodable when no decoder accepts the
// bytes. Used for uploads, which never touch the filesystem.
func DecodeBytes(data []byte) (image.Image, error) {
	img, err := decode(data)
	if err != nil {
		return nil, ErrUndecodable
	}
	return orient(img, data), nil
}

// decode tries the registered stdlib decoders first and falls back to
// an explicit WebP decode, which handles some lossy WebP variants the
// x/image decoder rejects.
func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}

	if img, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return img, nil
	}

	return nil, err
}

// orient applies the EXIF orientation tag so the model always sees the
// image upright. Missing or unparsable EXIF data leaves the image as
// decoded.
func orient(img image.Image, data []byte) image.Image {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return img
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return img
	}

	for _, entry := range entries {
		if entry.TagName != "Orientation" {
			continue
		}
		values, ok := entry.Value.([]uint16)
		if !ok || len(values) == 0 {
			return img
		}

		switch values[0] {
		case 2:
			return imaging.FlipH(img)
		case 3:
			return imaging.Rotate180(img)
		case 4:
			return imaging.FlipV(img)
		case 5:
			return imaging.Transpose(img)
		case 6:
			return imaging.Rotate270(img)
		case 7:
			return imaging.Transverse(img)
		case 8:
			return imaging.Rotate90(img)
		}
		return img
	}

	return img
}

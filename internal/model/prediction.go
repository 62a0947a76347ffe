package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// TagScore is a single label produced by the tagging model together
// with its confidence score in the range [0, 1].
type TagScore struct {
	Name  string  `json:"tag"`
	Score float64 `json:"score"`
}

// TagMap is the ordered collection of tags returned for one image.
//
// The order is the collaborator's order (descending score) and is
// significant: flattened output emits rows in this order, and grouped
// JSON preserves it. Callers must not re-sort a TagMap in place; use
// SortedDisplayNames for the alphabetical CSV form.
type TagMap []TagScore

// SortedDisplayNames returns tag names sorted alphabetically with
// underscores rendered as spaces. This is the display form used by
// grouped CSV output.
func (m TagMap) SortedDisplayNames() []string {
	names := make([]string, len(m))
	for i, t := range m {
		names[i] = strings.ReplaceAll(t.Name, "_", " ")
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the TagMap as a JSON object {"tag": score, ...}
// preserving insertion order.
//
// Design decision: encoding/json sorts map keys alphabetically, which
// would destroy the descending-score ordering the model returns
// (the original service explicitly disabled key sorting). We build the
// object by hand instead of using map[string]float64.
func (m TagMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(t.Name)
		if err != nil {
			return nil, err
		}
		score, err := json.Marshal(t.Score)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(score)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into a TagMap, preserving the
// key order of the document. Standard map decoding would randomize the
// order, so we walk the token stream instead.
func (m *TagMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("tagmap: expected object, got %v", tok)
	}

	out := TagMap{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("tagmap: expected string key, got %v", keyTok)
		}

		var score float64
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("tagmap: score for %q: %w", key, err)
		}
		out = append(out, TagScore{Name: key, Score: score})
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}

// Prediction pairs a display filename with the tags the model returned
// for that image. One Prediction is produced per successfully decoded
// image; failed images produce nothing.
type Prediction struct {
	Filename string `json:"filename"`
	Tags     TagMap `json:"tags"`
}

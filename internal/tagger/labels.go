package tagger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoLabels is returned when no label file can be found next to the
// model. The model output is meaningless without the index-to-name
// mapping, so this is fatal at construction time.
var ErrNoLabels = errors.New("no label file found for model")

// findLabelFile locates the label CSV that ships with a model.
// It tries, in order:
//  1. the model path with its extension replaced by .csv
//  2. selected_tags.csv in the model directory (the convention used by
//     publicly distributed tagger models)
func findLabelFile(modelPath string) (string, error) {
	ext := filepath.Ext(modelPath)
	candidates := []string{
		strings.TrimSuffix(modelPath, ext) + ".csv",
		filepath.Join(filepath.Dir(modelPath), "selected_tags.csv"),
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrNoLabels, strings.Join(candidates, ", "))
}

// loadLabels reads the label CSV into an index-ordered name list.
//
// Two layouts are accepted: a bare one-name-per-line file, and the
// multi-column selected_tags.csv layout (tag_id,name,category,count)
// whose header names a "name" column.
func loadLabels(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // Label path is derived from the user's model path
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // layouts differ; validate per record below

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse label file %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("label file %s is empty", path)
	}

	nameCol := 0
	start := 0
	for i, col := range records[0] {
		if col == "name" {
			nameCol = i
			start = 1
			break
		}
	}

	labels := make([]string, 0, len(records)-start)
	for i, record := range records[start:] {
		if nameCol >= len(record) {
			return nil, fmt.Errorf("label file %s: record %d has no name column", path, i+start+1)
		}
		labels = append(labels, record[nameCol])
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("label file %s has no labels", path)
	}
	return labels, nil
}

package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/domain/model"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// DecodeRows reads a JSON array of loosely keyed labelled records.
func DecodeRows(r io.Reader) ([]model.TrainingRow, error) {
	raw, err := decodeObjects(r)
	if err != nil {
		return nil, err
	}
	rows := make([]model.TrainingRow, 0, len(raw))
	for i, rec := range raw {
		row, err := features.FromLabeledMap(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DecodeEmployees reads a JSON object or array of unlabelled records.
func DecodeEmployees(r io.Reader) ([]model.Employee, error) {
	raw, err := decodeObjects(r)
	if err != nil {
		return nil, err
	}
	out := make([]model.Employee, 0, len(raw))
	for i, rec := range raw {
		emp, err := features.FromMap(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, emp)
	}
	return out, nil
}

// decodeObjects accepts either a single object or an array of objects.
func decodeObjects(r io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("read records: empty input")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if data[0] == '{' {
		var one map[string]any
		if err := dec.Decode(&one); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		return []map[string]any{one}, nil
	}
	var many []map[string]any
	if err := dec.Decode(&many); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return many, nil
}

// LoadFile reads labelled rows from a JSON file.
func LoadFile(path string) ([]model.TrainingRow, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return DecodeRows(f)
}

// flatRow is the on-disk shape of a labelled row.
type flatRow struct {
	model.Employee
	Left int `json:"left"`
}

// SaveFile writes rows as a JSON array, creating parent directories.
func SaveFile(path string, rows []model.TrainingRow) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}
	flat := make([]flatRow, len(rows))
	for i := range rows {
		flat[i] = flatRow{Employee: rows[i].Employee}
		if rows[i].Left {
			flat[i].Left = 1
		}
	}
	data, err := json.MarshalIndent(flat, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

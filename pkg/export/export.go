// Package export writes extracted records as CSV, JSON or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Sternrassler/jira-data-client/pkg/extract"
	"gopkg.in/yaml.v3"
)

// Format names accepted by Write.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// WriteCSV writes a header of key plus paths, then one row per record.
// Absent and null values are written as empty cells.
func WriteCSV(w io.Writer, paths []string, records []extract.Record) error {
	cw := csv.NewWriter(w)

	header := append([]string{extract.KeyColumn}, paths...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range records {
		row := make([]string, 0, len(paths)+1)
		row = append(row, r.Key)
		for _, p := range paths {
			v, _ := r.Get(p)
			cell, err := Cell(v)
			if err != nil {
				return fmt.Errorf("format %s of %s: %w", p, r.Key, err)
			}
			row = append(row, cell)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.Key, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Cell renders one value for CSV. Strings are verbatim, numbers use the
// shortest decimal form, and objects or arrays are JSON-encoded.
func Cell(v extract.Value) (string, error) {
	if !v.Present || v.Data == nil {
		return "", nil
	}
	switch d := v.Data.(type) {
	case string:
		return d, nil
	case bool:
		return strconv.FormatBool(d), nil
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(d), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(d), nil
	case int64:
		return strconv.FormatInt(d, 10), nil
	case json.Number:
		return d.String(), nil
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// WriteJSON writes records as an indented JSON array of Record.Map.
func WriteJSON(w io.Writer, records []extract.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(extract.Maps(records)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteYAML writes records as a YAML sequence of Record.Map.
func WriteYAML(w io.Writer, records []extract.Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(extract.Maps(records)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// ValidFormat reports an error for format names Write does not support.
// The empty name means FormatCSV.
func ValidFormat(format string) error {
	switch format {
	case FormatCSV, FormatJSON, FormatYAML, "":
		return nil
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// Write dispatches on format.
func Write(w io.Writer, format string, paths []string, records []extract.Record) error {
	if err := ValidFormat(format); err != nil {
		return err
	}
	switch format {
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatYAML:
		return WriteYAML(w, records)
	default:
		return WriteCSV(w, paths, records)
	}
}

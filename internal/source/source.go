// Package source reads business inputs from CSV or JSON files.
package source

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// Sentinel errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrMissingName       = errors.New("input has no name column")
)

// aliases maps accepted column names to BusinessInput fields.
var aliases = map[string]string{
	"name":         "name",
	"address":      "address",
	"phone":        "phone_number",
	"phone_number": "phone_number",
	"website":      "website_url",
	"website_url":  "website_url",
	"url":          "website_url",
}

// Load reads inputs from path, choosing the reader by file extension.
func Load(path string) ([]domain.BusinessInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".json":
		return ReadJSON(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadCSV reads a CSV file with a header row. Unknown columns are kept as
// passthrough fields in column order. Blank rows are skipped.
func ReadCSV(r io.Reader) ([]domain.BusinessInput, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []domain.BusinessInput{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	if !hasName(header) {
		return nil, ErrMissingName
	}

	inputs := []domain.BusinessInput{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if blank(row) {
			continue
		}

		var in domain.BusinessInput
		for i, col := range header {
			var val string
			if i < len(row) {
				val = row[i]
			}
			set(&in, col, val)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// ReadJSON reads a JSON array of objects. Non-string values of unknown keys
// are kept in their JSON encoding; unknown keys are ordered by name.
func ReadJSON(r io.Reader) ([]domain.BusinessInput, error) {
	var rows []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode json input: %w", err)
	}

	inputs := make([]domain.BusinessInput, 0, len(rows))
	for i, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		if !hasName(keys) {
			return nil, fmt.Errorf("entry %d: %w", i, ErrMissingName)
		}
		slices.Sort(keys)

		var in domain.BusinessInput
		for _, k := range keys {
			set(&in, k, rawString(row[k]))
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func set(in *domain.BusinessInput, column, val string) {
	switch aliases[strings.ToLower(column)] {
	case "name":
		in.Name = strings.TrimSpace(val)
	case "address":
		in.Address = strings.TrimSpace(val)
	case "phone_number":
		in.PhoneNumber = strings.TrimSpace(val)
	case "website_url":
		val = strings.TrimSpace(val)
		if in.WebsiteURL == "" || (strings.EqualFold(column, "website_url") && val != "") {
			in.WebsiteURL = val
		}
	default:
		in.Extra = append(in.Extra, domain.Field{Key: column, Value: val})
	}
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

func hasName(columns []string) bool {
	return slices.ContainsFunc(columns, func(c string) bool {
		return strings.EqualFold(c, "name")
	})
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

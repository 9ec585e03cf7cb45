// Package parser decodes collection files into raw records.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/jobtrail/internal/models"
)

// Result holds the output of parsing a collection file.
type Result struct {
	Records []models.Record
	// Skipped counts array elements that were not objects.
	Skipped int
}

// IsYAML reports whether name carries a YAML extension.
func IsYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Parse decodes data as JSON or YAML depending on the extension of name.
// A payload that is not an array yields no records and no error.
func Parse(name string, data []byte) (*Result, error) {
	var raw any
	if len(bytes.TrimSpace(data)) == 0 {
		return &Result{}, nil
	}
	if IsYAML(name) {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parser: decode yaml %s: %w", name, err)
		}
	} else {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parser: decode json %s: %w", name, err)
		}
	}

	items, ok := raw.([]any)
	if !ok {
		return &Result{}, nil
	}
	res := &Result{Records: make([]models.Record, 0, len(items))}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, models.Record(obj))
	}
	return res, nil
}

// Encode serialises records in the format implied by name.
func Encode(name string, records []models.Record) ([]byte, error) {
	if records == nil {
		records = []models.Record{}
	}
	if IsYAML(name) {
		out, err := yaml.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("parser: encode yaml %s: %w", name, err)
		}
		return out, nil
	}
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("parser: encode json %s: %w", name, err)
	}
	return append(out, '\n'), nil
}

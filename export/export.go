// Package export writes and reads favorites documents for backup and transfer.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/robertmeta/nutriinfo-cli/model"
	"gopkg.in/yaml.v3"
)

// DocumentVersion is written into every exported document.
const DocumentVersion = "1.0"

// Format is the encoding of an exported document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported export format: %q (expected json or yaml)", s)
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is the exported favorites file.
type Document struct {
	Version    string         `json:"version" yaml:"version"`
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	Favorites  []model.Recipe `json:"favorites" yaml:"favorites"`
}

// Generate writes the favorites in order.
func Generate(w io.Writer, recipes []model.Recipe, format Format) error {
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	doc := Document{
		Version:    DocumentVersion,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Favorites:  recipes,
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to flush YAML: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format: %q", format)
	}

	return nil
}

// Parse reads a favorites document. A JSON input may also be a bare array
// of recipes, which is how the favorites slot itself is stored.
// Entries without a name are rejected.
func Parse(r io.Reader, format Format) ([]model.Recipe, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &doc.Favorites)
		} else {
			err = json.Unmarshal(trimmed, &doc)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}

	for i := range doc.Favorites {
		if err := doc.Favorites[i].Validate(); err != nil {
			return nil, fmt.Errorf("favorite %d: %w", i+1, err)
		}
	}

	return doc.Favorites, nil
}

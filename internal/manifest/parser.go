package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"
)

// ErrInvalidManifest is returned when a manifest cannot be read, parsed, or
// fails schema validation.
var ErrInvalidManifest = errors.New("invalid extension manifest")

// Format is the serialization of a manifest file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatFor picks the format from the file extension. Anything other than
// .yaml or .yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ValidationError reports the schema issues of a rejected manifest.
// It matches ErrInvalidManifest with errors.Is.
type ValidationError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidManifest }

// Load reads, validates, and decodes the manifest at path.
func Load(path string) (*Extensions, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	m, err := Parse(data, FormatFor(path))
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Path = path
			return nil, ve
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidManifest, path, err)
	}
	return m, nil
}

// Parse validates data against the schema and decodes it.
func Parse(data []byte, format Format) (*Extensions, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty %s document", format)
	}

	result, err := Validate(data, format)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &ValidationError{Path: "<input>", Issues: result.Issues}
	}

	var m Extensions
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s manifest: %w", format, err)
	}
	return &m, nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}

// Package loader parses structured documents (JSON, NDJSON, YAML, TOML) into
// order-preserving values.
package loader

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/exprsense/pkg/value"
)

// Format names a document encoding.
type Format string

const (
	FormatAuto   Format = ""
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
)

// ErrEmptyInput is returned when there is nothing to parse.
var ErrEmptyInput = errors.New("empty input")

// LoadData loads structured data from a string, auto-detecting format.
// Supports:
// - Single JSON object/array
// - Newline-delimited JSON (NDJSON): one JSON value per line
// - YAML: single document or multi-document (separated by ---)
// - TOML
//
// Each parsed document is one element of the returned slice.
func LoadData(input string) ([]value.Value, error) {
	input = normalizeLineEndings(strings.TrimSpace(input))
	if input == "" {
		return nil, ErrEmptyInput
	}
	return parse(input, DetectFormat(input))
}

// DetectFormat guesses the encoding of input using content heuristics.
func DetectFormat(input string) Format {
	input = strings.TrimSpace(input)
	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return FormatYAML
	}
	lines := strings.Split(input, "\n")
	if len(lines) > 1 && isLikelyNDJSON(lines) {
		return FormatNDJSON
	}
	// TOML [section] headers look like JSON arrays, so TOML is checked first.
	if isLikelyTOML(input) {
		return FormatTOML
	}
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		return FormatJSON
	}
	return FormatYAML
}

// FormatFromPath maps a file extension to a Format, or FormatAuto when unknown.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatAuto
	}
}

// LoadRoot parses input into a single root value. Multi-document inputs are
// returned as an array.
func LoadRoot(input string) (value.Value, error) {
	docs, err := LoadData(input)
	if err != nil {
		return value.Null(), err
	}
	return rootOf(docs), nil
}

// LoadReader reads all of r and parses it into a single root value.
func LoadReader(r io.Reader) (value.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return value.Null(), errors.Wrap(err, "read input")
	}
	return LoadRoot(string(data))
}

// LoadFile reads a file and parses it into a single root value.
func LoadFile(path string) (value.Value, error) {
	return LoadFileWithLogger(path, logr.Discard())
}

// LoadFileWithLogger is like LoadFile but records the chosen format and any
// fallback on lgr. The file extension is tried first; when that parser fails
// the content heuristics decide.
func LoadFileWithLogger(path string, lgr logr.Logger) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Null(), errors.Wrapf(err, "read %s", path)
	}
	input := normalizeLineEndings(strings.TrimSpace(string(data)))
	if input == "" {
		return value.Null(), errors.Wrapf(ErrEmptyInput, "%s", path)
	}

	if format := FormatFromPath(path); format != FormatAuto {
		docs, err := parse(input, format)
		if err == nil {
			lgr.V(1).Info("loaded file", "path", path, "format", format, "documents", len(docs))
			return rootOf(docs), nil
		}
		lgr.V(1).Info("extension parser failed, detecting format", "path", path, "format", format, "error", err.Error())
	}

	format := DetectFormat(input)
	docs, err := parse(input, format)
	if err != nil {
		return value.Null(), errors.Wrapf(err, "parse %s", path)
	}
	lgr.V(1).Info("loaded file", "path", path, "format", format, "documents", len(docs))
	return rootOf(docs), nil
}

// LoadObject accepts already parsed Go data. Strings and byte slices are parsed
// with format detection; everything else is converted with value.FromNative.
func LoadObject(in any) (value.Value, error) {
	switch v := in.(type) {
	case nil:
		return value.Null(), errors.New("object input is nil")
	case string:
		return LoadRoot(v)
	case []byte:
		return LoadRoot(string(v))
	default:
		root, err := value.FromNative(v)
		if err != nil {
			return value.Null(), err
		}
		if root.IsNull() {
			return value.Null(), errors.New("object input is nil")
		}
		return root, nil
	}
}

// normalizeLineEndings turns CRLF and lone CR into LF. Progress output from
// CLI tools uses a bare CR to overwrite the current line.
func normalizeLineEndings(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

func rootOf(docs []value.Value) value.Value {
	if len(docs) == 1 {
		return docs[0]
	}
	return value.Array(docs...)
}

func parse(input string, format Format) ([]value.Value, error) {
	switch format {
	case FormatJSON:
		return loadJSON(input)
	case FormatNDJSON:
		return loadNDJSON(input)
	case FormatTOML:
		return loadTOML(input)
	default:
		return loadYAML(input)
	}
}

// loadJSON parses a single JSON object or array. JSON is decoded through the
// YAML node API, which keeps key order.
func loadJSON(input string) ([]value.Value, error) {
	v, err := value.DecodeJSON([]byte(input))
	if err != nil {
		return nil, err
	}
	return []value.Value{v}, nil
}

// loadYAML parses one or more YAML documents.
func loadYAML(input string) ([]value.Value, error) {
	var docs []value.Value
	decoder := yaml.NewDecoder(strings.NewReader(input))
	for {
		var node yaml.Node
		if err := decoder.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrap(err, "invalid YAML")
		}
		v, err := value.FromYAMLNode(&node)
		if err != nil {
			return nil, errors.Wrap(err, "invalid YAML")
		}
		if !v.IsNull() {
			docs = append(docs, v)
		}
	}
	if len(docs) == 0 {
		return nil, errors.New("no documents found in YAML")
	}
	return docs, nil
}

// loadNDJSON parses newline-delimited JSON. Lines that are not valid JSON are
// kept as plain strings.
func loadNDJSON(input string) ([]value.Value, error) {
	lines := strings.Split(input, "\n")
	docs := make([]value.Value, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := value.DecodeJSON([]byte(line))
		if err != nil {
			docs = append(docs, value.String(line))
			continue
		}
		docs = append(docs, v)
	}
	if len(docs) == 0 {
		return nil, errors.New("no data found in input")
	}
	return docs, nil
}

// loadTOML parses TOML. Tables come back as Go maps, so their keys are sorted.
func loadTOML(input string) ([]value.Value, error) {
	var data map[string]any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, errors.Wrap(err, "invalid TOML")
	}
	v, err := value.FromNative(data)
	if err != nil {
		return nil, err
	}
	return []value.Value{v}, nil
}

// isLikelyNDJSON requires multiple non-empty lines, most of which start like
// a JSON object or array. Bare YAML list items therefore do not qualify.
func isLikelyNDJSON(lines []string) bool {
	jsonCount := 0
	nonEmptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmptyCount++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	return nonEmptyCount > 1 && jsonCount > nonEmptyCount/2
}

var (
	// [server], [[items]], ["table name"], [database.credentials]
	tomlSectionPattern = regexp.MustCompile(`^\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// name = "value" (YAML would use a colon)
	tomlKeyValuePattern = regexp.MustCompile(`^(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// isLikelyTOML looks for unindented section headers or a majority of
// key = value lines.
func isLikelyTOML(input string) bool {
	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++
		if tomlSectionPattern.MatchString(line) {
			sectionCount++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValueCount++
		}
	}
	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}

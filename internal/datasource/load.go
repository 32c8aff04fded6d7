// Package datasource loads tspview inputs from disk: city sets to submit and
// saved optimizer responses to render offline.
//
// The format is chosen by file extension:
//   - .yaml, .yml: a list of cities, or a document with a "cities" key
//   - .json: the same shapes as YAML
//   - .jsonl: one city (or one response) per line; malformed lines are skipped
package datasource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/tspview/pkg/debug"
	"github.com/vanderheijden86/tspview/pkg/model"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for extensions no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// DefaultMaxLineSize bounds a single JSONL line (1MB).
const DefaultMaxLineSize = 1024 * 1024

// Format identifies an input encoding.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

// DetectFormat maps a path's extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// ParseOptions configures line-oriented parsing.
type ParseOptions struct {
	// WarningHandler receives one message per skipped line. Nil logs to the
	// debug logger.
	WarningHandler func(string)
	// MaxLineSize bounds a single line; 0 uses DefaultMaxLineSize.
	MaxLineSize int
}

func (o ParseOptions) warn(msg string) {
	if o.WarningHandler != nil {
		o.WarningHandler(msg)
		return
	}
	debug.Log("datasource: %s", msg)
}

// citiesDoc is the keyed document form of a city list.
type citiesDoc struct {
	Cities []model.City `yaml:"cities" json:"cities"`
}

// LoadCities reads and validates a city list.
func LoadCities(path string) ([]model.City, error) {
	return LoadCitiesWithOptions(path, ParseOptions{})
}

// LoadCitiesWithOptions is LoadCities with explicit JSONL options.
func LoadCitiesWithOptions(path string, opts ParseOptions) ([]model.City, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cities: %w", err)
	}
	defer f.Close()

	var cities []model.City
	switch format {
	case FormatJSONL:
		cities, err = ParseCitiesJSONL(f, opts)
	default:
		cities, err = parseCitiesDoc(f, format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, c := range cities {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s: city %d: %w", path, i+1, err)
		}
	}
	if len(cities) == 0 {
		return nil, fmt.Errorf("%s: %w: no cities", path, model.ErrInvalidCity)
	}
	return cities, nil
}

func parseCitiesDoc(r io.Reader, format Format) ([]model.City, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = stripBOM(data)

	var list []model.City
	var doc citiesDoc
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &list); err == nil {
			return list, nil
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &list); err != nil {
				return nil, err
			}
			return list, nil
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
	}
	return doc.Cities, nil
}

// ParseCitiesJSONL reads one city per line. Blank, malformed and invalid
// lines are skipped with a warning.
func ParseCitiesJSONL(r io.Reader, opts ParseOptions) ([]model.City, error) {
	var cities []model.City
	err := eachLine(r, opts, func(lineNum int, line []byte) {
		var c model.City
		if err := json.Unmarshal(line, &c); err != nil {
			opts.warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			return
		}
		if err := c.Validate(); err != nil {
			opts.warn(fmt.Sprintf("skipping invalid city on line %d: %v", lineNum, err))
			return
		}
		cities = append(cities, c)
	})
	return cities, err
}

// LoadResponse reads a saved optimizer response. A .jsonl file is treated as
// a recorded stream and its last decodable line wins.
func LoadResponse(path string) (model.Response, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return model.Response{}, err
	}
	if format == FormatYAML {
		return model.Response{}, fmt.Errorf("%w: responses are JSON", ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return model.Response{}, fmt.Errorf("open response: %w", err)
	}
	defer f.Close()

	if format == FormatJSONL {
		var last model.Response
		found := false
		opts := ParseOptions{}
		err := eachLine(f, opts, func(lineNum int, line []byte) {
			resp, err := model.DecodeResponse(line)
			if err != nil {
				opts.warn(fmt.Sprintf("skipping malformed response on line %d: %v", lineNum, err))
				return
			}
			last, found = resp, true
		})
		if err != nil {
			return model.Response{}, fmt.Errorf("read %s: %w", path, err)
		}
		if !found {
			return model.Response{}, fmt.Errorf("%s: no response found", path)
		}
		return last, nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return model.Response{}, fmt.Errorf("read %s: %w", path, err)
	}
	resp, err := model.DecodeResponse(stripBOM(data))
	if err != nil {
		return model.Response{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return resp, nil
}

// eachLine calls fn for every non-empty line. Over-long lines are skipped.
func eachLine(r io.Reader, opts ParseOptions, fn func(lineNum int, line []byte)) error {
	size := opts.MaxLineSize
	if size <= 0 {
		size = DefaultMaxLineSize
	}
	reader := bufio.NewReaderSize(r, size)

	for lineNum := 1; ; lineNum++ {
		line, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		if isPrefix {
			opts.warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, size))
			for isPrefix {
				if _, isPrefix, err = reader.ReadLine(); err != nil {
					if err == io.EOF {
						return nil
					}
					return fmt.Errorf("line %d: %w", lineNum, err)
				}
			}
			continue
		}
		if lineNum == 1 {
			line = stripBOM(line)
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		fn(lineNum, line)
	}
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}

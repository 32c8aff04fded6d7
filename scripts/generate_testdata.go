//go:build ignore

// generate_testdata.go writes the sample inputs under testdata/.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/cities/small.yaml      (10 cities)
//	testdata/cities/medium.yaml     (60 cities)
//	testdata/cities/large.jsonl     (500 cities)
//	testdata/responses/medium.json  (one solution for medium.yaml, 4 vehicles)
//	testdata/responses/medium.jsonl (a 10-generation stream for medium.yaml)
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/tspview/pkg/model"
	"github.com/vanderheijden86/tspview/pkg/testutil"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type dataset struct {
	name  string
	size  int
	ext   string
	named bool
}

var datasets = []dataset{
	{"small", 10, ".yaml", true},
	{"medium", 60, ".yaml", false},
	{"large", 500, ".jsonl", false},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	citiesDir := filepath.Join("testdata", "cities")
	respDir := filepath.Join("testdata", "responses")
	for _, dir := range []string{citiesDir, respDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	var medium []model.City
	for _, ds := range datasets {
		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.size)
		cfg.Named = ds.named
		cities := testutil.New(cfg).Cities(ds.size)
		if ds.name == "medium" {
			medium = cities
		}

		path := filepath.Join(citiesDir, ds.name+ds.ext)
		if err := writeCities(path, cities); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Printf("Wrote %s (%d cities)\n", path, len(cities))
	}

	gen := testutil.NewDefault()
	single, err := json.MarshalIndent(gen.Solution(medium, 4), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(respDir, "medium.json"), single, 0o644); err != nil {
		return err
	}

	stream, err := testutil.ToJSONL(gen.Stream(medium, 4, 10))
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(respDir, "medium.jsonl"), []byte(stream), 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote responses to %s\n", respDir)
	return nil
}

func writeCities(path string, cities []model.City) error {
	if strings.HasSuffix(path, ".jsonl") {
		var sb strings.Builder
		for _, c := range cities {
			line, err := json.Marshal(c)
			if err != nil {
				return err
			}
			sb.Write(line)
			sb.WriteByte('\n')
		}
		return os.WriteFile(path, []byte(sb.String()), 0o644)
	}
	data, err := yaml.Marshal(map[string][]model.City{"cities": cities})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

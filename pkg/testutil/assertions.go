package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/tspview/pkg/model"
	"github.com/vanderheijden86/tspview/pkg/scene"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// AssertInViewport verifies every projected point and route vertex lies
// inside the scene's drawable area.
func AssertInViewport(t *testing.T, sc *scene.Scene) {
	t.Helper()
	vp := sc.Scaler.Viewport()
	lo, hiX, hiY := vp.Margin-1e-9, vp.Width-vp.Margin+1e-9, vp.Height-vp.Margin+1e-9
	for i, p := range sc.Points {
		if p.Pos.X < lo || p.Pos.X > hiX || p.Pos.Y < lo || p.Pos.Y > hiY {
			t.Errorf("point %d at %v outside viewport %+v", i, p.Pos, vp)
		}
	}
	for _, r := range sc.Routes {
		for j, v := range r.Path {
			if v.X < lo || v.X > hiX || v.Y < lo || v.Y > hiY {
				t.Errorf("route %d vertex %d at %v outside viewport %+v", r.Index, j, v, vp)
			}
		}
	}
}

// AssertRoutesAligned verifies each route's path and names describe the same
// stops, and that the legend mirrors the routes.
func AssertRoutesAligned(t *testing.T, sc *scene.Scene) {
	t.Helper()
	if len(sc.Legend) != len(sc.Routes) {
		t.Fatalf("legend has %d rows for %d routes", len(sc.Legend), len(sc.Routes))
	}
	for i, r := range sc.Routes {
		if len(r.Path) != len(r.Names) {
			t.Errorf("route %d: %d vertices but %d names", i, len(r.Path), len(r.Names))
		}
		if r.Index != i {
			t.Errorf("route %d has index %d", i, r.Index)
		}
		e := sc.Legend[i]
		if e.Index != i+1 || e.Color != scene.Hex(r.Color) {
			t.Errorf("legend row %d = %+v, route color %s", i, e, scene.Hex(r.Color))
		}
	}
}

// AssertAllValid verifies every city passes validation.
func AssertAllValid(t *testing.T, cities []model.City) {
	t.Helper()
	for i, c := range cities {
		if err := c.Validate(); err != nil {
			t.Errorf("city %d invalid: %v", i, err)
		}
	}
}

// AssertJSONEqual compares two values by their JSON encoding.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()
	want, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("marshal expected: %v", err)
	}
	got, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("marshal actual: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", want, got)
	}
}

// GoldenFile compares output against a file under testdata. Set
// GENERATE_GOLDEN to rewrite it.
type GoldenFile struct {
	t      *testing.T
	path   string
	update bool
}

// NewGoldenFile creates a golden file helper for dir/name.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		path:   filepath.Join(dir, name),
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the golden file path.
func (g *GoldenFile) Path() string { return g.path }

// Assert compares actual with the golden content, reporting the first
// differing line.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	if g.update {
		if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(g.path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", g.path)
		return
	}

	expected, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", g.path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}
	if string(expected) == actual {
		return
	}

	want := strings.Split(string(expected), "\n")
	got := strings.Split(actual, "\n")
	for i := 0; i < len(want) || i < len(got); i++ {
		var w, a string
		if i < len(want) {
			w = want[i]
		}
		if i < len(got) {
			a = got[i]
		}
		if w != a {
			g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, w, a)
			return
		}
	}
	g.t.Errorf("golden file mismatch (length differs)")
}

// WriteCitiesFile writes cities as YAML to dir/name and returns the path.
func WriteCitiesFile(t *testing.T, dir, name string, cities []model.City) string {
	t.Helper()
	data, err := yaml.Marshal(cities)
	if err != nil {
		t.Fatalf("marshal cities: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write cities: %v", err)
	}
	return path
}

// WriteResponseFile writes resp as JSON to dir/name and returns the path.
func WriteResponseFile(t *testing.T, dir, name string, resp model.Response) string {
	t.Helper()
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write response: %v", err)
	}
	return path
}

package main_test

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/tspview/pkg/testutil"
)

func TestVersionFlag(t *testing.T) {
	stdout, _, err := runTspview(t, t.TempDir(), 10*time.Second, "-version")
	if err != nil {
		t.Fatalf("-version failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "tspview ") {
		t.Errorf("version output = %q", stdout)
	}
}

func TestFlagErrors(t *testing.T) {
	tests := [][]string{
		{"-watch"},
		{"-form", "-cities", "c.yaml"},
		{"-settle", "0"},
		{"-no-such-flag"},
	}
	for _, args := range tests {
		_, stderr, err := runTspview(t, t.TempDir(), 10*time.Second, args...)
		if code := exitCode(err); code != 2 {
			t.Errorf("tspview %v exit = %d, want 2\n%s", args, code, stderr)
		}
	}
}

func TestSnapshotFromSavedResponse_SVG(t *testing.T) {
	dir := t.TempDir()
	_, resp := testutil.QuickResponse(8, 3)
	respPath := testutil.WriteResponseFile(t, dir, "resp.json", resp)

	stdout, stderr, err := runTspview(t, dir, 20*time.Second, "-response", respPath, "-snapshot", "routes")
	if err != nil {
		t.Fatalf("snapshot failed: %v\n%s", err, stderr)
	}

	data, err := os.ReadFile(filepath.Join(dir, "routes.svg"))
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if !bytes.Contains(data, []byte("<svg")) || !bytes.Contains(data, []byte("Route 3")) {
		t.Errorf("svg is missing the plot or legend")
	}
	for _, want := range []string{"Generation 1", "Route 1", "Route 3"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestSnapshotFromRecordedStream_PNG(t *testing.T) {
	dir := t.TempDir()
	g := testutil.NewDefault()
	cities := g.Cities(6)
	stream, err := testutil.ToJSONL(g.Stream(cities, 2, 4))
	if err != nil {
		t.Fatal(err)
	}
	streamPath := filepath.Join(dir, "run.jsonl")
	if err := os.WriteFile(streamPath, []byte(stream), 0o644); err != nil {
		t.Fatal(err)
	}
	citiesPath := testutil.WriteCitiesFile(t, dir, "cities.yaml", cities)
	out := filepath.Join(dir, "out.png")

	stdout, stderr, err := runTspview(t, dir, 20*time.Second,
		"-cities", citiesPath, "-response", streamPath, "-snapshot", out)
	if err != nil {
		t.Fatalf("snapshot failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "Generation 4") {
		t.Errorf("the last generation of the stream should win:\n%s", stdout)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if img.Bounds().Dx() <= 800 {
		t.Errorf("png width %d leaves no room for the legend", img.Bounds().Dx())
	}
}

func TestSnapshotHooks(t *testing.T) {
	dir := t.TempDir()
	_, resp := testutil.QuickResponse(5, 2)
	respPath := testutil.WriteResponseFile(t, dir, "resp.json", resp)
	if err := os.MkdirAll(filepath.Join(dir, ".tspview"), 0o755); err != nil {
		t.Fatal(err)
	}
	hooks := `hooks:
  post-export:
    - name: record
      command: echo "$TSPVIEW_EXPORT_PATH $TSPVIEW_GENERATION" > hook.out
`
	if err := os.WriteFile(filepath.Join(dir, ".tspview", "hooks.yaml"), []byte(hooks), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := runTspview(t, dir, 20*time.Second, "-response", respPath, "-snapshot", "snap.svg")
	if err != nil {
		t.Fatalf("snapshot failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(stderr, "1 succeeded, 0 failed") {
		t.Errorf("hook summary missing:\n%s", stderr)
	}
	got, err := os.ReadFile(filepath.Join(dir, "hook.out"))
	if err != nil {
		t.Fatalf("hook did not run: %v", err)
	}
	if strings.TrimSpace(string(got)) != "snap.svg 1" {
		t.Errorf("hook env = %q", got)
	}
}

func TestSnapshotMissingInput(t *testing.T) {
	_, stderr, err := runTspview(t, t.TempDir(), 10*time.Second, "-snapshot", "x.svg")
	if exitCode(err) != 1 {
		t.Fatalf("exit = %d, want 1", exitCode(err))
	}
	if !strings.Contains(stderr, "-snapshot needs") {
		t.Errorf("stderr = %q", stderr)
	}
}

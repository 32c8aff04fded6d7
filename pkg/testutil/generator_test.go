package testutil

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/tspview/pkg/model"
	"github.com/vanderheijden86/tspview/pkg/scene"
)

func TestCities(t *testing.T) {
	cities := NewDefault().Cities(25)
	if len(cities) != 25 {
		t.Fatalf("expected 25 cities, got %d", len(cities))
	}
	AssertAllValid(t, cities)
	for i, c := range cities {
		if c.X < 0 || c.X > 1000 || c.Y < 0 || c.Y > 1000 {
			t.Errorf("city %d outside domain: %+v", i, c)
		}
		if c.Demand < 1 || c.Demand > 10 {
			t.Errorf("city %d demand %v outside [1,10]", i, c.Demand)
		}
		if c.Name != "" {
			t.Errorf("unnamed config produced name %q", c.Name)
		}
	}
}

func TestCities_Named(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Named = true
	cities := New(cfg).Cities(3)
	if cities[2].Name != "City-003" {
		t.Errorf("name = %q", cities[2].Name)
	}
}

func TestDeterminism(t *testing.T) {
	a := New(DefaultConfig()).Cities(10)
	b := New(DefaultConfig()).Cities(10)
	AssertJSONEqual(t, a, b)

	cfg := DefaultConfig()
	cfg.Seed = 7
	c := New(cfg).Cities(10)
	if a[0] == c[0] && a[1] == c[1] {
		t.Error("different seeds should give different cities")
	}
}

func TestGrid(t *testing.T) {
	cities := Grid(3, 2)
	if len(cities) != 6 {
		t.Fatalf("expected 6 cities, got %d", len(cities))
	}
	if cities[4].X != 1 || cities[4].Y != 1 {
		t.Errorf("cities[4] = %+v", cities[4])
	}
}

func TestSolution(t *testing.T) {
	cities := Grid(2, 2)
	resp := NewDefault().Solution(cities, 2)

	if len(resp.Solution.Vehicles) != 2 {
		t.Fatalf("expected 2 vehicles, got %d", len(resp.Solution.Vehicles))
	}
	// round-robin: vehicle 0 gets cities 0 and 2, which are one unit apart
	v := resp.Solution.Vehicles[0]
	if got := v.Route.Customers; len(got) != 2 || got[0] != "0" || got[1] != "2" {
		t.Errorf("customers = %v", got)
	}
	if v.Route.Distance.Float64() != 1 {
		t.Errorf("distance = %v", v.Route.Distance)
	}
	if resp.BestDistance.Float64() != 2 {
		t.Errorf("best distance = %v", resp.BestDistance)
	}

	sc := scene.Build(model.CityPoints(cities), resp.Solution.Routes(), scene.DefaultOptions(400, 300))
	AssertInViewport(t, sc)
	AssertRoutesAligned(t, sc)
}

func TestIDOnlySolution(t *testing.T) {
	cities := QuickCities(6)
	resp := NewDefault().IDOnlySolution(cities, 3)
	for i, v := range resp.Solution.Vehicles {
		if len(v.Route.Coordinates) != 0 {
			t.Errorf("vehicle %d has coordinates", i)
		}
		if len(v.Route.Customers) != 2 {
			t.Errorf("vehicle %d has %d customers", i, len(v.Route.Customers))
		}
	}

	points := model.CityPoints(cities)
	sc := scene.Build(points, resp.Solution.Routes(), scene.DefaultOptions(640, 480))
	AssertRoutesAligned(t, sc)
	// id lookup places vertices exactly on the city points
	if sc.Routes[1].Path[0] != sc.Points[1].Pos {
		t.Errorf("route 1 starts at %v, want %v", sc.Routes[1].Path[0], sc.Points[1].Pos)
	}
}

func TestStreamAndJSONL(t *testing.T) {
	cities := QuickCities(8)
	stream := NewDefault().Stream(cities, 2, 4)
	if len(stream) != 4 {
		t.Fatalf("expected 4 responses, got %d", len(stream))
	}
	for i := 1; i < len(stream); i++ {
		if stream[i].Generation != i+1 {
			t.Errorf("generation %d = %d", i, stream[i].Generation)
		}
		if stream[i].BestDistance > stream[i-1].BestDistance {
			t.Errorf("best distance grew at %d", i)
		}
	}

	out, err := ToJSONL(stream)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	last, err := model.DecodeResponse([]byte(lines[3]))
	if err != nil {
		t.Fatalf("decode last line: %v", err)
	}
	if last.Generation != 4 || len(last.Solution.Vehicles) != 2 {
		t.Errorf("decoded = generation %d, %d vehicles", last.Generation, len(last.Solution.Vehicles))
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	cities, resp := QuickResponse(4, 1)
	if p := WriteCitiesFile(t, dir, "cities.yaml", cities); !strings.HasSuffix(p, "cities.yaml") {
		t.Errorf("path = %s", p)
	}
	if p := WriteResponseFile(t, dir, "resp.json", resp); !strings.HasSuffix(p, "resp.json") {
		t.Errorf("path = %s", p)
	}
}

func BenchmarkSceneBuild500(b *testing.B) {
	cities, resp := QuickResponse(500, 8)
	points := model.CityPoints(cities)
	routes := resp.Solution.Routes()
	opts := scene.DefaultOptions(1280, 800)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scene.Build(points, routes, opts)
	}
}

package scene

import (
	"math"
	"reflect"
	"testing"

	"github.com/vanderheijden86/tspview/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
	"pgregory.net/rapid"
)

func testOptions() Options {
	return DefaultOptions(800, 600)
}

func named(x, y float64, name string) model.Point {
	return model.Point{X: x, Y: y, Name: model.Some(name)}
}

func at(x, y float64) model.Stop {
	return model.Stop{X: model.Some(x), Y: model.Some(y)}
}

func byID(id string) model.Stop {
	return model.Stop{ID: model.Some(model.ID(id))}
}

func TestBuild_TwoPointRoute(t *testing.T) {
	points := []model.Point{named(0, 0, "A"), named(10, 0, "B")}
	routes := []model.Route{{Stops: []model.Stop{at(0, 0), at(10, 0)}, Distance: 10, Capacity: 3, Autonomy: 50}}

	sc := Build(points, routes, testOptions())

	if len(sc.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(sc.Routes))
	}
	path := sc.Routes[0].Path
	if len(path) != 2 {
		t.Fatalf("expected 2 vertices, got %d", len(path))
	}
	if path[0] != sc.Points[0].Pos || path[1] != sc.Points[1].Pos {
		t.Errorf("route should run from A's projection to B's: %v vs %v", path, sc.Points)
	}
	if path[0] != (r2.Vec{X: 40, Y: 40}) || path[1] != (r2.Vec{X: 760, Y: 40}) {
		t.Errorf("unexpected projected path %v", path)
	}

	want := LegendEntry{Index: 1, Color: "#3b82f6", Autonomy: 50, Distance: 10, Capacity: 3, Names: []string{"A", "B"}}
	if !reflect.DeepEqual(sc.Legend[0], want) {
		t.Errorf("legend = %+v, want %+v", sc.Legend[0], want)
	}
}

func TestBuild_UnknownIDFallsBackToOrigin(t *testing.T) {
	points := []model.Point{
		{X: 100, Y: 100, ID: model.Some[model.ID]("0")},
		{X: 200, Y: 200, ID: model.Some[model.ID]("1")},
	}
	routes := []model.Route{{Stops: []model.Stop{byID("5"), byID("1")}}}

	sc := Build(points, routes, testOptions())
	r := sc.Routes[0]

	if len(r.Path) != 2 {
		t.Fatalf("unresolvable stop must not be dropped, got %d vertices", len(r.Path))
	}
	if origin := sc.Scaler.Project(r2.Vec{}); r.Path[0] != origin {
		t.Errorf("unknown id projected to %v, want origin %v", r.Path[0], origin)
	}
	if r.Names[0] != "Point 1" {
		t.Errorf("unknown id label = %q, want Point 1", r.Names[0])
	}
	if r.Names[1] != "Point 2" {
		t.Errorf("id 1 should resolve to the second point's label, got %q", r.Names[1])
	}
}

func TestBuild_PaletteWraps(t *testing.T) {
	points := []model.Point{named(0, 0, "A"), named(10, 10, "B")}
	routes := make([]model.Route, 7)
	for i := range routes {
		routes[i] = model.Route{Stops: []model.Stop{at(0, 0), at(10, 10)}}
	}

	sc := Build(points, routes, testOptions())

	if sc.Routes[6].Color != sc.Routes[0].Color {
		t.Errorf("7th route color %v should equal 1st %v", sc.Routes[6].Color, sc.Routes[0].Color)
	}
	if sc.Routes[1].Color == sc.Routes[0].Color {
		t.Error("adjacent routes should not share a color with a 6-color palette")
	}
	for i, e := range sc.Legend {
		if e.Index != i+1 {
			t.Errorf("legend[%d].Index = %d", i, e.Index)
		}
	}
}

func TestBuild_ColorsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "routes")
		routes := make([]model.Route, n)
		for i := range routes {
			routes[i] = model.Route{Stops: []model.Stop{at(float64(i), 0)}}
		}
		points := []model.Point{named(0, 0, "A"), named(20, 5, "B")}

		first := Build(points, routes, testOptions())
		second := Build(points, routes, testOptions())
		for i := range first.Routes {
			if first.Routes[i].Color != second.Routes[i].Color {
				t.Fatalf("route %d color changed between builds", i)
			}
			if first.Routes[i].Color != DefaultPalette.At(i) {
				t.Fatalf("route %d color is not palette[%d]", i, i)
			}
		}
	})
}

func TestBuild_EmptyPointSet(t *testing.T) {
	sc := Build(nil, []model.Route{{Stops: []model.Stop{byID("1")}}}, testOptions())
	if !sc.Empty() {
		t.Error("scene without points should be empty")
	}
	if len(sc.Routes[0].Path) != 1 {
		t.Error("routes are still projected for the legend")
	}
	p := sc.Routes[0].Path[0]
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		t.Errorf("origin fallback produced NaN: %v", p)
	}
}

func TestLabelResolver_Precedence(t *testing.T) {
	points := []model.Point{
		{X: 0, Y: 0, ID: model.Some[model.ID]("a"), Name: model.Some("Alpha")},
		{X: 10, Y: 10, ID: model.Some[model.ID]("b"), Name: model.Some("Bravo")},
		{X: 20, Y: 0},
	}

	tests := []struct {
		name string
		stop model.Stop
		want string
	}{
		{
			name: "explicit name beats id and proximity",
			stop: model.Stop{ID: model.Some[model.ID]("b"), X: model.Some(0.0), Y: model.Some(0.0), Name: model.Some("Explicit")},
			want: "Explicit",
		},
		{
			name: "id match beats proximity",
			stop: model.Stop{ID: model.Some[model.ID]("b"), X: model.Some(0.0), Y: model.Some(0.0)},
			want: "Bravo",
		},
		{
			name: "nearest named point",
			stop: at(0.01, 0.01),
			want: "Alpha",
		},
		{
			name: "nearest unnamed point uses its position",
			stop: at(20, 0),
			want: "Point 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := Build(points, []model.Route{{Stops: []model.Stop{tt.stop}}}, testOptions())
			if got := sc.Routes[0].Names[0]; got != tt.want {
				t.Errorf("label = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabelResolver_RadiusRejectsFarMatches(t *testing.T) {
	projected := []Point{{Pos: r2.Vec{X: 100, Y: 100}, Label: "Near"}}
	l := NewLabelResolver(nil, projected, DefaultLabelRadius)

	if got := l.Resolve(model.Stop{}, 0, -1, r2.Vec{X: 120, Y: 100}); got != "Near" {
		t.Errorf("20px should be accepted, got %q", got)
	}
	if got := l.Resolve(model.Stop{}, 3, -1, r2.Vec{X: 120.5, Y: 100}); got != "Point 4" {
		t.Errorf("beyond radius should fall back to position, got %q", got)
	}
}

func TestNearestRoute(t *testing.T) {
	horizontal := Route{Path: []r2.Vec{{X: 100, Y: 100}, {X: 200, Y: 100}}}
	near := Route{Path: []r2.Vec{{X: 100, Y: 105}, {X: 200, Y: 105}}}

	tests := []struct {
		name   string
		routes []Route
		p      r2.Vec
		tol    float64
		want   int
	}{
		{"midpoint at zero tolerance", []Route{horizontal}, r2.Vec{X: 150, Y: 100}, 0, 0},
		{"8px is outside 7px", []Route{horizontal}, r2.Vec{X: 150, Y: 108}, DefaultHoverTolerance, -1},
		{"7px is inside", []Route{horizontal}, r2.Vec{X: 150, Y: 107}, DefaultHoverTolerance, 0},
		{"tie resolves to first", []Route{horizontal, horizontal}, r2.Vec{X: 150, Y: 103}, DefaultHoverTolerance, 0},
		{"first match beats nearer later route", []Route{horizontal, near}, r2.Vec{X: 150, Y: 105}, DefaultHoverTolerance, 0},
		{"clamped beyond endpoint", []Route{horizontal}, r2.Vec{X: 215, Y: 100}, DefaultHoverTolerance, -1},
		{"single vertex route never hits", []Route{{Path: []r2.Vec{{X: 150, Y: 100}}}}, r2.Vec{X: 150, Y: 100}, DefaultHoverTolerance, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NearestRoute(tt.routes, tt.p, tt.tol); got != tt.want {
				t.Errorf("NearestRoute = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNearestPoint_BoundaryInclusive(t *testing.T) {
	points := []Point{{Pos: r2.Vec{X: 100, Y: 100}}, {Pos: r2.Vec{X: 300, Y: 300}}}

	if i, ok := NearestPoint(points, r2.Vec{X: 112, Y: 100}, DefaultClickTolerance); !ok || i != 0 {
		t.Errorf("12px should select point 0, got %d/%v", i, ok)
	}
	if _, ok := NearestPoint(points, r2.Vec{X: 112.01, Y: 100}, DefaultClickTolerance); ok {
		t.Error("12.01px should be rejected")
	}
	if i, ok := NearestPoint(points, r2.Vec{X: 295, Y: 300}, DefaultClickTolerance); !ok || i != 1 {
		t.Errorf("global minimum should win, got %d/%v", i, ok)
	}
	if _, ok := NearestPoint(nil, r2.Vec{}, DefaultClickTolerance); ok {
		t.Error("no points means no selection")
	}
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette([]string{"#ff0000", "#00ff00"})
	if err != nil {
		t.Fatalf("ParsePalette: %v", err)
	}
	if Hex(p.At(3)) != "#00ff00" {
		t.Errorf("At(3) = %s, want #00ff00", Hex(p.At(3)))
	}
	if _, err := ParsePalette([]string{"nope"}); err == nil {
		t.Error("invalid hex should fail")
	}
	def, _ := ParsePalette(nil)
	if len(def) != len(DefaultPalette) {
		t.Error("empty palette should fall back to default")
	}
}

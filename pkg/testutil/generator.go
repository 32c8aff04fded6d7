// Package testutil provides deterministic fixtures for tspview tests: seeded
// city sets, synthetic optimizer responses, and helpers to write them to disk.
package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/vanderheijden86/tspview/pkg/model"

	json "github.com/goccy/go-json"
)

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed         int64   // Random seed (0 uses 42, not the clock)
	Width        float64 // Domain extent on x (default 1000)
	Height       float64 // Domain extent on y (default 1000)
	PriorityRate float64 // Fraction of cities marked priority
	MaxDemand    int     // Demand is drawn from [1, MaxDemand] (default 10)
	Named        bool    // Give every city a name
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:         42,
		Width:        1000,
		Height:       1000,
		PriorityRate: 0.2,
		MaxDemand:    10,
	}
}

// Generator creates fixtures from a seeded source.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.Width <= 0 {
		cfg.Width = 1000
	}
	if cfg.Height <= 0 {
		cfg.Height = 1000
	}
	if cfg.MaxDemand <= 0 {
		cfg.MaxDemand = 10
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Cities returns n cities scattered uniformly over the domain. Coordinates
// are rounded to two decimals so fixtures stay readable.
func (g *Generator) Cities(n int) []model.City {
	cities := make([]model.City, n)
	for i := range cities {
		c := model.City{
			X:        round2(g.rng.Float64() * g.cfg.Width),
			Y:        round2(g.rng.Float64() * g.cfg.Height),
			Priority: g.rng.Float64() < g.cfg.PriorityRate,
			Demand:   float64(1 + g.rng.Intn(g.cfg.MaxDemand)),
		}
		if g.cfg.Named {
			c.Name = CityName(i)
		}
		cities[i] = c
	}
	return cities
}

// Grid returns cols*rows cities on a unit lattice, row by row.
func Grid(cols, rows int) []model.City {
	cities := make([]model.City, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cities = append(cities, model.City{X: float64(c), Y: float64(r), Demand: 1})
		}
	}
	return cities
}

// Solution partitions cities round-robin over vehicles and returns the
// response the optimizer would send for that assignment. Stops carry both
// coordinates and identifiers.
func (g *Generator) Solution(cities []model.City, vehicles int) model.Response {
	return solution(cities, vehicles, true)
}

// IDOnlySolution is Solution with routes given as customer identifiers only,
// the shape that forces stop resolution through the point set.
func (g *Generator) IDOnlySolution(cities []model.City, vehicles int) model.Response {
	return solution(cities, vehicles, false)
}

func solution(cities []model.City, vehicles int, coords bool) model.Response {
	if vehicles <= 0 {
		vehicles = 1
	}
	assigned := make([][]int, vehicles)
	for i := range cities {
		assigned[i%vehicles] = append(assigned[i%vehicles], i)
	}

	var resp model.Response
	resp.Event = "generation"
	resp.Generation = 1
	total := 0.0
	for _, idxs := range assigned {
		var v model.Vehicle
		dist := 0.0
		demand := 0.0
		for k, i := range idxs {
			c := cities[i]
			id := model.ID(strconv.Itoa(i))
			v.Route.Customers = append(v.Route.Customers, id)
			if coords {
				v.Route.Coordinates = append(v.Route.Coordinates, model.Stop{
					X:  model.Some(c.X),
					Y:  model.Some(c.Y),
					ID: model.Some(id),
				})
			}
			if k > 0 {
				p := cities[idxs[k-1]]
				dist += math.Hypot(c.X-p.X, c.Y-p.Y)
			}
			demand += c.Demand
		}
		v.Route.Distance = model.Number(round2(dist))
		v.Capacity = model.Number(demand)
		v.Autonomy = model.Number(round2(dist * 1.5))
		resp.Solution.Vehicles = append(resp.Solution.Vehicles, v)
		total += dist
	}
	resp.Solution.TotalDistance = model.Number(round2(total))
	resp.Solution.Fitness = model.Number(fitness(total))
	resp.BestDistance = resp.Solution.TotalDistance
	resp.BestFitness = resp.Solution.Fitness
	return resp
}

// Stream returns generations responses for the same cities, each a little
// shorter than the last, as a run converging would produce.
func (g *Generator) Stream(cities []model.City, vehicles, generations int) []model.Response {
	out := make([]model.Response, generations)
	for i := range out {
		resp := g.Solution(cities, vehicles)
		scale := 1 - 0.05*float64(i)
		resp.Generation = i + 1
		resp.BestDistance = model.Number(round2(resp.BestDistance.Float64() * scale))
		resp.BestFitness = model.Number(fitness(resp.BestDistance.Float64()))
		resp.GenerationTime = model.Number(0.01 * float64(1+g.rng.Intn(5)))
		resp.TotalTime = model.Number(0.05 * float64(i+1))
		out[i] = resp
	}
	return out
}

// ToJSONL encodes responses one per line, the shape of a recorded stream.
func ToJSONL(responses []model.Response) (string, error) {
	var sb strings.Builder
	for i, r := range responses {
		data, err := json.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("response %d: %w", i, err)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// CityName returns a stable name for the i-th city.
func CityName(i int) string {
	return fmt.Sprintf("City-%03d", i+1)
}

// QuickCities returns n seeded cities.
func QuickCities(n int) []model.City {
	return NewDefault().Cities(n)
}

// QuickResponse returns a single response for n seeded cities on vehicles.
func QuickResponse(n, vehicles int) ([]model.City, model.Response) {
	g := NewDefault()
	cities := g.Cities(n)
	return cities, g.Solution(cities, vehicles)
}

func fitness(dist float64) float64 {
	if dist <= 0 {
		return 0
	}
	return round2(1e4 / dist)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// CommandStart asks the optimizer to begin a run over the submitted cities.
const CommandStart = "start"

// ErrInvalidCity is returned by City.Validate.
var ErrInvalidCity = errors.New("invalid city")

// City is one user-entered city as read from a cities file or the input form.
type City struct {
	Name     string  `yaml:"name,omitempty" json:"name,omitempty"`
	X        float64 `yaml:"x" json:"x"`
	Y        float64 `yaml:"y" json:"y"`
	Priority bool    `yaml:"priority,omitempty" json:"priority,omitempty"`
	Demand   float64 `yaml:"demand" json:"demand"`
}

// Validate checks the fields the optimizer requires.
func (c City) Validate() error {
	if math.IsNaN(c.X) || math.IsInf(c.X, 0) {
		return fmt.Errorf("%w: x is not a finite number", ErrInvalidCity)
	}
	if math.IsNaN(c.Y) || math.IsInf(c.Y, 0) {
		return fmt.Errorf("%w: y is not a finite number", ErrInvalidCity)
	}
	if math.IsNaN(c.Demand) || c.Demand < 0 {
		return fmt.Errorf("%w: demand must be zero or positive", ErrInvalidCity)
	}
	return nil
}

// Point returns the city as a Point identified by its position.
func (c City) Point(index int) Point {
	p := Point{X: c.X, Y: c.Y, ID: Some(ID(strconv.Itoa(index)))}
	if c.Name != "" {
		p.Name = Some(c.Name)
	}
	return p
}

// CityPoints converts cities into the point set used for rendering.
func CityPoints(cities []City) []Point {
	points := make([]Point, len(cities))
	for i, c := range cities {
		points[i] = c.Point(i)
	}
	return points
}

// WireCity is the city shape the optimizer expects.
type WireCity struct {
	Identifier int     `json:"identifier"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Priority   int     `json:"priority"`
	Demand     float64 `json:"demand"`
}

// SolverParams are optional tuning knobs forwarded with the start command.
// Zero values are omitted so the optimizer applies its own defaults.
type SolverParams struct {
	PopulationSize       int     `json:"populationSize,omitempty" yaml:"population_size,omitempty"`
	NumberOfVehicles     int     `json:"numberOfVehicles,omitempty" yaml:"number_of_vehicles,omitempty"`
	MutationProbability  float64 `json:"mutationProbability,omitempty" yaml:"mutation_probability,omitempty"`
	VehicleCapacity      float64 `json:"vehicleCapacity,omitempty" yaml:"vehicle_capacity,omitempty"`
	CrossoverProbability float64 `json:"crossoverProbability,omitempty" yaml:"crossover_probability,omitempty"`
}

// StartRequest is the command sent to begin an optimization run.
type StartRequest struct {
	Command string     `json:"command"`
	Cities  []WireCity `json:"cities"`
	SolverParams
}

// NewStartRequest validates cities and builds the start command. Identifiers
// are the cities' positions.
func NewStartRequest(cities []City, params SolverParams) (StartRequest, error) {
	if len(cities) == 0 {
		return StartRequest{}, fmt.Errorf("%w: no cities to submit", ErrInvalidCity)
	}
	wire := make([]WireCity, len(cities))
	for i, c := range cities {
		if err := c.Validate(); err != nil {
			return StartRequest{}, fmt.Errorf("city %d: %w", i+1, err)
		}
		priority := 0
		if c.Priority {
			priority = 1
		}
		wire[i] = WireCity{Identifier: i, X: c.X, Y: c.Y, Priority: priority, Demand: c.Demand}
	}
	return StartRequest{Command: CommandStart, Cities: wire, SolverParams: params}, nil
}

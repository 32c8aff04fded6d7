package model

import (
	"github.com/vanderheijden86/tspview/pkg/metrics"

	json "github.com/goccy/go-json"
)

// Response is one message from the optimizer: the best solution found so far
// plus progress counters for the current run.
type Response struct {
	Event          string   `json:"event"`
	Generation     int      `json:"generation"`
	BestDistance   Number   `json:"best_distance"`
	BestFitness    Number   `json:"best_fitness"`
	GenerationTime Number   `json:"generation_time"`
	TotalTime      Number   `json:"total_time"`
	Solution       Solution `json:"solution"`
}

// Solution is the complete routing result for one optimization run.
type Solution struct {
	Vehicles      []Vehicle `json:"vehicles"`
	Fitness       Number    `json:"fitness"`
	TotalDistance Number    `json:"total_distance"`
}

// Vehicle is one vehicle of a solution and the route assigned to it.
type Vehicle struct {
	Capacity Number       `json:"capacity"`
	Autonomy Number       `json:"autonomy"`
	Route    VehicleRoute `json:"route"`
}

// VehicleRoute is the wire form of a route. Coordinates is preferred; when it
// is empty the customers list supplies identifier-only stops.
type VehicleRoute struct {
	Customers   []ID   `json:"customers"`
	Distance    Number `json:"distance"`
	Coordinates []Stop `json:"coordinates"`
}

// DecodeResponse parses a single optimizer message.
func DecodeResponse(data []byte) (Response, error) {
	defer metrics.Timer(metrics.JSONParsing)()
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// Stops returns the ordered stops of the route.
func (r VehicleRoute) Stops() []Stop {
	if len(r.Coordinates) > 0 {
		stops := make([]Stop, len(r.Coordinates))
		copy(stops, r.Coordinates)
		return stops
	}
	stops := make([]Stop, 0, len(r.Customers))
	for _, id := range r.Customers {
		if id == "" {
			stops = append(stops, Stop{})
			continue
		}
		stops = append(stops, Stop{ID: Some(id)})
	}
	return stops
}

// Routes converts the vehicles into routes, preserving vehicle order.
func (s Solution) Routes() []Route {
	routes := make([]Route, 0, len(s.Vehicles))
	for _, v := range s.Vehicles {
		routes = append(routes, Route{
			Stops:    v.Route.Stops(),
			Distance: v.Route.Distance.Float64(),
			Capacity: v.Capacity.Float64(),
			Autonomy: v.Autonomy.Float64(),
		})
	}
	return routes
}

// PointsFromResponse collects the cities visited by the solution, de-duplicated
// by ID. Order follows first appearance; the coordinates are the last ones seen
// for that ID. Stops without both coordinates are skipped; stops without an ID
// are kept once per distinct position.
func PointsFromResponse(resp Response) []Point {
	var points []Point
	byID := make(map[ID]int)
	type xy struct{ x, y float64 }
	byPos := make(map[xy]int)

	for _, v := range resp.Solution.Vehicles {
		for _, s := range v.Route.Coordinates {
			x, y, ok := s.Coordinates()
			if !ok {
				continue
			}
			p := Point{X: x, Y: y, ID: s.ID, Name: s.Name}
			if id, ok := s.ID.Get(); ok {
				if i, seen := byID[id]; seen {
					points[i] = p
					continue
				}
				byID[id] = len(points)
				points = append(points, p)
				continue
			}
			key := xy{x, y}
			if _, seen := byPos[key]; seen {
				continue
			}
			byPos[key] = len(points)
			points = append(points, p)
		}
	}
	return points
}

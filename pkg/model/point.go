// Package model defines the city, route and solution types exchanged with the
// route optimizer, together with lenient decoders for its loosely typed JSON.
package model

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Point is a city in domain coordinates.
type Point struct {
	X, Y float64
	ID   Opt[ID]
	Name Opt[string]
}

// UnmarshalJSON accepts id or identifier for the ID and name or label for the
// name. Missing coordinates decode as 0.
func (p *Point) UnmarshalJSON(data []byte) error {
	f, err := decodeFields(data)
	if err != nil {
		return err
	}
	*p = Point{
		X:    f.float("x").Or(0),
		Y:    f.float("y").Or(0),
		ID:   f.id("id", "identifier"),
		Name: f.str("name", "label"),
	}
	return nil
}

// MarshalJSON writes only the fields that are present.
func (p Point) MarshalJSON() ([]byte, error) {
	out := map[string]any{"x": p.X, "y": p.Y}
	if id, ok := p.ID.Get(); ok {
		out["id"] = string(id)
	}
	if name, ok := p.Name.Get(); ok {
		out["name"] = name
	}
	return json.Marshal(out)
}

// Stop is one visited location of a route. Any field may be missing: a stop
// can carry coordinates, an identifier referencing a known Point, both, or
// neither.
type Stop struct {
	X, Y Opt[float64]
	ID   Opt[ID]
	Name Opt[string]
}

// Coordinates returns the stop's direct coordinates when both are present.
func (s Stop) Coordinates() (x, y float64, ok bool) {
	if !s.X.Set || !s.Y.Set {
		return 0, 0, false
	}
	return s.X.Value, s.Y.Value, true
}

// UnmarshalJSON implements json.Unmarshaler. A bare number or string is an
// identifier-only stop; any other non-object value is an empty stop, so one
// malformed entry never rejects the rest of the response.
func (s *Stop) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		*s = Stop{}
		if id, ok := decodeID(trimmed); ok {
			s.ID = Some(id)
		}
		return nil
	}
	f, err := decodeFields(trimmed)
	if err != nil {
		*s = Stop{}
		return nil
	}
	*s = Stop{
		X:    f.float("x"),
		Y:    f.float("y"),
		ID:   f.id("id", "identifier"),
		Name: f.str("name", "label"),
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Stop) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if x, ok := s.X.Get(); ok {
		out["x"] = x
	}
	if y, ok := s.Y.Get(); ok {
		out["y"] = y
	}
	if id, ok := s.ID.Get(); ok {
		out["id"] = string(id)
	}
	if name, ok := s.Name.Get(); ok {
		out["name"] = name
	}
	return json.Marshal(out)
}

// Route is one vehicle's ordered stops with its metadata. Missing metadata is 0.
type Route struct {
	Stops    []Stop
	Distance float64
	Capacity float64
	Autonomy float64
}

// PointIndex maps point IDs to their position in points. When two points share
// an ID the first one wins.
func PointIndex(points []Point) map[ID]int {
	idx := make(map[ID]int, len(points))
	for i, p := range points {
		id, ok := p.ID.Get()
		if !ok {
			continue
		}
		if _, dup := idx[id]; !dup {
			idx[id] = i
		}
	}
	return idx
}

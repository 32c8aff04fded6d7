package scene

import (
	"fmt"

	"github.com/vanderheijden86/tspview/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
)

// LabelResolver names route stops. The precedence is fixed:
//
//  1. the stop's own name
//  2. the name of the point its ID references
//  3. the label of the nearest projected point, within Radius pixels
//  4. "Point {stopIndex+1}"
//
// Step 3 is an approximation: two cities closer than Radius can swap names.
type LabelResolver struct {
	points    []model.Point
	projected []Point
	Radius    float64
}

// NewLabelResolver builds a resolver over points and their projections.
func NewLabelResolver(points []model.Point, projected []Point, radius float64) *LabelResolver {
	return &LabelResolver{points: points, projected: projected, Radius: radius}
}

// Resolve returns the display name for the stop at stopIndex. ref is the index
// of the point the stop's ID resolved to (-1 for none) and pos is the stop's
// projected position.
func (l *LabelResolver) Resolve(stop model.Stop, stopIndex, ref int, pos r2.Vec) string {
	if name, ok := stop.Name.Get(); ok {
		return name
	}
	if ref >= 0 && ref < len(l.points) {
		if name, ok := l.points[ref].Name.Get(); ok {
			return name
		}
	}
	if i, ok := NearestPoint(l.projected, pos, l.Radius); ok {
		return l.projected[i].Label
	}
	return fmt.Sprintf("Point %d", stopIndex+1)
}

package export

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/tspview/pkg/scene"
)

// FormatLegend renders legend rows as plain text, one route per block:
//
//	Route 1 #3b82f6  distance 12.50  capacity 3  autonomy 50
//	  A > B > C
func FormatLegend(entries []scene.LegendEntry) string {
	if len(entries) == 0 {
		return "No routes.\n"
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "Route %d %s  distance %.2f  capacity %g  autonomy %g\n",
			e.Index, e.Color, e.Distance, e.Capacity, e.Autonomy)
		if len(e.Names) > 0 {
			sb.WriteString("  ")
			sb.WriteString(strings.Join(e.Names, " > "))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

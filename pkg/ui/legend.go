package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/tspview/pkg/scene"
)

// renderLegend lists routes top to bottom, highlighting the hovered one. Rows
// that do not fit in height are summarized on the last line.
func renderLegend(t Theme, entries []scene.LegendEntry, hovered, width, height int) string {
	inner := max(width-2, 1)
	lines := []string{t.PanelTitle.Render(truncateRunesHelper("Routes", inner, "…"))}

	if len(entries) == 0 {
		lines = append(lines, t.MutedText.Render(truncateRunesHelper("No routes yet", inner, "…")))
	}
	for i, e := range entries {
		block := legendBlock(t, e, i == hovered, inner)
		if len(lines)+len(block) > height {
			more := fmt.Sprintf("+%d more", len(entries)-i)
			lines = append(lines, t.MutedText.Render(truncateRunesHelper(more, inner, "…")))
			break
		}
		lines = append(lines, block...)
	}
	if len(lines) > height {
		lines = lines[:max(height, 1)]
	}
	return t.Panel.Width(width - 1).Height(height).Render(strings.Join(lines, "\n"))
}

func legendBlock(t Theme, e scene.LegendEntry, hovered bool, width int) []string {
	title := t.RouteTitle
	if hovered {
		title = t.RouteHover
	}
	head := Swatch(t, e.Color) + " " + title.Render(truncateRunesHelper(fmt.Sprintf("Route %d", e.Index), width-3, "…"))
	stats := fmt.Sprintf("dist %s  cap %s  aut %s",
		formatNumber(e.Distance), formatNumber(e.Capacity), formatNumber(e.Autonomy))
	names := strings.Join(e.Names, " > ")
	if names == "" {
		names = "(empty)"
	}
	return []string{
		head,
		t.MutedText.Render(truncateRunesHelper(stats, width, "…")),
		truncateRunesHelper(names, width, "…"),
	}
}

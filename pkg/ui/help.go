package ui

import (
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# tspview

The canvas plots every city as a dot and every vehicle route as a colored
line. Routes are listed in the panel on the right in the same colors.

## Mouse

- **Move** over a route to highlight it.
- **Click** a city to show its name. The label fades after a few seconds.
- Clicking empty space clears the label.

## Keys

| Key | Action |
|-----|--------|
| r | resubmit the cities and restart the optimizer |
| y | copy the route legend to the clipboard |
| e | export the current solution as a PNG |
| ? | toggle this help |
| esc | close this help |
| q | quit |

## Watch mode

Started with ` + "`-watch`" + `, the viewer reloads the cities file whenever it
changes and resubmits it.
`

// renderHelp renders the help text for the given width. Rendering failures
// fall back to the raw markdown.
func renderHelp(width int) string {
	style := "dark"
	if TermProfile <= colorprofile.Ascii {
		style = "notty"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n ")
}

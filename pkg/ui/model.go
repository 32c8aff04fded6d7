// Package ui is the interactive terminal viewer. It draws the current
// solution on a braille canvas, maps mouse motion and clicks to the
// interaction state machine, and lists routes in a side panel.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/tspview/pkg/debug"
	"github.com/vanderheijden86/tspview/pkg/export"
	"github.com/vanderheijden86/tspview/pkg/geom"
	"github.com/vanderheijden86/tspview/pkg/interact"
	"github.com/vanderheijden86/tspview/pkg/model"
	"github.com/vanderheijden86/tspview/pkg/render"
	"github.com/vanderheijden86/tspview/pkg/scene"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"
)

// Layout, in terminal cells.
const (
	headerRows     = 1
	footerRows     = 1
	legendCols     = 34
	minLegendTotal = 72 // below this width the legend panel is hidden
	minCanvasCols  = 10
	minCanvasRows  = 4
)

// Terminal thresholds, in braille dots (2 per column, 4 per row).
const (
	terminalMargin         = 4
	terminalHoverTolerance = 3
	terminalClickTolerance = 4
	terminalLabelRadius    = 8
)

// SolutionMsg delivers a decoded optimizer response.
type SolutionMsg struct {
	Response model.Response
}

// SelectionExpiredMsg is sent when the selection timer clears the label.
type SelectionExpiredMsg struct{}

// CitiesMsg replaces the city set, as after a watched file changes. The new
// cities are submitted.
type CitiesMsg struct {
	Cities []model.City
}

// ErrorMsg reports a background failure in the status line.
type ErrorMsg struct {
	Err error
}

type submittedMsg struct{ err error }

type exportedMsg struct {
	path string
	err  error
}

type copiedMsg struct{ err error }

// Options configures a Model.
type Options struct {
	// Cities are the submitted cities. When empty the point set comes from
	// the responses themselves.
	Cities []model.City
	// Submit sends cities to the optimizer. Nil disables resubmission.
	Submit func([]model.City) error
	// Machine holds interaction state. Nil creates one with defaults.
	Machine *interact.Machine
	// Palette colors routes on the canvas.
	Palette scene.Palette
	// Export is the surface used for PNG export.
	Export scene.Options
	// ExportDir receives exported snapshots.
	ExportDir string
	// Endpoint is shown while waiting for the first solution.
	Endpoint string
	// Clipboard writes text to the clipboard. Nil uses the system clipboard.
	Clipboard func(string) error
	Theme     *Theme
}

// Model is the bubbletea model of the viewer.
type Model struct {
	opts    Options
	theme   Theme
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	cities  []model.City
	points  []model.Point
	routes  []model.Route
	latest  *model.Response
	waiting bool

	scene   *scene.Scene
	machine *interact.Machine
	canvas  *render.Braille
	style   render.Style

	width, height int
	legend        bool

	showHelp bool
	helpView viewport.Model

	status    string
	statusErr bool
}

// New returns a Model waiting for its first solution.
func New(opts Options) Model {
	if opts.Machine == nil {
		opts.Machine = interact.New()
	}
	if len(opts.Palette) == 0 {
		opts.Palette = scene.DefaultPalette
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	theme := TestTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.Renderer.NewStyle().Foreground(theme.Primary)

	m := Model{
		opts:     opts,
		theme:    theme,
		keys:     defaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		cities:   opts.Cities,
		points:   model.CityPoints(opts.Cities),
		waiting:  true,
		machine:  opts.Machine,
		style:    render.TerminalStyle(),
		helpView: viewport.New(80, 20),
	}
	m.resize(80, 24)
	return m
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Scene returns the scene of the last render cycle.
func (m Model) Scene() *scene.Scene { return m.scene }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case SolutionMsg:
		m.applySolution(msg.Response)
		return m, nil

	case SelectionExpiredMsg:
		// the machine already cleared the selection; redraw only
		return m, nil

	case CitiesMsg:
		debug.Log("ui: %d cities reloaded", len(msg.Cities))
		m.cities = msg.Cities
		m.points = model.CityPoints(msg.Cities)
		m.routes, m.latest = nil, nil
		m.machine.Reset()
		m.rebuild()
		m.waiting = m.opts.Submit != nil
		return m, m.resubmit()

	case submittedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Submit failed: %v", msg.err), true)
		} else {
			m.setStatus(fmt.Sprintf("Submitted %d cities", len(m.cities)), false)
		}
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Export failed: %v", msg.err), true)
		} else {
			m.setStatus("Exported "+msg.path, false)
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Clipboard error: %v", msg.err), true)
		} else {
			m.setStatus("Copied legend to clipboard", false)
		}
		return m, nil

	case ErrorMsg:
		m.setStatus(msg.Err.Error(), true)
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.Quit):
			m.showHelp = false
			return m, nil
		}
		var cmd tea.Cmd
		m.helpView, cmd = m.helpView.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.helpView.SetContent(renderHelp(m.width))
		m.helpView.GotoTop()
	case key.Matches(msg, m.keys.Resubmit):
		if m.opts.Submit == nil || len(m.cities) == 0 {
			m.setStatus("Nothing to resubmit", true)
			return m, nil
		}
		m.machine.Reset()
		m.waiting = true
		return m, m.resubmit()
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyLegend()
	case key.Matches(msg, m.keys.Export):
		return m, m.exportPNG()
	}
	return m, nil
}

// handleMouse maps a terminal cell to canvas pixels. Events outside the
// canvas count as leaving every route.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.showHelp {
		return
	}
	cols, rows := m.canvas.Cells()
	col, row := msg.X, msg.Y-headerRows
	inside := col >= 0 && row >= 0 && col < cols && row < rows
	p := render.CellToPixel(col, row)
	if !inside {
		p = r2.Vec{X: -1e6, Y: -1e6}
	}

	switch {
	case msg.Action == tea.MouseActionMotion:
		m.machine.PointerMove(m.scene, p)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		st := m.machine.Click(m.scene, p)
		debug.LogIf(st.Selected(), "ui: click at cell %d,%d selected %q", col, row, selectionText(st))
	}
}

func (m *Model) applySolution(resp model.Response) {
	m.latest = &resp
	m.waiting = false
	m.routes = resp.Solution.Routes()
	if len(m.cities) == 0 {
		m.points = model.PointsFromResponse(resp)
	}
	m.machine.Reset()
	m.rebuild()
	debug.Log("ui: generation %d, %d routes, %d points", resp.Generation, len(m.routes), len(m.points))
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.legend = width >= minLegendTotal
	cols := width
	if m.legend {
		cols -= legendCols
	}
	rows := height - headerRows - footerRows
	m.canvas = render.NewBraille(max(cols, minCanvasCols), max(rows, minCanvasRows))
	m.helpView.Width = width
	m.helpView.Height = max(height-footerRows, 1)
	m.rebuild()
}

// rebuild derives the scene for the current canvas. A selection is positioned
// in canvas pixels, so a rebuild drops it.
func (m *Model) rebuild() {
	w, h := m.canvas.Size()
	opts := scene.Options{
		Viewport:       geom.Viewport{Width: w, Height: h, Margin: terminalMargin},
		Palette:        m.opts.Palette,
		HoverTolerance: terminalHoverTolerance,
		ClickTolerance: terminalClickTolerance,
		LabelRadius:    terminalLabelRadius,
	}
	if m.scene != nil && m.machine.State().Selected() {
		m.machine.Reset()
	}
	m.scene = scene.Build(m.points, m.routes, opts)
}

func (m Model) resubmit() tea.Cmd {
	if m.opts.Submit == nil || len(m.cities) == 0 {
		return nil
	}
	submit, cities := m.opts.Submit, m.cities
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return submittedMsg{err: submit(cities)}
	})
}

func (m Model) copyLegend() tea.Cmd {
	text := export.FormatLegend(m.scene.Legend)
	write := m.opts.Clipboard
	return func() tea.Msg {
		return copiedMsg{err: write(text)}
	}
}

// exportPNG renders the solution on the configured export surface. Only the
// hovered route carries over; the selection is positioned in canvas pixels.
func (m Model) exportPNG() tea.Cmd {
	if m.latest == nil {
		return func() tea.Msg {
			return exportedMsg{err: fmt.Errorf("no solution to export")}
		}
	}
	sc := scene.Build(m.points, m.routes, m.opts.Export)
	state := interact.Idle()
	state.HoveredRoute = m.machine.State().HoveredRoute
	gen := m.latest.Generation
	path := filepath.Join(m.opts.ExportDir, fmt.Sprintf("tspview-gen%04d-%s.png", gen, time.Now().Format("150405")))
	return func() tea.Msg {
		err := export.SaveSnapshot(export.SnapshotOptions{
			Path:  path,
			Title: fmt.Sprintf("Generation %d", gen),
			Scene: sc,
			State: state,
		})
		return exportedMsg{path: path, err: err}
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

// View implements tea.Model.
func (m Model) View() string {
	if m.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left, m.helpView.View(), m.footer())
	}

	st := m.machine.State()
	render.Draw(m.canvas, m.scene, st, m.style)
	body := m.canvas.String()
	if m.legend {
		_, rows := m.canvas.Cells()
		panel := renderLegend(m.theme, m.scene.Legend, st.HoveredRoute, legendCols, rows)
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, panel)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), body, m.footer())
}

func (m Model) header() string {
	title := m.theme.Header.Render("tspview")
	var stats string
	switch {
	case m.latest != nil:
		r := m.latest
		stats = fmt.Sprintf("gen %d  best %s  fitness %s  routes %d  gen time %s",
			r.Generation,
			formatNumber(r.BestDistance.Float64()),
			formatNumber(r.BestFitness.Float64()),
			len(r.Solution.Vehicles),
			formatSeconds(r.GenerationTime.Float64()))
	case m.waiting && len(m.cities) > 0:
		stats = m.spinner.View() + " waiting for the optimizer"
		if m.opts.Endpoint != "" {
			stats += " at " + m.opts.Endpoint
		}
	default:
		stats = "no solution"
	}
	avail := m.width - lipgloss.Width(title) - SpaceSM
	return title + m.theme.HeaderStat.Render(truncateRunesHelper(stats, max(avail, 0), "…"))
}

func (m Model) footer() string {
	if m.status != "" {
		style := m.theme.StatusOK
		if m.statusErr {
			style = m.theme.StatusErr
		}
		return style.Render(truncateRunesHelper(m.status, m.width, "…"))
	}
	m.help.Width = m.width
	return m.help.View(m.keys)
}

func selectionText(st interact.State) string {
	if st.Selection == nil {
		return ""
	}
	return strings.TrimSpace(st.Selection.Text)
}

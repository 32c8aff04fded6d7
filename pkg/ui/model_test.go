package ui

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vanderheijden86/tspview/pkg/interact"
	"github.com/vanderheijden86/tspview/pkg/model"
	"github.com/vanderheijden86/tspview/pkg/render"
	"github.com/vanderheijden86/tspview/pkg/scene"
	"github.com/vanderheijden86/tspview/pkg/testutil"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeTimer struct{ stopped bool }

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu    sync.Mutex
	fires []func()
}

func (s *fakeScheduler) AfterFunc(_ time.Duration, f func()) interact.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fires = append(s.fires, f)
	return &fakeTimer{}
}

func (s *fakeScheduler) fireLast() {
	s.mu.Lock()
	f := s.fires[len(s.fires)-1]
	s.mu.Unlock()
	f()
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// collect runs cmd and every command nested in a batch.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func newTestModel(t *testing.T, opts Options) (Model, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	if opts.Machine == nil {
		opts.Machine = interact.New(interact.WithScheduler(sched))
	}
	if opts.Cities == nil {
		opts.Cities = testutil.Grid(3, 3)
	}
	if opts.Clipboard == nil {
		opts.Clipboard = func(string) error { return nil }
	}
	m := New(opts)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, sched
}

func withSolution(t *testing.T, m Model) Model {
	t.Helper()
	resp := testutil.NewDefault().Solution(m.cities, 2)
	m, _ = update(t, m, SolutionMsg{Response: resp})
	return m
}

// cellOf returns the terminal cell (with header offset) covering pixel p.
func cellOf(x, y float64) (col, row int) {
	return int(x) / render.DotsX, int(y)/render.DotsY + headerRows
}

func TestNew_WaitingForSolution(t *testing.T) {
	m, _ := newTestModel(t, Options{Endpoint: "ws://opt/ws"})
	if !m.waiting {
		t.Error("new model should wait for a solution")
	}
	if len(m.Scene().Points) != 9 {
		t.Errorf("expected 9 points from the cities, got %d", len(m.Scene().Points))
	}
	if !strings.Contains(m.View(), "waiting for the optimizer at ws://opt/ws") {
		t.Error("header should mention the endpoint while waiting")
	}
}

func TestResize_LayoutAndLegend(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	cols, rows := m.canvas.Cells()
	if cols != 80-legendCols || rows != 24-headerRows-footerRows {
		t.Errorf("canvas = %dx%d", cols, rows)
	}
	if !m.legend {
		t.Error("legend should be shown at 80 columns")
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 12})
	cols, _ = m.canvas.Cells()
	if m.legend || cols != 60 {
		t.Errorf("narrow window: legend=%v cols=%d", m.legend, cols)
	}
	if w, h := m.canvas.Size(); m.Scene().Scaler.Viewport().Width != w || m.Scene().Scaler.Viewport().Height != h {
		t.Error("scene viewport should match the canvas")
	}
}

func TestSolution_BuildsScene(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = withSolution(t, m)

	if m.waiting {
		t.Error("waiting should end with the first solution")
	}
	sc := m.Scene()
	if len(sc.Routes) != 2 || len(sc.Legend) != 2 {
		t.Fatalf("routes=%d legend=%d", len(sc.Routes), len(sc.Legend))
	}
	testutil.AssertInViewport(t, sc)
	testutil.AssertRoutesAligned(t, sc)

	view := m.View()
	for _, want := range []string{"gen 1", "Route 1", "Route 2", "Point 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSolution_PointsFromResponseWithoutCities(t *testing.T) {
	m, _ := newTestModel(t, Options{Cities: []model.City{}})
	resp := testutil.NewDefault().Solution(testutil.Grid(2, 2), 1)
	m, _ = update(t, m, SolutionMsg{Response: resp})
	if got := len(m.Scene().Points); got != 4 {
		t.Errorf("expected 4 points from the response, got %d", got)
	}
}

func TestMouse_HoverAndLeave(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = withSolution(t, m)

	v := m.Scene().Routes[0].Path[0]
	col, row := cellOf(v.X, v.Y)
	m, _ = update(t, m, tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionMotion})
	if got := m.machine.State().HoveredRoute; got != 0 {
		t.Fatalf("hovered route = %d, want 0", got)
	}

	m, _ = update(t, m, tea.MouseMsg{X: 79, Y: 0, Action: tea.MouseActionMotion})
	if m.machine.State().Hovering() {
		t.Error("moving outside the canvas should clear hover")
	}
}

func TestMouse_ClickSelectsAndExpires(t *testing.T) {
	m, sched := newTestModel(t, Options{})
	m = withSolution(t, m)

	p := m.Scene().Points[4].Pos
	col, row := cellOf(p.X, p.Y)
	m, _ = update(t, m, tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})

	st := m.machine.State()
	if !st.Selected() || st.Selection.Text != "Point 5" {
		t.Fatalf("selection = %+v", st.Selection)
	}

	sched.fireLast()
	m, _ = update(t, m, SelectionExpiredMsg{})
	if m.machine.State().Selected() {
		t.Error("selection should clear after expiry")
	}
}

func TestMouse_MissClickClears(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = withSolution(t, m)

	p := m.Scene().Points[0].Pos
	col, row := cellOf(p.X, p.Y)
	m, _ = update(t, m, tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !m.machine.State().Selected() {
		t.Fatal("expected a selection")
	}
	// halfway between the first two grid points, well beyond click tolerance
	col, row = cellOf(25, 22)
	m, _ = update(t, m, tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.machine.State().Selected() {
		t.Error("a click far from every point should clear the selection")
	}
}

func TestSolution_ResetsInteraction(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = withSolution(t, m)
	p := m.Scene().Points[0].Pos
	col, row := cellOf(p.X, p.Y)
	m, _ = update(t, m, tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})

	m = withSolution(t, m)
	if st := m.machine.State(); st.Selected() || st.Hovering() {
		t.Errorf("new solution should reset state, got %+v", st)
	}
}

func TestKey_CopyLegend(t *testing.T) {
	var copied string
	m, _ := newTestModel(t, Options{Clipboard: func(s string) error {
		copied = s
		return nil
	}})
	m = withSolution(t, m)

	_, cmd := update(t, m, keyPress('y'))
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if !strings.HasPrefix(copied, "Route 1 #") {
		t.Errorf("clipboard = %q", copied)
	}
	m, _ = update(t, m, msgs[0])
	if m.status != "Copied legend to clipboard" || m.statusErr {
		t.Errorf("status = %q (err=%v)", m.status, m.statusErr)
	}
}

func TestKey_CopyLegendError(t *testing.T) {
	m, _ := newTestModel(t, Options{Clipboard: func(string) error { return errors.New("no xclip") }})
	_, cmd := update(t, m, keyPress('y'))
	m, _ = update(t, m, collect(cmd)[0])
	if !m.statusErr || !strings.Contains(m.status, "no xclip") {
		t.Errorf("status = %q", m.status)
	}
}

func TestKey_Resubmit(t *testing.T) {
	var calls int
	var got []model.City
	m, _ := newTestModel(t, Options{Submit: func(c []model.City) error {
		calls++
		got = c
		return nil
	}})
	m = withSolution(t, m)

	m, cmd := update(t, m, keyPress('r'))
	if !m.waiting {
		t.Error("resubmit should wait for a new solution")
	}
	var submitted bool
	for _, msg := range collect(cmd) {
		if _, ok := msg.(submittedMsg); ok {
			submitted = true
			m, _ = update(t, m, msg)
		}
	}
	if !submitted || calls != 1 || len(got) != 9 {
		t.Errorf("submitted=%v calls=%d cities=%d", submitted, calls, len(got))
	}
	if m.status != "Submitted 9 cities" {
		t.Errorf("status = %q", m.status)
	}
}

func TestKey_ResubmitWithoutSubmitter(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m, cmd := update(t, m, keyPress('r'))
	if cmd != nil || !m.statusErr {
		t.Error("resubmit without a submitter should only report status")
	}
}

func TestCitiesMsg_ReplacesCities(t *testing.T) {
	var calls int
	m, _ := newTestModel(t, Options{Submit: func([]model.City) error { calls++; return nil }})
	m = withSolution(t, m)

	m, cmd := update(t, m, CitiesMsg{Cities: testutil.Grid(2, 1)})
	collect(cmd)
	if calls != 1 {
		t.Errorf("submit calls = %d", calls)
	}
	if len(m.Scene().Points) != 2 || len(m.Scene().Routes) != 0 {
		t.Errorf("scene = %d points, %d routes", len(m.Scene().Points), len(m.Scene().Routes))
	}
	if m.latest != nil || !m.waiting {
		t.Error("reload should clear the previous solution")
	}
}

func TestKey_Export(t *testing.T) {
	dir := t.TempDir()
	m, _ := newTestModel(t, Options{ExportDir: dir, Export: scene.DefaultOptions(200, 150)})

	_, cmd := update(t, m, keyPress('e'))
	msg := collect(cmd)[0].(exportedMsg)
	if msg.err == nil {
		t.Error("export before a solution should fail")
	}

	m = withSolution(t, m)
	_, cmd = update(t, m, keyPress('e'))
	msg = collect(cmd)[0].(exportedMsg)
	if msg.err != nil {
		t.Fatalf("export: %v", msg.err)
	}
	if _, err := os.Stat(msg.path); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
	if !strings.HasSuffix(msg.path, ".png") || !strings.Contains(msg.path, "tspview-gen0001") {
		t.Errorf("path = %s", msg.path)
	}
}

func TestKey_HelpToggle(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m, _ = update(t, m, keyPress('?'))
	if !m.showHelp {
		t.Fatal("? should open help")
	}
	// mouse is ignored while help is open
	m, _ = update(t, m, tea.MouseMsg{X: 1, Y: 1, Action: tea.MouseActionMotion})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp || cmd != nil {
		t.Error("esc should close help without quitting")
	}

	m, _ = update(t, m, keyPress('?'))
	m, _ = update(t, m, keyPress('q'))
	if m.showHelp {
		t.Error("q should close help first")
	}
}

func TestKey_Quit(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	_, cmd := update(t, m, keyPress('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestErrorMsg_Status(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m, _ = update(t, m, ErrorMsg{Err: errors.New("connection refused")})
	if !strings.Contains(m.View(), "connection refused") {
		t.Error("error should appear in the footer")
	}
}

func TestHelpers(t *testing.T) {
	if got := truncateRunesHelper("abcdef", 4, "…"); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncateRunesHelper("abc", 4, "…"); got != "abc" {
		t.Errorf("truncate short = %q", got)
	}
	if got := formatNumber(12.50); got != "12.5" {
		t.Errorf("formatNumber = %q", got)
	}
	if got := formatNumber(3); got != "3" {
		t.Errorf("formatNumber int = %q", got)
	}
	if got := formatSeconds(0.25); got != "250ms" {
		t.Errorf("formatSeconds = %q", got)
	}
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight = %q", got)
	}
}

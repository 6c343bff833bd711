package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/sim"
)

const (
	canvasWidth     = 40
	canvasHeight    = 20
	historyCapacity = 300
	frameRate       = 30
)

type TickMsg time.Time

// Model steps a simulator in real time and draws the rotor as seen from
// upwind, with the fixed-frame moment history alongside.
type Model struct {
	sim   *sim.Simulator
	cfg   sim.Config
	title string

	canvas        *Canvas
	theme         Theme
	style         styles
	running       bool
	showHelp      bool
	stepsPerFrame int

	last   sim.Sample
	myHist []float64
	mzHist []float64
	err    error

	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int
}

// NewModel lists the rotor parameters first, then the loop gains as
// "<loop>><gain>".
func NewModel(s *sim.Simulator, cfg sim.Config, title string) Model {
	params := s.Rotor().GetParams()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for k, v := range s.Block().LoopParams() {
		params[k] = v
	}
	keys = append(keys, s.Block().LoopParamNames()...)

	initial := make(map[string]float64, len(params))
	for k, v := range params {
		initial[k] = v
	}

	steps := int(math.Round(1 / (frameRate * cfg.Dt)))
	if steps < 1 {
		steps = 1
	}

	return Model{
		sim:           s,
		cfg:           cfg,
		title:         title,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		theme:         Themes[0],
		style:         newStyles(Themes[0]),
		running:       true,
		stepsPerFrame: steps,
		myHist:        make([]float64, 0, historyCapacity),
		mzHist:        make([]float64, 0, historyCapacity),
		params:        params,
		initialParams: initial,
		paramKeys:     keys,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "t":
			m.theme = m.theme.next()
			m.style = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.stepsPerFrame; i++ {
		s, err := m.sim.Step(m.cfg)
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.last = s
		m.myHist = pushBounded(m.myHist, s.Signal(ipc.SignalMy))
		m.mzHist = pushBounded(m.mzHist, s.Signal(ipc.SignalMz))
	}
}

func pushBounded(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.params[key] * factor
	if val == 0 {
		val = 1e-3 * factor
	}
	if err := m.setParam(key, val); err != nil {
		m.err = err
		return
	}
	m.params[key] = val
}

func (m *Model) setParam(key string, val float64) error {
	if strings.Contains(key, ipc.BlockSeparator) {
		return m.sim.Block().SetLoopParam(key, val)
	}
	return m.sim.Rotor().SetParam(key, val)
}

// reset restarts the simulator and restores rotor parameters and loop gains.
func (m *Model) reset() {
	m.err = nil
	for k, v := range m.initialParams {
		if err := m.setParam(k, v); err != nil {
			m.err = err
			continue
		}
		m.params[k] = v
	}
	m.sim.Reset()
	m.last = sim.Sample{}
	m.myHist = m.myHist[:0]
	m.mzHist = m.mzHist[:0]
}

// drawRotor draws the disk and the three blades at their true azimuth.
// Azimuth 0 points up and increases clockwise seen from upwind.
func (m *Model) drawRotor() {
	m.canvas.Clear()
	cx, cy := canvasWidth, canvasHeight*2
	r := float64(canvasHeight*2 - 2)
	m.canvas.DrawCircle(cx, cy, r)

	rotor := m.sim.Rotor()
	for i := 0; i < 3; i++ {
		psi := rotor.BladeAngle(i)
		x := cx + int(math.Round(r*0.9*math.Sin(psi)))
		y := cy - int(math.Round(r*0.9*math.Cos(psi)))
		m.canvas.DrawLine(cx, cy, x, y)
	}
}

func (m Model) View() string {
	st := m.style
	m.drawRotor()
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")

	status := st.ok.Render("RUNNING")
	switch {
	case m.err != nil:
		status = st.bad.Render("STOPPED: " + m.err.Error())
	case !m.running:
		status = st.warn.Render("PAUSED")
	}
	s.WriteString(status + "\n")

	if len(m.myHist) > 1 {
		chart := asciigraph.PlotMany([][]float64{m.myHist, m.mzHist},
			asciigraph.Height(6), asciigraph.Width(40),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Magenta),
			asciigraph.Caption("My (cyan) / Mz (magenta) kNm"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.last.Time))
	row("Azimuth", fmt.Sprintf("%6.1f° (est %6.1f°)", m.last.Azimuth, m.last.EstimatedAzimuth))
	speed := fmt.Sprintf("%.2f rpm", m.last.Speed)
	if !m.last.Quorum && m.last.Time > 0 {
		speed += " " + st.bad.Render("NO QUORUM")
	}
	row("Speed", speed)
	row("My / Mz", fmt.Sprintf("%8.1f / %8.1f", m.last.Signal(ipc.SignalMy), m.last.Signal(ipc.SignalMz)))

	limit := math.Abs(m.last.Signal(ipc.SignalMaxIncrement))
	s.WriteString("\nPITCH (vs individual ceiling)\n")
	for i, sig := range []ipc.Signal{ipc.SignalDeltaPitch1, ipc.SignalDeltaPitch2, ipc.SignalDeltaPitch3} {
		d := m.last.Signal(sig)
		s.WriteString(fmt.Sprintf("  blade %d %s %+6.2f°  (%.2f°)\n", i+1, st.usageBar(d, limit, 12), d, m.last.Pitch[i]))
	}

	s.WriteString("\nROTOR / GAINS\n")
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-16s %10.4g", k, m.params[k])
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.value.Render(line) + "\n")
		}
	}

	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit T:Theme ?:Help\nTab:Select ↑↓:Tune"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + view
	}
	return view
}

const helpText = `
  Space    pause / resume
  R        reset simulator, rotor parameters and gains
  Q        quit
  Tab      select rotor parameter or loop gain
  Up/K     increase parameter (+5%)
  Down/J   decrease parameter (-5%)
  T        cycle themes
  ?        toggle this help`

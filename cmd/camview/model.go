package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ivlev/animcam/internal/camera"
	"github.com/ivlev/animcam/internal/director"
	"github.com/ivlev/animcam/internal/engine"
	"github.com/ivlev/animcam/internal/renderer"
)

const maxEvents = 6

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	heldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sceneStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	helpMessage = "1-4 preset (rising, declining, full, wave)  o orbit  arrows swing  h look at origin  p pause  c cancel  r reset  f frames  l lose frame  q quit"
)

type tickMsg time.Time

const lookAngle = 5 * math.Pi / 180

// lookStep maps arrow keys to yaw and pitch increments.
var lookStep = map[string][2]float64{
	"left":  {lookAngle, 0},
	"right": {-lookAngle, 0},
	"up":    {0, lookAngle},
	"down":  {0, -lookAngle},
}

// presets are the goals bound to keys 1-4, one per speed profile.
var presets = []camera.Movement{
	{Pose: camera.Pose{Eye: mgl64.Vec3{8, 0, 3}, Focus: mgl64.Vec3{0, 0, 0.5}, Up: mgl64.Vec3{0, 0, 1}}, Duration: 2 * time.Second, Speed: camera.Rising},
	{Pose: camera.Pose{Eye: mgl64.Vec3{0, 8, 3}, Focus: mgl64.Vec3{0, 0, 0.5}, Up: mgl64.Vec3{0, 0, 1}}, Duration: 2 * time.Second, Speed: camera.Declining},
	{Pose: camera.Pose{Eye: mgl64.Vec3{-6, -6, 6}, Focus: mgl64.Vec3{1, 1, 0}, Up: mgl64.Vec3{0, 0, 1}}, Duration: 2 * time.Second, Speed: camera.Full},
	{Pose: camera.Pose{Eye: mgl64.Vec3{0.5, 0.5, 12}, Focus: mgl64.Vec3{0, 0, 0}, Up: mgl64.Vec3{0, 1, 0}}, Duration: 3 * time.Second, Speed: camera.Wave},
}

type model struct {
	view   *engine.AnimatedView
	inbox  *engine.Inbox
	runner *engine.Runner
	period time.Duration

	last     engine.Tick
	lastTime time.Time
	events   []string
	lost     bool

	width, height int
}

func newModel(view *engine.AnimatedView, fps int) *model {
	m := &model{
		view:   view,
		inbox:  engine.NewInbox(),
		period: time.Second / time.Duration(fps),
		width:  80,
		height: 24,
	}
	m.runner = engine.NewRunner(view, m.inbox)
	view.Subscribe(engine.ObserverFunc(m.record))
	return m
}

func (m *model) record(e engine.Event) {
	line := fmt.Sprintf("#%d %s", e.Tick, e.Kind)
	if e.Err != nil {
		line += ": " + e.Err.Error()
	}
	m.events = append(m.events, line)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

func (m *model) tick() tea.Cmd {
	return tea.Tick(m.period, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Init() tea.Cmd {
	return m.tick()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		now := time.Time(msg)
		dt := m.period
		if !m.lastTime.IsZero() {
			dt = now.Sub(m.lastTime)
		}
		m.lastTime = now
		m.last, _ = m.runner.Step(dt)
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	}
	return m, nil
}

func (m *model) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "1", "2", "3", "4":
		m.inbox.Post(engine.MovementRequest{Movement: presets[key[0]-'1']})
	case "o":
		script, err := director.NewDirector().Orbit(mgl64.Vec3{0, 0, 0.5}, 7, 3, 8, 8)
		if err == nil {
			req, _ := script.Events[0].Request()
			m.inbox.Post(req)
		}
	case "p":
		m.inbox.Post(engine.PauseRequest{Duration: time.Second})
	case "c":
		m.inbox.Post(engine.CancelRequest{})
	case "r":
		m.inbox.Post(engine.RequestFunc(func(v *engine.AnimatedView) error {
			v.Reset()
			return nil
		}))
	case "f":
		m.inbox.Post(engine.RequestFunc(func(v *engine.AnimatedView) error {
			v.SetFrameByFrame(!v.FrameByFrame(), 0)
			return nil
		}))
	case "left", "right", "up", "down":
		yaw, pitch := lookStep[key][0], lookStep[key][1]
		m.inbox.Post(engine.RequestFunc(func(v *engine.AnimatedView) error {
			v.YawPitchRoll(yaw, pitch, 0)
			return nil
		}))
	case "h":
		m.inbox.Post(engine.RequestFunc(func(v *engine.AnimatedView) error {
			return v.LookAt(mgl64.Vec3{0, 0, 0})
		}))
	case "l":
		m.lost = !m.lost
		if m.lost {
			m.inbox.Post(engine.FrameLostRequest{})
		} else {
			m.inbox.Post(engine.FrameUpdateRequest{Orientation: mgl64.QuatIdent()})
		}
	}
	return nil
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("animcam"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  tick %d", m.last.Seq)))
	b.WriteString("\n")

	cols := max(m.width-2, 10)
	rows := max(m.height-12, 5)
	scene := strings.Join(renderer.ASCII(m.view.CurrentPose(), cols, rows), "\n")
	b.WriteString(sceneStyle.Render(scene))
	b.WriteString("\n")

	state := stateStyle.Render(m.view.State().String())
	if m.last.Held {
		state = heldStyle.Render("frame lost")
	}
	mode := "wall clock"
	if m.view.FrameByFrame() {
		mode = fmt.Sprintf("frames @%d", m.view.FPS())
	}
	fmt.Fprintf(&b, "%s  %s  queue %d  done %d\n", state, mode, m.view.QueueLen(), m.view.Completed())
	fmt.Fprintf(&b, "t %s %.2f  s %.2f\n", progressBar(m.view.TimeProgress(), 20), m.view.TimeProgress(), m.view.SpaceProgress())
	fmt.Fprintf(&b, "%s\n", m.view.CurrentPose())
	for _, e := range m.events {
		b.WriteString(dimStyle.Render(e))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(helpMessage))
	return b.String()
}

func progressBar(p float64, width int) string {
	filled := int(p * float64(width))
	filled = min(max(filled, 0), width)
	return barStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
}

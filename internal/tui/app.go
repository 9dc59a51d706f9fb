package tui

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mpataki/balneo/internal/lua"
	"github.com/mpataki/balneo/internal/models"
	"github.com/mpataki/balneo/internal/orchestrator"
	"github.com/mpataki/balneo/internal/runner"
)

type View int

const (
	ViewHome View = iota
	ViewConfigure
	ViewDisplay
	ViewHistory
)

type App struct {
	orchestrator *orchestrator.Orchestrator
	cues         *lua.CueScript
	bell         io.Writer

	events      <-chan runner.Event
	unsubscribe func()

	view     View
	patients []*models.Patient
	sessions []*models.Session

	// configure
	slotCount  int
	choices    []slotChoice
	field      int
	confirming []orchestrator.SlotDuration

	// display
	slots    []models.PatientSlot
	selected int
	status   string
	progress progress.Model
	help     help.Model
	keys     displayKeyMap

	// history
	historyIdx int
	history    []*models.PatientSession

	width  int
	height int
	err    error
}

// NewApp subscribes to the run. bell receives the terminal bell on cues and
// may be nil to stay quiet; cues may be nil to use the default cues.
func NewApp(orch *orchestrator.Orchestrator, cues *lua.CueScript, bell io.Writer) *App {
	minSlots, maxSlots := orch.SlotRange()
	events, unsubscribe := orch.Runner().Subscribe()

	a := &App{
		orchestrator: orch,
		cues:         cues,
		bell:         bell,
		events:       events,
		unsubscribe:  unsubscribe,
		view:         ViewHome,
		slotCount:    minSlots,
		choices:      newChoices(maxSlots),
		progress:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:         help.New(),
		keys:         newDisplayKeyMap(),
	}
	if orch.Runner().Active() {
		a.slots = orch.Runner().Slots()
		a.view = ViewDisplay
	}
	return a
}

// Close stops listening to the run. The run itself keeps going.
func (a *App) Close() {
	a.unsubscribe()
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadData, a.waitForEvent())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case dataLoadedMsg:
		a.err = msg.err
		if msg.err == nil {
			a.patients = msg.patients
			a.sessions = msg.sessions
		}
		return a, nil

	case historyLoadedMsg:
		a.err = msg.err
		a.history = msg.entries
		return a, nil

	case launchedMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		a.confirming = nil
		a.slots = a.orchestrator.Runner().Slots()
		a.selected = 0
		a.status = ""
		a.view = ViewDisplay
		return a, nil

	case runnerEventMsg:
		a.handleEvent(runner.Event(msg))
		return a, a.waitForEvent()
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.view {
	case ViewHome:
		return a.handleHomeKey(msg)
	case ViewConfigure:
		return a.handleConfigureKey(msg)
	case ViewDisplay:
		return a.handleDisplayKey(msg)
	case ViewHistory:
		return a.handleHistoryKey(msg)
	}
	return a, nil
}

func (a *App) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit

	case "n":
		a.err = nil
		a.confirming = nil
		a.field = 0
		a.view = ViewConfigure
		return a, a.loadData

	case "d", "enter":
		if len(a.slots) > 0 {
			a.view = ViewDisplay
		}

	case "h":
		a.err = nil
		a.view = ViewHistory
		return a, a.loadHistory()
	}

	return a, nil
}

// handleEvent mirrors the run and plays the cue the event calls for.
func (a *App) handleEvent(ev runner.Event) {
	a.slots = ev.Slots

	switch ev.Kind {
	case runner.EventStarted:
		a.selected = 0
	case runner.EventEnded:
		a.status = ""
		if a.view == ViewDisplay {
			a.view = ViewHome
		}
		return
	}

	if cue, ok := a.cueFor(ev); ok {
		a.status = cue.Message
		a.ring(cue.Bells)
	}
}

func (a *App) cueFor(ev runner.Event) (lua.Cue, bool) {
	if !ev.IsCue() || ev.Slot < 0 || ev.Slot >= len(ev.Slots) {
		return lua.Cue{}, false
	}

	s := ev.Slots[ev.Slot]
	ce := lua.CueEvent{
		Kind:      ev.Kind.String(),
		Slot:      ev.Slot,
		Patient:   a.patientName(s.PatientID),
		Remaining: s.TimeRemainingSeconds,
	}
	exercises := a.orchestrator.Exercises(s.SessionID)
	if s.CurrentExerciseIndex < len(exercises) {
		ce.Exercise = exercises[s.CurrentExerciseIndex].Name
	}
	if s.CurrentExerciseIndex+1 < len(exercises) {
		ce.Next = exercises[s.CurrentExerciseIndex+1].Name
	}

	cue := lua.DefaultCue(ce)
	if a.cues != nil {
		scripted, err := a.cues.Evaluate(ce)
		if err != nil {
			log.Printf("tui: %v", err)
		} else {
			cue = scripted
		}
	}
	return cue, !cue.Silent
}

func (a *App) ring(n int) {
	if a.bell == nil || n <= 0 {
		return
	}
	if _, err := io.WriteString(a.bell, strings.Repeat("\a", n)); err != nil {
		log.Printf("tui: ring bell: %v", err)
	}
}

func (a *App) patientName(id string) string {
	for _, p := range a.patients {
		if p.ID == id {
			return p.ShortName()
		}
	}
	if p, err := a.orchestrator.GetPatient(id); err == nil {
		return p.ShortName()
	}
	return "Patient inconnu"
}

func (a *App) sessionName(id string) string {
	for _, s := range a.sessions {
		if s.ID == id {
			return s.Name
		}
	}
	if s, err := a.orchestrator.GetSession(id); err == nil {
		return s.Name
	}
	return "(séance supprimée)"
}

func (a *App) View() string {
	switch a.view {
	case ViewHome:
		return a.viewHome()
	case ViewConfigure:
		return a.viewConfigure()
	case ViewDisplay:
		return a.viewDisplay()
	case ViewHistory:
		return a.viewHistory()
	}
	return ""
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("25"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Bold(true)

	timerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

func (a *App) viewHome() string {
	s := titleStyle.Render("Balnéo") + "\n\n"

	if a.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Erreur : %v", a.err)) + "\n\n"
	}

	if len(a.slots) > 0 {
		running := 0
		for _, slot := range a.slots {
			if slot.IsRunning {
				running++
			}
		}
		s += runningStyle.Render(fmt.Sprintf("● Séance en cours : %d patients, %d en marche", len(a.slots), running)) + "\n\n"
	}

	s += fmt.Sprintf("%d séances, %d patients\n", len(a.sessions), len(a.patients))

	keys := "[n] nouvelle séance  [h] historique  [q] quitter"
	if len(a.slots) > 0 {
		keys = "[d] reprendre l'affichage  " + keys
	}
	s += "\n" + helpStyle.Render(keys)

	return s
}

// Messages

type dataLoadedMsg struct {
	patients []*models.Patient
	sessions []*models.Session
	err      error
}

type historyLoadedMsg struct {
	entries []*models.PatientSession
	err     error
}

type launchedMsg struct {
	err error
}

type runnerEventMsg runner.Event

// Commands

func (a *App) loadData() tea.Msg {
	patients, err := a.orchestrator.ListPatients()
	if err != nil {
		return dataLoadedMsg{err: err}
	}
	sessions, err := a.orchestrator.ListSessions()
	return dataLoadedMsg{patients: patients, sessions: sessions, err: err}
}

func (a *App) waitForEvent() tea.Cmd {
	events := a.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return runnerEventMsg(ev)
	}
}

func (a *App) launch(configs []orchestrator.SlotConfig) tea.Cmd {
	return func() tea.Msg {
		return launchedMsg{err: a.orchestrator.Launch(configs)}
	}
}

func (a *App) loadHistory() tea.Cmd {
	if a.historyIdx >= len(a.patients) {
		return nil
	}
	id := a.patients[a.historyIdx].ID
	return func() tea.Msg {
		entries, err := a.orchestrator.GetPatientSessions(id)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// formatClock renders seconds as mm:ss.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// formatDuration renders a session length, e.g. 6 min 15 s.
func formatDuration(seconds int) string {
	m, s := seconds/60, seconds%60
	switch {
	case m == 0:
		return fmt.Sprintf("%d s", s)
	case s == 0:
		return fmt.Sprintf("%d min", m)
	}
	return fmt.Sprintf("%d min %d s", m, s)
}

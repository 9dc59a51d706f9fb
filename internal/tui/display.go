package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mpataki/balneo/internal/models"
)

const (
	minCardWidth = 30
	warnSeconds  = 5
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	selectedCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("39"))

	completeCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("46"))
)

func (a *App) handleDisplayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	run := a.orchestrator.Runner()
	a.keys.setAllComplete(run.AllComplete())

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Select):
		if i := int(msg.String()[0] - '1'); i < len(a.slots) {
			a.selected = i
		}

	case key.Matches(msg, a.keys.Toggle):
		run.Toggle(a.selected)

	case key.Matches(msg, a.keys.Skip):
		run.Skip(a.selected)

	case key.Matches(msg, a.keys.Reset):
		run.Reset(a.selected)

	case key.Matches(msg, a.keys.ToggleAll):
		run.ToggleAll()

	case key.Matches(msg, a.keys.ResetAll):
		run.ResetAll()
		a.status = ""

	case key.Matches(msg, a.keys.End):
		run.EndSession()
		a.slots = nil
		a.status = ""
		a.view = ViewHome

	case key.Matches(msg, a.keys.Minimise):
		a.view = ViewHome
	}

	return a, nil
}

func (a *App) viewDisplay() string {
	if len(a.slots) == 0 {
		return titleStyle.Render("Aucune séance en cours") + "\n\n" + helpStyle.Render("[m] retour")
	}

	allComplete, allRunning := true, true
	for _, s := range a.slots {
		if !s.IsComplete {
			allComplete = false
			if !s.IsRunning {
				allRunning = false
			}
		}
	}
	a.keys.setAllComplete(allComplete)

	header := titleStyle.Render(fmt.Sprintf("Séance multi-patients (%d)", len(a.slots)))
	switch {
	case allComplete:
		header += "  " + runningStyle.Render("✓ tous terminés")
	case allRunning:
		header += "  " + runningStyle.Render("▶ tout en marche")
	default:
		header += "  " + pausedStyle.Render("⏸ en pause")
	}

	cols := len(a.slots)
	if cols == 4 {
		cols = 2
	}
	width := minCardWidth + 10
	if a.width > 0 {
		width = a.width/cols - 2
	}
	if width < minCardWidth {
		width = minCardWidth
	}

	var rows []string
	var row []string
	for i, slot := range a.slots {
		row = append(row, a.viewCard(i, slot, width))
		if len(row) == cols {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	s := header + "\n\n" + lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
	if a.status != "" {
		s += statusStyle.Render("🔔 "+a.status) + "\n"
	}
	s += "\n" + a.help.ShortHelpView(a.keys.ShortHelp())
	return s
}

func (a *App) viewCard(index int, slot models.PatientSlot, width int) string {
	inner := width - 4
	exercises := a.orchestrator.Exercises(slot.SessionID)

	style := cardStyle
	if slot.IsComplete {
		style = completeCardStyle
	}
	if index == a.selected {
		style = selectedCardStyle
	}
	style = style.Width(width - 2)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d. %s\n", index+1, titleStyle.Render(a.patientName(slot.PatientID))))
	b.WriteString(dimStyle.Render(truncate(a.sessionName(slot.SessionID), inner)) + "\n\n")

	if slot.IsComplete {
		b.WriteString(runningStyle.Render("✓ Terminé !") + "\n")
		b.WriteString(fmt.Sprintf("%d exercices réalisés\n\n", len(exercises)))
		b.WriteString(helpStyle.Render("[r] recommencer"))
		return style.Render(b.String())
	}

	if len(exercises) == 0 {
		b.WriteString(dimStyle.Render("Aucun exercice dans cette séance"))
		return style.Render(b.String())
	}

	idx := slot.CurrentExerciseIndex
	if idx >= len(exercises) {
		idx = len(exercises) - 1
	}
	current := exercises[idx]

	a.progress.Width = inner - 8
	b.WriteString(a.progress.ViewAs(float64(idx+1)/float64(len(exercises))))
	b.WriteString(fmt.Sprintf("  %d / %d\n\n", idx+1, len(exercises)))

	b.WriteString(lipgloss.NewStyle().Bold(true).Render(truncate(current.Name, inner)) + "\n")
	if current.Instructions != "" {
		b.WriteString(lipgloss.NewStyle().Width(inner).Render(current.Instructions) + "\n")
	}
	b.WriteString("\n")
	if idx+1 < len(exercises) {
		b.WriteString(labelStyle.Render("Suivant : ") + truncate(exercises[idx+1].Name, inner-10) + "\n")
	} else {
		b.WriteString(labelStyle.Render("Dernier exercice") + "\n")
	}

	timer := timerStyle
	if slot.TimeRemainingSeconds <= warnSeconds {
		timer = warningStyle
	}
	state := pausedStyle.Render("⏸ pause")
	if slot.IsRunning {
		state = runningStyle.Render("▶ en cours")
	}
	b.WriteString("\n" + timer.Render(formatClock(slot.TimeRemainingSeconds)) + "  " + state)

	return style.Render(b.String())
}

package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

const historyTimeLayout = "02/01/2006 15:04"

func (a *App) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		a.view = ViewHome
		a.history = nil

	case "up", "k":
		if a.historyIdx > 0 {
			a.historyIdx--
			return a, a.loadHistory()
		}

	case "down", "j":
		if a.historyIdx < len(a.patients)-1 {
			a.historyIdx++
			return a, a.loadHistory()
		}
	}

	return a, nil
}

func (a *App) viewHistory() string {
	s := titleStyle.Render("Historique") + "\n\n"

	if a.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Erreur : %v", a.err)) + "\n\n"
	}

	if len(a.patients) == 0 {
		s += "Aucun patient.\n"
		return s + "\n" + helpStyle.Render("[esc] retour")
	}

	for i, p := range a.patients {
		line := p.FullName()
		if i == a.historyIdx {
			line = selectedStyle.Render("▶ " + line)
		} else {
			line = "  " + line
		}
		s += line + "\n"
	}

	p := a.patients[a.historyIdx]
	s += "\n" + labelStyle.Render("Séances de "+p.ShortName()) + "\n"
	s += "──────────\n"
	if len(a.history) == 0 {
		s += "(aucune séance)\n"
	}
	for _, h := range a.history {
		line := fmt.Sprintf("%s  %s", dimStyle.Render(h.CompletedAt.Local().Format(historyTimeLayout)), a.sessionName(h.SessionID))
		if h.Notes != "" {
			line += "  " + dimStyle.Render(truncate(h.Notes, 40))
		}
		s += line + "\n"
	}

	s += "\n" + helpStyle.Render("[↑/↓] patient  [esc] retour")
	return s
}

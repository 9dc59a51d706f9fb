package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mpataki/balneo/internal/orchestrator"
)

// slotChoice indexes into the loaded patients and sessions, -1 meaning
// nothing chosen yet.
type slotChoice struct {
	patient int
	session int
}

func newChoices(n int) []slotChoice {
	choices := make([]slotChoice, n)
	for i := range choices {
		choices[i] = slotChoice{patient: -1, session: -1}
	}
	return choices
}

// Field 0 is the patient count, then each slot has a patient and a session
// field.
func (a *App) fieldCount() int {
	return 1 + 2*a.slotCount
}

func (a *App) handleConfigureKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.confirming != nil {
		switch msg.String() {
		case "y", "o", "enter":
			return a, a.launch(a.slotConfigs())
		case "n", "esc":
			a.confirming = nil
		}
		return a, nil
	}

	switch msg.String() {
	case "esc", "q":
		a.view = ViewHome

	case "up", "k", "shift+tab":
		if a.field > 0 {
			a.field--
		}

	case "down", "j", "tab":
		if a.field < a.fieldCount()-1 {
			a.field++
		}

	case "left", "h":
		a.cycle(-1)

	case "right", "l":
		a.cycle(1)

	case "enter":
		configs := a.slotConfigs()
		if err := a.orchestrator.Validate(configs); err != nil {
			a.err = err
			return a, nil
		}
		a.err = nil
		if durations, mismatch := a.orchestrator.DurationMismatch(configs); mismatch {
			a.confirming = durations
			return a, nil
		}
		return a, a.launch(configs)
	}

	return a, nil
}

// cycle moves the focused field to its previous or next value.
func (a *App) cycle(delta int) {
	if a.field == 0 {
		minSlots, maxSlots := a.orchestrator.SlotRange()
		n := a.slotCount + delta
		if n >= minSlots && n <= maxSlots {
			a.slotCount = n
		}
		return
	}

	slot := (a.field - 1) / 2
	c := &a.choices[slot]
	if (a.field-1)%2 == 0 {
		c.patient = wrap(c.patient+delta, len(a.patients))
	} else {
		c.session = wrap(c.session+delta, len(a.sessions))
	}
}

// wrap keeps i within -1..n-1, cycling through "nothing chosen".
func wrap(i, n int) int {
	if i < -1 {
		return n - 1
	}
	if i >= n {
		return -1
	}
	return i
}

func (a *App) slotConfigs() []orchestrator.SlotConfig {
	configs := make([]orchestrator.SlotConfig, a.slotCount)
	for i := range configs {
		c := a.choices[i]
		if c.patient >= 0 && c.patient < len(a.patients) {
			configs[i].PatientID = a.patients[c.patient].ID
		}
		if c.session >= 0 && c.session < len(a.sessions) {
			configs[i].SessionID = a.sessions[c.session].ID
		}
	}
	return configs
}

func (a *App) viewConfigure() string {
	s := titleStyle.Render("Séance multi-patients") + "\n"
	s += dimStyle.Render("Configurez la séance pour plusieurs patients simultanément") + "\n\n"

	if a.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Erreur : %v", a.err)) + "\n\n"
	}

	s += a.configLine(0, labelStyle.Render("Nombre de patients : ")+fmt.Sprintf("◀ %d ▶", a.slotCount)) + "\n\n"

	for i := 0; i < a.slotCount; i++ {
		c := a.choices[i]
		s += fmt.Sprintf("Patient %d\n", i+1)

		patient := dimStyle.Render("Sélectionner un patient")
		if c.patient >= 0 && c.patient < len(a.patients) {
			patient = a.patients[c.patient].FullName()
		}
		s += a.configLine(1+2*i, labelStyle.Render("  Patient : ")+patient) + "\n"

		session := dimStyle.Render("Sélectionner une session")
		if c.session >= 0 && c.session < len(a.sessions) {
			sess := a.sessions[c.session]
			session = fmt.Sprintf("%s %s", sess.Name,
				dimStyle.Render("("+formatDuration(a.orchestrator.SessionDuration(sess.ID))+")"))
		}
		s += a.configLine(2+2*i, labelStyle.Render("  Session : ")+session) + "\n\n"
	}

	if a.confirming != nil {
		s += pausedStyle.Render("Les sessions n'ont pas la même durée :") + "\n"
		for _, d := range a.confirming {
			name := "?"
			if d.Patient != nil {
				name = d.Patient.ShortName()
			}
			s += fmt.Sprintf("  %s : %s\n", name, formatDuration(d.Seconds))
		}
		s += "\n" + helpStyle.Render("Continuer quand même ? [y] oui  [n] non")
		return s
	}

	s += helpStyle.Render("[↑/↓] champ  [←/→] choisir  [enter] démarrer  [esc] retour")
	return s
}

func (a *App) configLine(field int, line string) string {
	if field == a.field {
		return selectedStyle.Render("▶ ") + line
	}
	return "  " + line
}

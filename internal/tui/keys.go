package tui

import "github.com/charmbracelet/bubbles/key"

type displayKeyMap struct {
	Select    key.Binding
	Toggle    key.Binding
	Skip      key.Binding
	Reset     key.Binding
	ToggleAll key.Binding
	ResetAll  key.Binding
	End       key.Binding
	Minimise  key.Binding
	Quit      key.Binding
}

func newDisplayKeyMap() displayKeyMap {
	return displayKeyMap{
		Select:    key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "patient")),
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("espace", "démarrer/pause")),
		Skip:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "suivant")),
		Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recommencer")),
		ToggleAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "tout démarrer/pause")),
		ResetAll:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "tout recommencer")),
		End:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "arrêter")),
		Minimise:  key.NewBinding(key.WithKeys("m", "esc"), key.WithHelp("m", "réduire")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quitter")),
	}
}

func (k displayKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Toggle, k.Skip, k.Reset, k.ToggleAll, k.ResetAll, k.End, k.Minimise, k.Quit}
}

func (k displayKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Select, k.Toggle, k.Skip, k.Reset},
		{k.ToggleAll, k.ResetAll},
		{k.End, k.Minimise, k.Quit},
	}
}

// setAllComplete disables, and so hides from help, the controls that do
// nothing once every slot is complete.
func (k *displayKeyMap) setAllComplete(done bool) {
	k.Toggle.SetEnabled(!done)
	k.Skip.SetEnabled(!done)
	k.ToggleAll.SetEnabled(!done)
}

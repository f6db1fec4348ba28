package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings of every view. List navigation and filtering are left to [list.Model].
type keyMap struct {
	sync      key.Binding
	yes       key.Binding
	no        key.Binding
	unmatched key.Binding
	again     key.Binding
	back      key.Binding
	quit      key.Binding
	forceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		sync:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sync")),
		yes:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "start")),
		no:        key.NewBinding(key.WithKeys("n", "esc", "q"), key.WithHelp("n", "back")),
		unmatched: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "unmatched tracks")),
		again:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "sync again")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		forceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// help returns the bindings shown under a view.
func (k keyMap) help(view ViewState) []key.Binding {
	switch view {
	case TrackListView:
		return []key.Binding{k.sync, k.quit}
	case ConfirmView:
		return []key.Binding{k.yes, k.no}
	case SyncView:
		return []key.Binding{k.quit}
	case ResultView:
		return []key.Binding{k.unmatched, k.again, k.quit}
	case OutcomeListView:
		return []key.Binding{k.back, k.quit}
	default:
		return nil
	}
}

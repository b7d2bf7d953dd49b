package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Enter       key.Binding
	Parent      key.Binding
	HistoryBack key.Binding
	HistoryNext key.Binding
	Crumb       key.Binding
	GoToCrumb   key.Binding
	NextArchive key.Binding
	ToggleMode  key.Binding
	Search      key.Binding
	ClearSearch key.Binding
	MaxSize     key.Binding
	Diff        key.Binding
	Reload      key.Binding
	Load        key.Binding
	Cancel      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "page down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter", "right", "l"),
			key.WithHelp("enter/→", "open directory"),
		),
		Parent: key.NewBinding(
			key.WithKeys("backspace", "left", "h"),
			key.WithHelp("backspace/←", "parent directory"),
		),
		HistoryBack: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "back"),
		),
		HistoryNext: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "forward"),
		),
		Crumb: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "jump to breadcrumb"),
		),
		GoToCrumb: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "jump to breadcrumb N"),
		),
		NextArchive: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "next archive"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "tree/flat"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		ClearSearch: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear search"),
		),
		MaxSize: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "max entries"),
		),
		Diff: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "diff archive"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload/retry"),
		),
		Load: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "load from server"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel edit/close help"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ApplyBindings replaces the keys of named bindings, e.g. {"search": "f"}.
// Unknown names are ignored.
func (keys KeyMap) ApplyBindings(overrides map[string]string) KeyMap {
	for name, value := range overrides {
		if value == "" {
			continue
		}
		if binding := keys.byName(name); binding != nil {
			binding.SetKeys(value)
			binding.SetHelp(value, binding.Help().Desc)
		}
	}
	return keys
}

func (keys *KeyMap) byName(name string) *key.Binding {
	switch name {
	case "up":
		return &keys.Up
	case "down":
		return &keys.Down
	case "enter":
		return &keys.Enter
	case "parent":
		return &keys.Parent
	case "back":
		return &keys.HistoryBack
	case "forward":
		return &keys.HistoryNext
	case "goToCrumb":
		return &keys.GoToCrumb
	case "nextArchive":
		return &keys.NextArchive
	case "cancel":
		return &keys.Cancel
	case "mode":
		return &keys.ToggleMode
	case "search":
		return &keys.Search
	case "clearSearch":
		return &keys.ClearSearch
	case "maxSize":
		return &keys.MaxSize
	case "diff":
		return &keys.Diff
	case "reload":
		return &keys.Reload
	case "load":
		return &keys.Load
	case "help":
		return &keys.Help
	case "quit":
		return &keys.Quit
	default:
		return nil
	}
}

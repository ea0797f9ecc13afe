package theme

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	Quit        key.Binding
	Back        key.Binding
	Select      key.Binding
	ExportGIF   key.Binding
	ExportVideo key.Binding
	ExportStill key.Binding
	ToggleLoop  key.Binding
	ToggleHide  key.Binding
	TogglePanel key.Binding
	Patterns    key.Binding
	History     key.Binding
	SpeedUp     key.Binding
	SpeedDown   key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	Help        key.Binding
	Filter      key.Binding
}

// DefaultKeyMap returns the default key bindings.
var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back/cancel"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	ExportGIF: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "export gif"),
	),
	ExportVideo: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "export video"),
	),
	ExportStill: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "export still"),
	),
	ToggleLoop: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "normal/ping-pong"),
	),
	ToggleHide: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "hide/show canvas"),
	),
	TogglePanel: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "notes/params"),
	),
	Patterns: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "patterns"),
	),
	History: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "recent exports"),
	),
	SpeedUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "speed up"),
	),
	SpeedDown: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "slow down"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
}

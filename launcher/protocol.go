// Package launcher implements the host side contract of a launcher
// extension: the JSON events the launcher sends on every keystroke and the
// actions the extension answers with.
//
// Messages are JSON objects. The launcher sends an Event:
//
//	{"id": "42", "type": "query", "keyword": "tr", "argument": "hello en:de"}
//
// and the extension answers with a Response carrying the same id:
//
//	{"id": "42", "action": {"type": "render_result_list", "items": [...]}}
package launcher

import "context"

// EventType identifies what happened in the launcher.
type EventType string

const (
	// EventQuery is sent whenever the text after the keyword changes.
	EventQuery EventType = "query"
	// EventPreferences is sent when the user edits extension preferences.
	EventPreferences EventType = "preferences"
	// EventItemEnter is sent when a row with a custom action is activated.
	EventItemEnter EventType = "item_enter"
)

// Event is a message from the launcher.
type Event struct {
	ID          string            `json:"id"`
	Type        EventType         `json:"type"`
	Keyword     string            `json:"keyword,omitempty"`
	Argument    string            `json:"argument,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty"`
	Data        string            `json:"data,omitempty"`
}

// ActionType identifies what the launcher should do.
type ActionType string

const (
	ActionRenderResultList ActionType = "render_result_list"
	ActionHideWindow       ActionType = "hide_window"
	ActionOpenURL          ActionType = "open_url"
	ActionCopyToClipboard  ActionType = "copy_to_clipboard"
	ActionDoNothing        ActionType = "do_nothing"
)

// Action is an instruction for the launcher, either as the answer to an
// event or attached to a row (on_enter, on_alt_enter).
type Action struct {
	Type  ActionType `json:"type"`
	Items []Item     `json:"items,omitempty"`
	URL   string     `json:"url,omitempty"`
	Text  string     `json:"text,omitempty"`
}

// Item is a result row.
type Item struct {
	Icon        string  `json:"icon,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	OnEnter     *Action `json:"on_enter,omitempty"`
	OnAltEnter  *Action `json:"on_alt_enter,omitempty"`
}

// Response answers an Event.
type Response struct {
	ID     string `json:"id"`
	Action Action `json:"action"`
}

// RenderResultList shows items in the launcher.
func RenderResultList(items ...Item) *Action {
	return &Action{Type: ActionRenderResultList, Items: items}
}

// HideWindow closes the launcher window.
func HideWindow() *Action { return &Action{Type: ActionHideWindow} }

// OpenURL opens url in the default browser.
func OpenURL(url string) *Action { return &Action{Type: ActionOpenURL, URL: url} }

// CopyToClipboard copies text to the clipboard.
func CopyToClipboard(text string) *Action { return &Action{Type: ActionCopyToClipboard, Text: text} }

// Handler reacts to launcher events. A nil action means no response is sent.
type Handler interface {
	HandleEvent(ctx context.Context, ev Event) (*Action, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) (*Action, error)

func (f HandlerFunc) HandleEvent(ctx context.Context, ev Event) (*Action, error) {
	return f(ctx, ev)
}

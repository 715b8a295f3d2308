package collection

import "github.com/tartampluch/go-waifu-birthday/internal/engine"

// MenuView selects the page shown inside the side menu.
type MenuView int

const (
	MenuMain MenuView = iota
	MenuSettings
)

// UIState is the explicit presentation state owned by the Model.
type UIState struct {
	MenuOpen bool
	MenuView MenuView

	AddOpen  bool
	Selected *engine.SearchResult
	// ManualMonth and ManualDay hold the raw text typed in the add dialog.
	ManualMonth string
	ManualDay   string
	// DetectedMonth and DetectedDay are parsed from the selected bio and only
	// shown as hints; they are never submitted implicitly.
	DetectedMonth int
	DetectedDay   int

	Query string
}

// Snapshot is a consistent copy of the Model handed to listeners.
type Snapshot struct {
	Entries    []engine.CollectionEntry
	WakingUp   bool
	Refreshing bool
	Loaded     bool
	Message    string
	LastError  error
	UI         UIState
}

// Empty reports whether the "no data" state applies.
func (s Snapshot) Empty() bool {
	return s.Loaded && !s.WakingUp && len(s.Entries) == 0
}

package core

// AppEntry is an installed application as seen by the search engine.
// ID is the platform identifier (desktop file id or package name),
// Name is the display name.
type AppEntry struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Exec       string   `json:"exec,omitempty"`
	Icon       string   `json:"icon,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

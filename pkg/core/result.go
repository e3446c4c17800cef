package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResultKind identifies a Result variant.
type ResultKind string

const (
	KindApp        ResultKind = "app"
	KindWeb        ResultKind = "web"
	KindContact    ResultKind = "contact"
	KindFile       ResultKind = "file"
	KindYouTube    ResultKind = "youtube"
	KindURL        ResultKind = "url"
	KindPermission ResultKind = "permission"
)

// resultNamespace scopes the UUIDv5 keys generated for results.
var resultNamespace = uuid.MustParse("6f1c9c3e-4d0a-5b7e-9a43-0d6f3b1e2a77")

// Result is a single entry of a search result list.
//
// The set of variants is closed: AppResult, WebResult, ContactResult,
// FileResult, YouTubeResult, URLResult and PermissionRequiredResult.
// Consumers switch on the concrete type (or Kind) to decide how to act on it.
//
// Key is stable for the same payload across searches so list diffing in the UI
// can keep rows in place while the user types.
type Result interface {
	// Key returns a stable identity, "<kind>-<uuid>".
	Key() string

	// Title returns the primary display text.
	Title() string

	// Kind returns the variant name.
	Kind() ResultKind

	// Metadata returns the variant payload needed to act on the result.
	Metadata() map[string]interface{}

	isResult()
}

// resultKey derives a deterministic key from the kind and payload parts.
func resultKey(kind ResultKind, parts ...string) string {
	name := string(kind) + "\x00" + strings.Join(parts, "\x00")
	return fmt.Sprintf("%s-%s", kind, uuid.NewSHA1(resultNamespace, []byte(name)))
}

// AppResult is an installed application.
type AppResult struct {
	App AppEntry
}

func (r AppResult) Key() string      { return resultKey(KindApp, r.App.ID) }
func (r AppResult) Title() string    { return r.App.Name }
func (r AppResult) Kind() ResultKind { return KindApp }
func (r AppResult) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"id":   r.App.ID,
		"name": r.App.Name,
		"exec": r.App.Exec,
		"icon": r.App.Icon,
	}
}
func (AppResult) isResult() {}

// WebResult is a web search shortcut or a web page found by a provider.
type WebResult struct {
	Query    string
	URL      string
	Engine   string
	Subtitle string
}

func (r WebResult) Key() string { return resultKey(KindWeb, r.Engine, r.URL) }
func (r WebResult) Title() string {
	if r.Subtitle != "" && r.Query == "" {
		return r.Subtitle
	}
	if r.Engine == "" {
		return r.Query
	}
	return fmt.Sprintf("Search %s for \"%s\"", r.Engine, r.Query)
}
func (r WebResult) Kind() ResultKind { return KindWeb }
func (r WebResult) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"query":    r.Query,
		"url":      r.URL,
		"engine":   r.Engine,
		"subtitle": r.Subtitle,
	}
}
func (WebResult) isResult() {}

// ContactResult is an address book entry.
type ContactResult struct {
	ID    string
	Name  string
	Phone string
	Email string
}

func (r ContactResult) Key() string      { return resultKey(KindContact, r.ID) }
func (r ContactResult) Title() string    { return r.Name }
func (r ContactResult) Kind() ResultKind { return KindContact }
func (r ContactResult) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"id":    r.ID,
		"name":  r.Name,
		"phone": r.Phone,
		"email": r.Email,
	}
}
func (ContactResult) isResult() {}

// FileResult is a file found on local storage.
type FileResult struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

func (r FileResult) Key() string      { return resultKey(KindFile, r.Path) }
func (r FileResult) Title() string    { return r.Name }
func (r FileResult) Kind() ResultKind { return KindFile }
func (r FileResult) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"path":     r.Path,
		"name":     r.Name,
		"size":     r.Size,
		"mod_time": r.ModTime,
		"is_dir":   r.IsDir,
	}
}
func (FileResult) isResult() {}

// YouTubeResult is a YouTube search shortcut.
type YouTubeResult struct {
	Query string
	URL   string
}

func (r YouTubeResult) Key() string      { return resultKey(KindYouTube, r.URL) }
func (r YouTubeResult) Title() string    { return fmt.Sprintf("Search YouTube for \"%s\"", r.Query) }
func (r YouTubeResult) Kind() ResultKind { return KindYouTube }
func (r YouTubeResult) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"query": r.Query,
		"url":   r.URL,
	}
}
func (YouTubeResult) isResult() {}

// URLResult is URL-like input the user can open directly.
// URL is absolute and scheme-qualified, Display is what the user typed.
type URLResult struct {
	URL     string
	Display string
}

func (r URLResult) Key() string      { return resultKey(KindURL, r.URL) }
func (r URLResult) Title() string    { return r.Display }
func (r URLResult) Kind() ResultKind { return KindURL }
func (r URLResult) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"url":     r.URL,
		"display": r.Display,
	}
}
func (URLResult) isResult() {}

// PermissionRequiredResult asks the UI to request a permission on behalf of a provider.
type PermissionRequiredResult struct {
	ProviderID string
	Permission Permission
	Message    string
}

func (r PermissionRequiredResult) Key() string {
	return resultKey(KindPermission, r.ProviderID, string(r.Permission))
}
func (r PermissionRequiredResult) Title() string {
	if r.Message != "" {
		return r.Message
	}
	return fmt.Sprintf("Grant %s permission to search", r.Permission)
}
func (r PermissionRequiredResult) Kind() ResultKind { return KindPermission }
func (r PermissionRequiredResult) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"provider":   r.ProviderID,
		"permission": string(r.Permission),
	}
}
func (PermissionRequiredResult) isResult() {}

// AppResults wraps app entries as results, preserving order.
func AppResults(apps []AppEntry) []Result {
	results := make([]Result, 0, len(apps))
	for _, app := range apps {
		results = append(results, AppResult{App: app})
	}
	return results
}

package api

import (
	"time"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/search"
)

type ResultResponse struct {
	Key      string                 `json:"key"`
	Kind     core.ResultKind        `json:"kind"`
	Title    string                 `json:"title"`
	Metadata map[string]interface{} `json:"metadata"`
}

func toResultResponses(results []core.Result) []ResultResponse {
	out := make([]ResultResponse, len(results))
	for i, r := range results {
		out[i] = ResultResponse{
			Key:      r.Key(),
			Kind:     r.Kind(),
			Title:    r.Title(),
			Metadata: r.Metadata(),
		}
	}
	return out
}

type ProviderInfo struct {
	core.Descriptor
	Prefixes []string `json:"prefixes"`
}

type ListProvidersResponse struct {
	Providers []ProviderInfo        `json:"providers"`
	Conflicts []core.PrefixConflict `json:"conflicts"`
	Count     int                   `json:"count"`
}

type SearchResponse struct {
	Query    string           `json:"query"`
	Provider *core.Descriptor `json:"provider,omitempty"`
	Results  []ResultResponse `json:"results"`
	Count    int              `json:"count"`
	TookMs   int64            `json:"took_ms"`
}

type LaunchRequest struct {
	AppID string `json:"app_id"`
}

type LaunchResponse struct {
	App core.AppEntry `json:"app"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Sessions  int       `json:"sessions"`
}

// Websocket message types.
const (
	MessageInit       = "init"
	MessageState      = "state"
	MessageError      = "error"
	MessageQuery      = "query"
	MessagePermission = "permission"
	MessageRefresh    = "refresh"
)

// ClientMessage is sent by the websocket client.
type ClientMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Provider string `json:"provider,omitempty"`
	Granted  bool   `json:"granted,omitempty"`
}

type InitMessage struct {
	Type      string         `json:"type"`
	Session   string         `json:"session"`
	Providers []ProviderInfo `json:"providers"`
}

type StateMessage struct {
	Type    string           `json:"type"`
	Session string           `json:"session"`
	State   search.State     `json:"state"`
	Results []ResultResponse `json:"results"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

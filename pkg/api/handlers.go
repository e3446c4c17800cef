package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/version"
)

func (s *Server) providerInfos() []ProviderInfo {
	idx := s.registry.Snapshot()
	providers := idx.Providers()
	infos := make([]ProviderInfo, len(providers))
	for i, p := range providers {
		desc := p.Descriptor()
		infos[i] = ProviderInfo{
			Descriptor: desc,
			Prefixes:   idx.PrefixesFor(desc.ID),
		}
	}
	return infos
}

func (s *Server) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	infos := s.providerInfos()
	conflicts := s.registry.Snapshot().Conflicts()
	if conflicts == nil {
		conflicts = []core.PrefixConflict{}
	}

	response := ListProvidersResponse{
		Providers: infos,
		Conflicts: conflicts,
		Count:     len(infos),
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", "Query parameter 'q' is required")
		return
	}

	res := s.dispatcher.Search(r.Context(), q)
	results := toResultResponses(res.Results)

	response := SearchResponse{
		Query:    res.Query,
		Provider: res.Provider,
		Results:  results,
		Count:    len(results),
		TookMs:   res.Took.Milliseconds(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) HandleLaunch(w http.ResponseWriter, r *http.Request) {
	if s.launcher == nil {
		s.writeError(w, http.StatusNotImplemented, "Launch unavailable", "No app source configured")
		return
	}

	var req LaunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.AppID == "" {
		s.writeError(w, http.StatusBadRequest, "Missing app_id", "Field 'app_id' is required")
		return
	}

	app, err := s.launcher.Launch(r.Context(), req.AppID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Launch failed", fmt.Sprintf("Could not launch '%s': %v", req.AppID, err))
		return
	}

	s.writeJSON(w, http.StatusOK, LaunchResponse{App: app})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Sessions:  s.SessionCount(),
	}

	s.writeJSON(w, http.StatusOK, health)
}

package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/providers", s.HandleListProviders)
	mux.HandleFunc("GET /api/search", s.HandleSearch)
	mux.HandleFunc("POST /api/launch", s.HandleLaunch)
	mux.HandleFunc("GET /ws/session", s.HandleSession)
	mux.HandleFunc("GET /health", s.HandleHealth)
}

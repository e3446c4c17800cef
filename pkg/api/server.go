package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
	"github.com/rubiojr/omnibox/pkg/search"
)

// Launcher records that an app was started so it shows up in recents.
type Launcher interface {
	Launch(ctx context.Context, id string) (core.AppEntry, error)
}

type Server struct {
	registry   *core.Registry
	dispatcher *search.Dispatcher
	opts       search.Options
	launcher   Launcher
	logger     *log.Logger
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*search.Session
}

func NewServer(dispatcher *search.Dispatcher, opts search.Options) *Server {
	return &Server{
		registry:   dispatcher.Registry(),
		dispatcher: dispatcher,
		opts:       opts,
		logger:     log.ForService("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*search.Session),
	}
}

// SetLauncher enables POST /api/launch.
func (s *Server) SetLauncher(l Launcher) {
	s.launcher = l
}

// FollowSettings applies prefix configuration updates from src to the
// registry and refreshes every connected session.
func (s *Server) FollowSettings(ctx context.Context, src search.SettingsSource) {
	ch, stop := src.PrefixConfigs()
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok {
				return
			}
			conflicts := s.registry.UpdatePrefixConfig(cfg)
			s.logger.Infof("prefix configuration updated (%d conflicts)", len(conflicts))
			for _, sess := range s.activeSessions() {
				sess.Refresh()
			}
		}
	}
}

// SetPermission records a permission decision and re-runs every connected
// session showing a provider gated by perm. It reports whether the decision
// changed anything.
func (s *Server) SetPermission(perm core.Permission, granted bool) bool {
	if s.opts.Permissions == nil || !s.opts.Permissions.Set(perm, granted) {
		return false
	}
	for _, p := range s.registry.AllProviders() {
		desc := p.Descriptor()
		if desc.Permission != perm {
			continue
		}
		for _, sess := range s.activeSessions() {
			sess.OnPermissionStateChanged(desc.ID, granted)
		}
	}
	s.logger.Infof("permission %s granted=%v", perm, granted)
	return true
}

// SessionCount returns the number of connected websocket sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) addSession(id string, sess *search.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) activeSessions() []*search.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*search.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

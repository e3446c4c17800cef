package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rubiojr/omnibox/pkg/search"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// HandleSession drives one search.Session over a websocket. The client sends
// query, permission and refresh messages; the server pushes an init message
// followed by a state message for every published session state.
func (s *Server) HandleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var writeMu sync.Mutex
	write := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v)
	}

	if err := write(InitMessage{Type: MessageInit, Session: id, Providers: s.providerInfos()}); err != nil {
		s.logger.Debugf("session %s: writing init: %v", id, err)
		return
	}

	sess := search.NewSession(s.dispatcher, s.opts)
	states, unsubscribe := sess.Subscribe()
	sess.Open(ctx)
	s.addSession(id, sess)
	s.logger.Debugf("session %s connected", id)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-states:
				if !ok {
					return
				}
				msg := StateMessage{
					Type:    MessageState,
					Session: id,
					State:   st,
					Results: toResultResponses(st.Results),
				}
				if err := write(msg); err != nil {
					s.logger.Debugf("session %s: writing state: %v", id, err)
					cancel()
					return
				}
			case <-ticker.C:
				writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				writeMu.Unlock()
				if err != nil {
					cancel()
					return
				}
			}
		}
	}()

	defer func() {
		cancel()
		unsubscribe()
		sess.Close()
		s.removeSession(id)
		wg.Wait()
		s.logger.Debugf("session %s disconnected", id)
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warnf("session %s: %v", id, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case MessageQuery:
			sess.OnQueryChanged(msg.Text)
		case MessagePermission:
			sess.OnPermissionStateChanged(msg.Provider, msg.Granted)
		case MessageRefresh:
			sess.Refresh()
		default:
			if err := write(ErrorMessage{Type: MessageError, Message: "unknown message type " + msg.Type}); err != nil {
				return
			}
		}
	}
}

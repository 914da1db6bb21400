package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"auto_article_generator/generator"
)

const requestReadTimeout = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is sent to the browser: stage events, then article or error.
type wsMessage struct {
	Type    string           `json:"type"`
	Event   *generator.Event `json:"event,omitempty"`
	Article *articleResp     `json:"article,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// handleWebSocket reads one generate request and streams the run's progress.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}
	defer conn.Close()

	var req generator.Request
	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(wsMessage{Type: "error", Error: "invalid request: " + err.Error()})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	// The hijacked request context outlives the browser tab; cancel the run
	// as soon as the client side goes away.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	var mu sync.Mutex
	send := func(msg wsMessage) {
		mu.Lock()
		defer mu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("[ws] write: %v", err)
		}
	}

	art, err := s.generate(ctx, req, func(evt generator.Event) {
		send(wsMessage{Type: "event", Event: &evt})
	})
	if err != nil {
		_, msg := describeError(err)
		send(wsMessage{Type: "error", Error: msg})
		return
	}
	resp, err := newArticleResp(art)
	if err != nil {
		send(wsMessage{Type: "error", Error: err.Error()})
		return
	}
	send(wsMessage{Type: "article", Article: &resp})
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Package realtime pushes events to connected browser sessions over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/uncleisme/mobile-app/internal/models"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows one concurrent writer
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// Hub tracks every open connection per profile id. A user may hold several.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]map[*client]struct{}
	upgrader websocket.Upgrader
}

// NewHub accepts upgrades from the listed origins; "*" or an empty list allows any.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: map[uuid.UUID]map[*client]struct{}{}}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func (h *Hub) register(uid uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[uid]
	if !ok {
		set = map[*client]struct{}{}
		h.clients[uid] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(uid uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[uid]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, uid)
		}
	}
}

// Connections reports how many sockets uid has open.
func (h *Hub) Connections(uid uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[uid])
}

// Publish sends ev to every connection of the given users. Offline users are skipped.
func (h *Hub) Publish(userIDs []uuid.UUID, ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		slog.Error("realtime marshal failed", "type", ev.Type, "err", err)
		return
	}
	h.mu.RLock()
	var targets []*client
	seen := map[uuid.UUID]bool{}
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		for c := range h.clients[uid] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			slog.Debug("realtime write failed", "err", err)
			_ = c.conn.Close()
		}
	}
}

// Notify publishes a stored notification to its owner and recipients.
func (h *Hub) Notify(_ context.Context, n models.Notification) {
	targets := append([]uuid.UUID{}, n.Recipients...)
	if n.UserID != nil {
		targets = append(targets, *n.UserID)
	}
	h.Publish(targets, Event{Type: "notification", Data: n})
}

// Handler upgrades the request for the user returned by identify.
func (h *Hub) Handler(identify func(*http.Request) (uuid.UUID, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := identify(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.WarnContext(r.Context(), "websocket upgrade failed", "err", err)
			return
		}
		c := &client{conn: conn}
		h.register(uid, c)
		slog.DebugContext(r.Context(), "websocket connected", "user_id", uid.String())

		done := make(chan struct{})
		defer func() {
			close(done)
			h.unregister(uid, c)
			_ = conn.Close()
			slog.DebugContext(r.Context(), "websocket closed", "user_id", uid.String())
		}()

		go func() {
			t := time.NewTicker(pingPeriod)
			defer t.Stop()
			for {
				select {
				case <-done:
					return
				case <-t.C:
					if err := c.write(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					slog.DebugContext(r.Context(), "websocket unexpected close", "err", err)
				}
				return
			}
		}
	}
}

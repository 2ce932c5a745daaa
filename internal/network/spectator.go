package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/amalg/go-bombman/internal/match"
	"github.com/amalg/go-bombman/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Spectator is a read-only websocket connection receiving JSON frames.
type Spectator struct {
	ID   string
	hub  *SpectatorHub
	conn *websocket.Conn
	send chan []byte
}

// SpectatorHub fans frames out to websocket spectators.
type SpectatorHub struct {
	spectators map[*Spectator]bool
	register   chan *Spectator
	unregister chan *Spectator
	done       chan struct{}
	closeOnce  sync.Once
	log        logrus.FieldLogger
	mu         sync.RWMutex
}

// NewSpectatorHub creates a hub. Run must be started before spectators
// connect.
func NewSpectatorHub(log logrus.FieldLogger) *SpectatorHub {
	return &SpectatorHub{
		spectators: make(map[*Spectator]bool),
		register:   make(chan *Spectator),
		unregister: make(chan *Spectator),
		done:       make(chan struct{}),
		log:        log.WithField("component", "spectator"),
	}
}

// Close stops Run and disconnects every spectator.
func (h *SpectatorHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Run processes registrations until Close is called.
func (h *SpectatorHub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for sp := range h.spectators {
				delete(h.spectators, sp)
				close(sp.send)
			}
			h.mu.Unlock()
			return

		case sp := <-h.register:
			h.mu.Lock()
			h.spectators[sp] = true
			h.mu.Unlock()
			h.log.WithField("spectator", sp.ID).Info("spectator connected")

		case sp := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.spectators[sp]; ok {
				delete(h.spectators, sp)
				close(sp.send)
			}
			h.mu.Unlock()
			h.log.WithField("spectator", sp.ID).Info("spectator disconnected")
		}
	}
}

// Broadcast sends a frame to every spectator. Slow spectators miss frames.
func (h *SpectatorHub) Broadcast(frame match.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal frame")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sp := range h.spectators {
		select {
		case sp.send <- data:
		default:
		}
	}
}

// Count returns the number of connected spectators.
func (h *SpectatorHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.spectators)
}

// ServeHTTP upgrades the request to a spectator websocket.
func (h *SpectatorHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	sp := &Spectator{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 16),
	}
	select {
	case h.register <- sp:
	case <-h.done:
		conn.Close()
		return
	}

	go sp.writePump()
	go sp.readPump()
}

// readPump only handles control frames; spectators cannot send input.
func (sp *Spectator) readPump() {
	defer func() {
		select {
		case sp.hub.unregister <- sp:
		case <-sp.hub.done:
		}
		sp.conn.Close()
	}()

	sp.conn.SetReadLimit(maxMessageSize)
	sp.conn.SetReadDeadline(time.Now().Add(pongWait))
	sp.conn.SetPongHandler(func(string) error {
		sp.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := sp.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sp.hub.log.WithError(err).WithField("spectator", sp.ID).Warn("websocket read error")
			}
			return
		}
	}
}

func (sp *Spectator) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sp.conn.Close()
	}()

	for {
		select {
		case message, ok := <-sp.send:
			sp.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sp.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sp.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			sp.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sp.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// LeaderboardHandler serves the stored leaderboard as JSON. The optional
// limit query parameter caps the number of entries.
func LeaderboardHandler(results store.ResultStore, log logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		entries, err := results.Leaderboard(r.Context(), limit)
		if err != nil {
			log.WithError(err).Error("leaderboard query failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []store.LeaderboardEntry{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	})
}

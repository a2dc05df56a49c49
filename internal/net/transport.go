package net

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/INSANE0777/AIS-GARDEN/internal/api"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 512
	sendBuffer     = 32
)

// peer is one live-channel subscriber.
type peer struct {
	conn *websocket.Conn
	send chan []byte
	addr string
	once sync.Once
}

func (p *peer) close() {
	p.once.Do(func() { close(p.send) })
}

// Hub fans flower inserts out to every subscriber of the live channel.
// Subscribers only listen; anything they send is discarded.
type Hub struct {
	mu       sync.RWMutex
	peers    map[*peer]struct{}
	closed   bool
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHub creates a hub accepting websocket upgrades from allowedOrigins,
// a comma-separated list where "*" or "" allows any origin.
func NewHub(allowedOrigins string, log zerolog.Logger) *Hub {
	h := &Hub{
		peers: make(map[*peer]struct{}),
		log:   log.With().Str("component", "hub").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed string) func(*http.Request) bool {
	allowed = strings.TrimSpace(allowed)
	if allowed == "" || allowed == "*" {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{})
	for _, o := range strings.Split(allowed, ",") {
		set[strings.TrimSpace(o)] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	p := &peer{conn: conn, send: make(chan []byte, sendBuffer), addr: r.RemoteAddr}
	if !h.add(p) {
		// Hub is closing, tell the client instead of just hanging up
		conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go h.writePump(p)
	go h.readPump(p)
}

func (h *Hub) add(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.peers[p] = struct{}{}
	h.log.Info().Str("remote", p.addr).Int("subscribers", len(h.peers)).Msg("subscriber connected")
	return true
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	_, ok := h.peers[p]
	delete(h.peers, p)
	n := len(h.peers)
	h.mu.Unlock()
	if ok {
		p.close()
		h.log.Info().Str("remote", p.addr).Int("subscribers", n).Msg("subscriber disconnected")
	}
}

// Publish sends ev to every subscriber. A subscriber whose buffer is full is
// disconnected rather than allowed to stall the others.
func (h *Hub) Publish(ev api.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Msg("encode live event")
		return
	}

	var slow []*peer
	h.mu.RLock()
	for p := range h.peers {
		select {
		case p.send <- data:
		default:
			slow = append(slow, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range slow {
		h.log.Warn().Str("remote", p.addr).Msg("dropping slow subscriber")
		h.remove(p)
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	peers := h.peers
	h.peers = make(map[*peer]struct{})
	h.mu.Unlock()
	for p := range peers {
		p.close()
	}
}

func (h *Hub) writePump(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				p.conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug().Err(err).Str("remote", p.addr).Msg("write to subscriber failed")
				h.remove(p)
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(p)
				return
			}
		}
	}
}

func (h *Hub) readPump(p *peer) {
	defer h.remove(p)

	p.conn.SetReadLimit(maxInboundSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("remote", p.addr).Msg("subscriber read error")
			}
			return
		}
	}
}

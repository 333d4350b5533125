// Package web serves the live status monitor: a websocket endpoint that
// streams manager statistics to any connected dashboard.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hashfront/autoplay/manager"
)

var upgrader = websocket.Upgrader{
	// The monitor is read-only diagnostics on a private address.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Monitor broadcasts manager stats over websockets.
type Monitor struct {
	mgr      *manager.GameManager
	interval time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewMonitor returns a monitor reading from mgr.
func NewMonitor(mgr *manager.GameManager, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		mgr:      mgr,
		interval: interval,
		clients:  make(map[*websocket.Conn]bool),
	}
}

// update is one stats frame sent to clients.
type update struct {
	Type  string        `json:"type"`
	Time  time.Time     `json:"time"`
	Stats manager.Stats `json:"stats"`
}

// ServeHTTP upgrades the connection and registers it for broadcasts. The
// first frame is sent immediately so dashboards render without waiting a
// full interval.
func (m *Monitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = true
	m.mu.Unlock()
	slog.Info("monitor client connected", "remote", conn.RemoteAddr())

	if err := conn.WriteJSON(m.frame()); err != nil {
		m.drop(conn)
		return
	}

	// Drain reads so pings and close frames are processed; the monitor
	// never acts on client messages.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				m.drop(conn)
				return
			}
		}
	}()
}

func (m *Monitor) frame() update {
	return update{Type: "stats", Time: time.Now().UTC(), Stats: m.mgr.Stats()}
}

func (m *Monitor) drop(conn *websocket.Conn) {
	m.mu.Lock()
	if m.clients[conn] {
		delete(m.clients, conn)
		conn.Close()
	}
	m.mu.Unlock()
}

// broadcast sends a frame to every connected client, dropping the ones
// that fail.
func (m *Monitor) broadcast() {
	payload, err := json.Marshal(m.frame())
	if err != nil {
		return
	}

	m.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(m.clients))
	for c := range m.clients {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			m.drop(c)
		}
	}
}

// Run serves the monitor on addr until the context is cancelled.
func (m *Monitor) Run(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", m)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				srv.Shutdown(context.Background())
				return
			case <-ticker.C:
				m.broadcast()
			}
		}
	}()

	slog.Info("monitor listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

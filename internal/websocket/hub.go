package websocket

import (
	"sync"

	"care-relay-be/internal/pkg/logger"
)

// Hub is the connection registry: one live connection per (side, participant).
type Hub struct {
	clients map[Side]map[string]Connection

	// Lock for safe map access
	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		clients: map[Side]map[string]Connection{
			SidePatient: make(map[string]Connection),
			SideExpert:  make(map[string]Connection),
		},
		logger: log,
	}
}

// Register installs conn for its participant. A connection already registered
// under the same identifier is closed before conn becomes visible and is returned.
func (h *Hub) Register(conn Connection) Connection {
	h.mu.Lock()
	side := h.sideMap(conn.Side())
	evicted, exists := side[conn.ParticipantID()]
	if exists && evicted != conn {
		evicted.Close()
	} else {
		evicted = nil
	}
	side[conn.ParticipantID()] = conn

	details := map[string]interface{}{
		"participant_id": conn.ParticipantID(),
		"side":           conn.Side(),
		"conn_id":        conn.ConnID(),
		"total":          len(side),
	}
	if evicted != nil {
		details["evicted_conn_id"] = evicted.ConnID()
	}
	h.mu.Unlock()

	h.logger.Info("Hub", "Client registered", details)
	return evicted
}

// Unregister removes conn if it is still the registered connection for its
// participant. It reports whether an entry was removed.
func (h *Hub) Unregister(conn Connection) bool {
	h.mu.Lock()
	side := h.sideMap(conn.Side())
	current, ok := side[conn.ParticipantID()]
	if !ok || current != conn {
		h.mu.Unlock()
		return false
	}
	delete(side, conn.ParticipantID())
	total := len(side)
	h.mu.Unlock()

	h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
		"participant_id": conn.ParticipantID(),
		"side":           conn.Side(),
		"conn_id":        conn.ConnID(),
		"total":          total,
	})
	return true
}

// Lookup returns the live connection for a participant, if any.
func (h *Hub) Lookup(side Side, participantID string) (Connection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn, ok := h.clients[side][participantID]
	return conn, ok
}

// Count returns the number of live connections on a side.
func (h *Hub) Count(side Side) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[side])
}

// sideMap must be called with mu held.
func (h *Hub) sideMap(side Side) map[string]Connection {
	m, ok := h.clients[side]
	if !ok {
		m = make(map[string]Connection)
		h.clients[side] = m
	}
	return m
}

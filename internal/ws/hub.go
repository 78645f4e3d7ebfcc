package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messenger-service/internal/observability"
)

// Envelope is the frame pushed to websocket clients.
type Envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub maintains active websocket connections keyed by user. A user may
// hold several connections at once (multiple devices or tabs); an event
// addressed to a user goes to all of them.
type Hub struct {
	clients map[string]map[*websocket.Conn]ConnInfo
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]ConnInfo)}
}

// AddClient registers a websocket connection for a user.
func (h *Hub) AddClient(userID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.clients[userID][conn] = info
}

// RemoveClient removes a user's websocket connection.
func (h *Hub) RemoveClient(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
}

// ConnCount reports the number of live connections for a user.
func (h *Hub) ConnCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Notify sends an event to every connection of each listed user. Users
// without a live connection are skipped silently. A failed write closes
// and unregisters the connection.
func (h *Hub) Notify(userIDs []string, event string, payload interface{}) {
	frame, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}

	for _, userID := range userIDs {
		h.mu.RLock()
		conns := make([]*websocket.Conn, 0, len(h.clients[userID]))
		for conn := range h.clients[userID] {
			conns = append(conns, conn)
		}
		h.mu.RUnlock()

		for _, conn := range conns {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("websocket write error user=%s: %v", userID, err)
				conn.Close()
				info, tracked := h.connInfo(userID, conn)
				h.RemoveClient(userID, conn)
				observability.DecWSActive()
				if tracked {
					h.publishWSError(userID, info, err)
				}
			}
		}
	}
}

func (h *Hub) connInfo(userID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if conns, ok := h.clients[userID]; ok {
		info, exists := conns[conn]
		return info, exists
	}
	return ConnInfo{}, false
}

func (h *Hub) publishWSError(userID string, info ConnInfo, err error) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   userID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("ws_error")
}

const wsRoutingKey = "ws_events.messenger"

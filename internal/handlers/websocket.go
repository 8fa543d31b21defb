package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocketHandler fans job progress events out to connected clients
type WebSocketHandler struct {
	logger       arbor.ILogger
	clients      map[*websocket.Conn]*sync.Mutex
	mu           sync.RWMutex
	eventService interfaces.EventService

	// Unique ID generated on startup - clients use it to detect restarts
	serverInstanceID string
}

// NewWebSocketHandler creates the progress feed handler and subscribes it
// to every job event type on the bus
func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		serverInstanceID: uuid.New().String(),
	}

	for _, eventType := range []interfaces.EventType{
		interfaces.EventJobStarted,
		interfaces.EventJobProgress,
		interfaces.EventJobCompleted,
		interfaces.EventJobFailed,
		interfaces.EventJobCancelled,
		interfaces.EventJobPaused,
	} {
		if err := eventService.Subscribe(eventType, h.handleEvent); err != nil {
			logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("WebSocket event subscription failed")
		}
	}

	return h
}

// HandleWebSocket handles GET /ws upgrade requests
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", count).Msg("WebSocket client connected")

	// Initial hello so clients can detect server restarts
	h.send(conn, map[string]interface{}{
		"type":               "hello",
		"server_instance_id": h.serverInstanceID,
	})

	// Read loop exists only to observe close
	go func() {
		defer h.dropClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// handleEvent forwards a bus event to every connected client
func (h *WebSocketHandler) handleEvent(ctx context.Context, event interfaces.Event) error {
	message := map[string]interface{}{
		"type":    string(event.Type),
		"payload": event.Payload,
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.send(conn, message)
	}
	return nil
}

// send writes one JSON message to a client, dropping it on failure
func (h *WebSocketHandler) send(conn *websocket.Conn, message interface{}) {
	h.mu.RLock()
	writeMu, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to encode WebSocket message")
		return
	}

	writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	writeMu.Unlock()

	if err != nil {
		h.dropClient(conn)
	}
}

func (h *WebSocketHandler) dropClient(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", count).Msg("WebSocket client disconnected")
}

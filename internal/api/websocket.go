package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/wedding-planner/backend/internal/engine"
	"github.com/wedding-planner/backend/internal/interaction"
)

// WebSocket message types for the canvas channel
const (
	// Client -> Server messages
	MsgTypePointer = "pointer"
	MsgTypeKey     = "key"
	MsgTypeTool    = "tool"
	MsgTypePing    = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypePreview   = "preview"
	MsgTypeScene     = "scene"
	MsgTypeOutcome   = "outcome"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 50 * time.Second
	wsSendBuffer   = 64
)

// WSMessage is the envelope for every message in both directions
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// PointerPayload carries a batch of pointer events and an optional key
type PointerPayload struct {
	Events []interaction.PointerEvent `json:"events"`
	Key    string                     `json:"key,omitempty"`
}

// KeyPayload carries a key press
type KeyPayload struct {
	Key string `json:"key"`
}

// ToolPayload selects a tool
type ToolPayload struct {
	Tool string `json:"tool"`
	interaction.ToolOptions
}

// WSScenePayload is pushed after every committed change
type WSScenePayload struct {
	Kind     engine.ChangeKind `json:"kind"`
	Revision int64             `json:"revision"`
	Document interface{}       `json:"document"`
}

// WSOutcomePayload answers a pointer, key or tool message
type WSOutcomePayload struct {
	Outcome  interaction.Outcome `json:"outcome"`
	Revision int64               `json:"revision"`
}

// WSErrorResponse describes a rejected message
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type wsClient struct {
	projectID string
	conn      *websocket.Conn
	send      chan WSMessage
}

// WebSocketHub fans engine changes out to every socket of a project and
// feeds socket input into that project's engine.
type WebSocketHub struct {
	sessions SessionManager
	logger   *slog.Logger
	upgrader websocket.Upgrader
	maxBytes int64

	mu      sync.RWMutex
	clients map[string]map[*wsClient]struct{}
}

// NewWebSocketHub creates a hub and subscribes it to every project's changes.
// maxMessageKB limits inbound message size; zero means 64KB.
func NewWebSocketHub(sessions SessionManager, maxMessageKB int, logger *slog.Logger) *WebSocketHub {
	if logger == nil {
		logger = slog.Default()
	}
	if maxMessageKB <= 0 {
		maxMessageKB = 64
	}
	h := &WebSocketHub{
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		maxBytes: int64(maxMessageKB) * 1024,
		clients:  make(map[string]map[*wsClient]struct{}),
	}
	sessions.Subscribe(h.broadcast)
	return h
}

// HandleWebSocket upgrades the connection and runs the canvas protocol
func (h *WebSocketHub) HandleWebSocket(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &wsClient{
		projectID: eng.ProjectID(),
		conn:      ws,
		send:      make(chan WSMessage, wsSendBuffer),
	}
	h.register(client)
	logger := h.logger.With("project", client.projectID, "remote", c.RealIP())
	logger.Info("websocket client connected")

	done := make(chan struct{})
	go h.writeLoop(client, done)

	h.enqueue(client, newMessage(MsgTypeConnected, "", nil))
	h.enqueue(client, sceneMessage(engine.ChangeScene, eng.Revision(), eng.Document()))

	h.readLoop(client, eng, logger)

	h.unregister(client)
	<-done
	ws.Close()
	logger.Info("websocket client disconnected")
	return nil
}

func (h *WebSocketHub) readLoop(client *wsClient, eng *engine.Engine, logger *slog.Logger) {
	ws := client.conn
	ws.SetReadLimit(h.maxBytes)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(wsPongTimeout))

		if eng.Closed() {
			h.sendError(client, msg.ID, "Project session closed, reconnect", "SESSION_CLOSED")
			return
		}

		switch msg.Type {
		case MsgTypePing:
			h.enqueue(client, newMessage(MsgTypePong, msg.ID, nil))
		case MsgTypePointer:
			var p PointerPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				h.sendError(client, msg.ID, "Invalid pointer payload: "+err.Error(), "INVALID_PAYLOAD")
				continue
			}
			req := pointerRequest{Events: p.Events, Key: p.Key}
			if err := req.validate(); err != nil {
				h.sendError(client, msg.ID, err.Error(), "VALIDATION_ERROR")
				continue
			}
			out := eng.HandlePointer(p.Events...)
			if p.Key != "" {
				out.Merge(eng.Key(p.Key))
			}
			h.sendOutcome(client, msg.ID, eng, out)
		case MsgTypeKey:
			var p KeyPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Key == "" {
				h.sendError(client, msg.ID, "Invalid key payload", "INVALID_PAYLOAD")
				continue
			}
			h.sendOutcome(client, msg.ID, eng, eng.Key(p.Key))
		case MsgTypeTool:
			var p ToolPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				h.sendError(client, msg.ID, "Invalid tool payload: "+err.Error(), "INVALID_PAYLOAD")
				continue
			}
			tool, ok := interaction.ParseTool(p.Tool)
			if !ok {
				h.sendError(client, msg.ID, "Unknown tool: "+p.Tool, "VALIDATION_ERROR")
				continue
			}
			h.sendOutcome(client, msg.ID, eng, eng.SetTool(tool, p.ToolOptions))
		default:
			h.sendError(client, msg.ID, "Unknown message type: "+msg.Type, "INVALID_TYPE")
		}
	}
}

// writeLoop owns all writes to the connection.
func (h *WebSocketHub) writeLoop(client *wsClient, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	ws := client.conn
	for {
		select {
		case msg, ok := <-client.send:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := ws.WriteJSON(msg); err != nil {
				h.logger.Debug("websocket write failed", "project", client.projectID, "error", err)
				// Unblock the reader so the client gets unregistered.
				ws.Close()
				h.drain(client)
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				ws.Close()
				h.drain(client)
				return
			}
		}
	}
}

// drain consumes queued messages until the send channel is closed.
func (h *WebSocketHub) drain(client *wsClient) {
	for range client.send {
	}
}

func (h *WebSocketHub) register(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[client.projectID]
	if !ok {
		set = make(map[*wsClient]struct{})
		h.clients[client.projectID] = set
	}
	set[client] = struct{}{}
}

func (h *WebSocketHub) unregister(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[client.projectID]
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.projectID)
	}
	close(client.send)
}

// ClientCount returns the number of sockets open on a project.
func (h *WebSocketHub) ClientCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[projectID])
}

// broadcast is the engine listener.
func (h *WebSocketHub) broadcast(ch engine.Change) {
	var msg WSMessage
	switch ch.Kind {
	case engine.ChangeClosed:
		h.disconnect(ch.ProjectID)
		return
	case engine.ChangePreview:
		msg = newMessage(MsgTypePreview, "", ch.Preview)
	case engine.ChangeScene, engine.ChangeViewport:
		msg = sceneMessage(ch.Kind, ch.Revision, ch.Document)
	default:
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[ch.ProjectID] {
		h.offer(client, msg)
	}
}

// disconnect closes every socket of a project whose engine was closed.
// Clients reconnect to get the reopened project.
func (h *WebSocketHub) disconnect(projectID string) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients[projectID]))
	for client := range h.clients[projectID] {
		conns = append(conns, client.conn)
	}
	h.mu.RUnlock()

	for _, ws := range conns {
		go func(ws *websocket.Conn) {
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "project closed")
			_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			ws.Close()
		}(ws)
	}
	if len(conns) > 0 {
		h.logger.Info("disconnected sockets of closed project", "project", projectID, "clients", len(conns))
	}
}

// enqueue queues a message for one client if it is still registered.
func (h *WebSocketHub) enqueue(client *wsClient, msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client.projectID][client]; ok {
		h.offer(client, msg)
	}
}

// offer never blocks; a client whose buffer is full misses the message.
// Must be called with h.mu held.
func (h *WebSocketHub) offer(client *wsClient, msg WSMessage) {
	select {
	case client.send <- msg:
	default:
		h.logger.Warn("websocket client too slow, dropping message", "project", client.projectID, "type", msg.Type)
	}
}

func (h *WebSocketHub) sendOutcome(client *wsClient, id string, eng *engine.Engine, out interaction.Outcome) {
	h.enqueue(client, newMessage(MsgTypeOutcome, id, WSOutcomePayload{Outcome: out, Revision: eng.Revision()}))
}

func (h *WebSocketHub) sendError(client *wsClient, id, message, code string) {
	h.enqueue(client, newMessage(MsgTypeError, id, WSErrorResponse{Message: message, Code: code}))
}

func sceneMessage(kind engine.ChangeKind, revision int64, doc interface{}) WSMessage {
	return newMessage(MsgTypeScene, "", WSScenePayload{Kind: kind, Revision: revision, Document: doc})
}

func newMessage(typ, id string, payload interface{}) WSMessage {
	msg := WSMessage{Type: typ, ID: id, Timestamp: time.Now().UnixMilli()}
	if payload != nil {
		msg.Payload = mustJSON(payload)
	}
	return msg
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

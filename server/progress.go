package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xhad/brikmate/pkg/ingest"
	"go.uber.org/zap"
)

// Message is one frame on the progress feed.
type Message struct {
	Type    string      `json:"type"` // status, progress, error or done
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

// Frames carry extracted answers, so the upgrader keeps gorilla's default
// origin check: browsers on another host are refused.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type subscriber struct {
	conn *websocket.Conn
	send chan Message
}

// Hub fans progress messages out to the websocket clients subscribed to a
// session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*subscriber]struct{}
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*subscriber]struct{}),
		logger:   logger,
	}
}

// Publish never blocks: a subscriber whose buffer is full misses the frame.
func (h *Hub) Publish(session string, msg Message) {
	if session == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.sessions[session] {
		select {
		case sub.send <- msg:
		default:
			h.logger.Warn("dropping progress message", zap.String("session", session), zap.String("type", msg.Type))
		}
	}
}

func (h *Hub) subscribe(session string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[session] == nil {
		h.sessions[session] = make(map[*subscriber]struct{})
	}
	h.sessions[session][sub] = struct{}{}
}

func (h *Hub) unsubscribe(session string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.sessions[session]; ok {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			close(sub.send)
		}
		if len(subs) == 0 {
			delete(h.sessions, session)
		}
	}
}

// Subscribers returns the number of clients listening on session.
func (h *Hub) Subscribers(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[session])
}

// Reporter returns a progress callback that publishes ingest events on
// session.
func (h *Hub) Reporter(session string) func(ingest.Event) {
	if session == "" {
		return nil
	}
	return func(e ingest.Event) {
		msg := Message{Type: "status", Content: e.Message}
		switch {
		case e.Field != nil:
			msg.Type = "progress"
			msg.Data = e.Field
		case e.Stage == ingest.StageDone:
			msg.Type = "done"
		}
		h.Publish(session, msg)
	}
}

// handleWebSocket serves GET /ws?session=<id>.
func (h *Hub) handleWebSocket(c *gin.Context) {
	session := c.Query("session")
	if session == "" {
		c.JSON(http.StatusBadRequest, errorBody("InvalidInput", "session is required"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := &subscriber{conn: conn, send: make(chan Message, sendBuffer)}
	h.subscribe(session, sub)
	sub.send <- Message{Type: "status", Content: "subscribed"}

	go h.writeLoop(sub)

	// Clients send nothing; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unsubscribe(session, sub)
}

func (h *Hub) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for msg := range sub.send {
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteJSON(msg); err != nil {
			h.logger.Debug("error sending message", zap.Error(err))
			return
		}
	}
	sub.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/filmlink/filmlink/internal/metadata"
	"github.com/filmlink/filmlink/internal/suggest"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. A choose message carries a
	// full candidate including its overview.
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // editor extensions connect from arbitrary origins
	},
}

// SessionFactory starts the suggestion session backing one connection.
type SessionFactory func(ctx context.Context, kind metadata.MediaKind, notifier suggest.Notifier) *suggest.Session

// Hub manages WebSocket connections. Each connection owns its own
// suggestion session; broadcasts reach every connection.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	newSession SessionFactory
	logger     zerolog.Logger
}

// Client represents a WebSocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *suggest.Session
	ctx     context.Context
	cancel  context.CancelFunc

	sendMu sync.Mutex
	send   chan []byte
	closed bool

	// lastSeq is the sequence of the newest suggestions sent.
	seqMu   sync.Mutex
	lastSeq uint64
}

// NewHub creates a new WebSocket hub.
func NewHub(newSession SessionFactory, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		newSession: newSession,
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// Run starts the hub's main loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			client.closeSend()
			delete(h.clients, client)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.enqueue(message) {
					client.closeSend()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msgType string, payload any) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the connection and starts a suggestion session
// for the media kind given in the "kind" query parameter.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	kindParam := c.QueryParam("kind")
	if kindParam == "" {
		kindParam = string(metadata.KindMovie)
	}
	kind, err := metadata.ParseMediaKind(kindParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	// The request context ends when this handler returns.
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		hub:    h,
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan []byte, 256),
	}
	client.session = h.newSession(ctx, kind, suggest.NotifierFunc(func(message string) {
		client.sendMessage(TypeNotice, NoticePayload{Message: message})
	}))

	select {
	case h.register <- client:
	case <-h.done:
		cancel()
		conn.Close()
		return nil
	}

	h.logger.Debug().Str("kind", kind.String()).Str("remote", c.RealIP()).Msg("WebSocket client connected")

	go client.writePump()
	go client.readPump()

	return nil
}

func (c *Client) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendMessage(msgType string, payload any) {
	data, err := encode(msgType, payload)
	if err != nil {
		c.hub.logger.Error().Err(err).Str("type", msgType).Msg("Failed to encode message")
		return
	}
	if !c.enqueue(data) {
		c.hub.logger.Debug().Str("type", msgType).Msg("Dropped message for closed or slow client")
	}
}

// handleMessage dispatches one inbound frame on the read loop. A query is
// submitted here, in arrival order, and awaited on its own goroutine so a
// newer query can supersede a pending one.
func (c *Client) handleMessage(raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendMessage(TypeError, ErrorPayload{Error: "invalid message"})
		return
	}

	switch msg.Type {
	case TypeQuery:
		var payload QueryPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendMessage(TypeError, ErrorPayload{Error: "invalid query payload"})
			return
		}
		go c.suggest(c.session.Submit(payload.Query))

	case TypeChoose:
		var candidate metadata.Candidate
		if err := json.Unmarshal(msg.Payload, &candidate); err != nil {
			c.sendMessage(TypeError, ErrorPayload{Error: "invalid choose payload"})
			return
		}
		if candidate.Kind == "" {
			candidate.Kind = c.session.Kind()
		}
		go c.choose(candidate)

	default:
		c.sendMessage(TypeError, ErrorPayload{Error: "unknown message type: " + msg.Type})
	}
}

func (c *Client) suggest(ticket suggest.Ticket) {
	res := c.session.Await(c.ctx, ticket)
	if res.Stale || res.Skip == suggest.SkipDuplicate {
		return
	}

	c.seqMu.Lock()
	defer c.seqMu.Unlock()
	if res.Seq < c.lastSeq {
		return
	}
	c.lastSeq = res.Seq

	c.sendMessage(TypeSuggestions, SuggestionsPayload{
		Query: res.Query,
		Items: c.session.RenderAll(res.Items),
	})
}

func (c *Client) choose(candidate metadata.Candidate) {
	link, ok := c.session.Link(c.ctx, candidate)
	if !ok {
		return
	}
	c.sendMessage(TypeLink, LinkPayload{ID: candidate.ID, Title: candidate.Title, Link: link})
}

// readPump pumps messages from the websocket connection to the session.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Msg("WebSocket closed unexpectedly")
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump pumps queued messages to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

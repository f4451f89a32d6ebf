package websocket

import (
	"encoding/json"
	"time"

	"github.com/filmlink/filmlink/internal/suggest"
)

// Message types. Clients send query and choose; the server sends the rest.
const (
	TypeQuery       = "query"
	TypeChoose      = "choose"
	TypeSuggestions = "suggestions"
	TypeLink        = "link"
	TypeNotice      = "notice"
	TypeError       = "error"
)

// Message represents an outbound WebSocket message.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type QueryPayload struct {
	Query string `json:"query"`
}

type SuggestionsPayload struct {
	Query string         `json:"query"`
	Items []suggest.Item `json:"items"`
}

type LinkPayload struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Link  string `json:"link"`
}

type NoticePayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

package logger

import (
	"encoding/json"
)

const defaultRecentEntries = 200

// LogEntry is a parsed log line kept for the recent-logs endpoint.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Recorder is an io.Writer that keeps the latest zerolog JSON entries.
type Recorder struct {
	buffer *RingBuffer[LogEntry]
}

func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = defaultRecentEntries
	}
	return &Recorder{buffer: NewRingBuffer[LogEntry](size)}
}

// Write implements io.Writer. Lines that are not JSON are ignored.
func (r *Recorder) Write(p []byte) (int, error) {
	var raw map[string]any
	if err := json.Unmarshal(p, &raw); err != nil {
		return len(p), nil
	}

	entry := LogEntry{}
	entry.Timestamp, _ = raw["time"].(string)
	entry.Level, _ = raw["level"].(string)
	entry.Component, _ = raw["component"].(string)
	entry.Message, _ = raw["message"].(string)
	for _, k := range []string{"time", "level", "component", "message"} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}

	r.buffer.Push(entry)
	return len(p), nil
}

// Recent returns up to n entries, oldest first.
func (r *Recorder) Recent(n int) []LogEntry {
	return r.buffer.Last(n)
}

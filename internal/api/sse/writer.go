// Package sse provides Server-Sent Events support for the agent push stream.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// EventError is written when the stream ends because of a failure.
const EventError = "error"

// Writer writes Server-Sent Events to an HTTP response.
type Writer struct {
	writer  http.ResponseWriter
	flusher http.Flusher
}

// NewWriter creates a new SSE writer.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &Writer{
		writer:  w,
		flusher: flusher,
	}, nil
}

// WriteEvent writes an SSE event with the given type and data.
func (w *Writer) WriteEvent(eventType string, data string) error {
	_, err := fmt.Fprintf(w.writer, "event: %s\ndata: %s\n\n", eventType, data)
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// WriteEventWithID writes an SSE event with an ID.
func (w *Writer) WriteEventWithID(eventType string, id string, data string) error {
	_, err := fmt.Fprintf(w.writer, "id: %s\nevent: %s\ndata: %s\n\n", id, eventType, data)
	if err != nil {
		return fmt.Errorf("failed to write event with id: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// WriteJSON writes an SSE event with JSON-encoded data.
func (w *Writer) WriteJSON(eventType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	return w.WriteEvent(eventType, string(jsonData))
}

// WriteSessionEvent writes a push stream event. Init and message events
// carry the watermark as the SSE id.
func (w *Writer) WriteSessionEvent(event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	switch event.Type {
	case models.EventInit, models.EventMessage:
		return w.WriteEventWithID(string(event.Type), strconv.FormatInt(event.Watermark, 10), string(data))
	default:
		return w.WriteEvent(string(event.Type), string(data))
	}
}

// WriteKeepalive writes a keepalive event.
func (w *Writer) WriteKeepalive(sessionID string) error {
	return w.WriteSessionEvent(models.Event{Type: models.EventKeepalive, SessionID: sessionID})
}

// ErrorEvent represents an error event.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// WriteError writes an error event.
func (w *Writer) WriteError(code, message string, details string) error {
	return w.WriteJSON(EventError, &ErrorEvent{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// Package telemetry provides the fire-and-forget event sink consumed by the
// board model. Tracking must never block, fail, or influence the pipeline
// that emits it.
package telemetry

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
)

// Tracker records named events with string properties and numeric
// measurements. Implementations must be safe for concurrent use and must not
// return errors to callers; a tracker that cannot deliver an event drops it.
type Tracker interface {
	TrackEvent(name string, properties map[string]string, measurements map[string]float64)
}

// Log is a Tracker that emits each event as a single JSON line via the
// standard logger. Every event carries the session ID assigned at
// construction so events from one process can be correlated.
type Log struct {
	sessionID string
	component string
}

// NewLog creates a logging tracker for the given component label.
func NewLog(component string) *Log {
	return &Log{
		sessionID: uuid.New().String(),
		component: component,
	}
}

// TrackEvent marshals the event to JSON and writes it to the standard
// logger. Marshal failures are logged and swallowed.
func (l *Log) TrackEvent(name string, properties map[string]string, measurements map[string]float64) {
	event := map[string]any{
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"event":      name,
		"component":  l.component,
		"session_id": l.sessionID,
	}
	for k, v := range properties {
		event[k] = v
	}
	for k, v := range measurements {
		event[k] = v
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		log.Printf("[telemetry] failed to marshal event %q: %v", name, err)
		return
	}
	log.Println(string(jsonData))
}

// Noop is a Tracker that discards all events. Used in tests and wherever a
// caller has no sink configured.
type Noop struct{}

// TrackEvent discards the event.
func (Noop) TrackEvent(string, map[string]string, map[string]float64) {}

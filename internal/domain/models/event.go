package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventVersion = "1.0"
	EventSource  = "quantiq-data-engine"
)

// Event is the envelope published for every pipeline outcome.
type Event struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Payload   PipelineOutcome `json:"payload"`
}

var eventTypes = map[RequestKind][2]string{
	KindAggregate: {"ECONOMIC_DATA_UPDATED", "ECONOMIC_DATA_UPDATE_FAILED"},
	KindTechnical: {"ANALYSIS_TECHNICAL_COMPLETED", "ANALYSIS_TECHNICAL_FAILED"},
	KindSentiment: {"ANALYSIS_SENTIMENT_COMPLETED", "ANALYSIS_SENTIMENT_FAILED"},
	KindCombined:  {"ANALYSIS_COMPLETED", "ANALYSIS_FAILED"},
}

// EventTypeFor returns the paired success/failure event name for a kind.
func EventTypeFor(kind RequestKind, status OutcomeStatus) string {
	pair, ok := eventTypes[kind]
	if !ok {
		pair = [2]string{"PIPELINE_COMPLETED", "PIPELINE_REQUEST_REJECTED"}
	}
	if status == StatusSuccess {
		return pair[0]
	}
	return pair[1]
}

// NewEvent wraps an outcome into an event envelope.
func NewEvent(outcome PipelineOutcome) Event {
	ts := outcome.CompletedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return Event{
		EventID:   uuid.NewString(),
		EventType: EventTypeFor(outcome.Kind, outcome.Status),
		Version:   EventVersion,
		Timestamp: ts,
		Source:    EventSource,
		Payload:   outcome,
	}
}

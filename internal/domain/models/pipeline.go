package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestKind selects the pipeline run by the dispatcher.
type RequestKind string

const (
	KindAggregate RequestKind = "aggregate"
	KindTechnical RequestKind = "technical"
	KindSentiment RequestKind = "sentiment"
	KindCombined  RequestKind = "combined"
)

// RequestKinds lists all recognized kinds.
var RequestKinds = []RequestKind{KindAggregate, KindTechnical, KindSentiment, KindCombined}

// ParseRequestKind maps a name to a known kind.
func ParseRequestKind(s string) (RequestKind, bool) {
	k := RequestKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range RequestKinds {
		if k == known {
			return k, true
		}
	}
	return k, false
}

type RequestParams struct {
	TargetDate string   `json:"targetDate,omitempty"`
	Source     string   `json:"source,omitempty"`
	DataTypes  []string `json:"dataTypes,omitempty"`
	Priority   string   `json:"priority,omitempty"`
}

// PipelineRequest is one inbound request. CorrelationToken threads notifications
// into the conversation the request originated from.
type PipelineRequest struct {
	RequestID        string        `json:"requestId"`
	Kind             RequestKind   `json:"kind"`
	Params           RequestParams `json:"params"`
	CorrelationToken string        `json:"correlationToken,omitempty"`
}

// NewPipelineRequest builds a request with a generated id.
func NewPipelineRequest(kind RequestKind, source, targetDate string) PipelineRequest {
	return PipelineRequest{
		RequestID: uuid.NewString(),
		Kind:      kind,
		Params:    RequestParams{TargetDate: targetDate, Source: source},
	}
}

// RequestMessage is the bus body: {"payload": {...}} or the same fields flat.
type RequestMessage struct {
	Payload *RequestPayload `json:"payload"`
	RequestPayload
}

type RequestPayload struct {
	RequestID  string   `json:"requestId"`
	ThreadTs   string   `json:"threadTs"`
	Source     string   `json:"source"`
	TargetDate string   `json:"targetDate"`
	DataTypes  []string `json:"dataTypes"`
	Priority   string   `json:"priority"`
}

// ToRequest converts the message into a request of the given kind.
func (m RequestMessage) ToRequest(kind RequestKind) PipelineRequest {
	p := m.RequestPayload
	if m.Payload != nil {
		p = *m.Payload
	}
	id := p.RequestID
	if id == "" {
		id = "unknown"
	}
	source := p.Source
	if source == "" {
		source = "kafka"
	}
	return PipelineRequest{
		RequestID: id,
		Kind:      kind,
		Params: RequestParams{
			TargetDate: p.TargetDate,
			Source:     source,
			DataTypes:  p.DataTypes,
			Priority:   p.Priority,
		},
		CorrelationToken: p.ThreadTs,
	}
}

type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusFailed  OutcomeStatus = "failed"
)

// PipelineOutcome is the terminal result of one dispatch.
type PipelineOutcome struct {
	RequestID       string        `json:"requestId"`
	Kind            RequestKind   `json:"kind"`
	Status          OutcomeStatus `json:"status"`
	DurationSeconds float64       `json:"durationSeconds"`
	Payload         interface{}   `json:"payload,omitempty"`
	Error           string        `json:"error,omitempty"`
	ErrorKind       string        `json:"errorKind,omitempty"`
	CompletedAt     time.Time     `json:"completedAt"`
}

package queue

import (
	"encoding/json"
	"testing"
)

type runPayload struct {
	Kind       string `json:"kind"`
	TargetDate string `json:"targetDate"`
}

func TestParsePayloadRaw(t *testing.T) {
	raw := json.RawMessage(`{"kind":"technical","targetDate":"2024-01-10"}`)
	got, err := ParsePayload[runPayload](raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Kind != "technical" || got.TargetDate != "2024-01-10" {
		t.Fatalf("got %+v", got)
	}
}

func TestParsePayloadValueAndMap(t *testing.T) {
	got, err := ParsePayload[runPayload](runPayload{Kind: "aggregate"})
	if err != nil || got.Kind != "aggregate" {
		t.Fatalf("value: %+v %v", got, err)
	}
	got, err = ParsePayload[runPayload](map[string]interface{}{"kind": "combined"})
	if err != nil || got.Kind != "combined" {
		t.Fatalf("map: %+v %v", got, err)
	}
}

func TestParsePayloadRejectsUnknownType(t *testing.T) {
	if _, err := ParsePayload[runPayload](42); err == nil {
		t.Fatalf("expected error")
	}
}

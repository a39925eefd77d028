package server

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type recorder struct {
	events []string
}

type stubComponent struct {
	name     string
	rec      *recorder
	startErr error
}

func (s *stubComponent) Start() error {
	s.rec.events = append(s.rec.events, "start "+s.name)
	return s.startErr
}

func (s *stubComponent) Stop(context.Context) error {
	s.rec.events = append(s.rec.events, "stop "+s.name)
	return nil
}

func TestRunStopsInReverseThenCloses(t *testing.T) {
	rec := &recorder{}
	app := New(nil, 0).
		Add("consumer", &stubComponent{name: "consumer", rec: rec}).
		Add("http", &stubComponent{name: "http", rec: rec}).
		OnClose("clickhouse", func() error {
			rec.events = append(rec.events, "close clickhouse")
			return errors.New("already closed")
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"start consumer", "start http", "stop http", "stop consumer", "close clickhouse"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("events=%v want %v", rec.events, want)
	}
}

func TestStartFailureStopsStartedComponents(t *testing.T) {
	rec := &recorder{}
	app := New(nil, 0).
		Add("queue", &stubComponent{name: "queue", rec: rec}).
		Add("consumer", &stubComponent{name: "consumer", rec: rec, startErr: errors.New("no handlers")}).
		Add("http", &stubComponent{name: "http", rec: rec})

	if err := app.Start(); err == nil {
		t.Fatal("expected start error")
	}
	want := []string{"start queue", "start consumer", "stop queue"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("events=%v want %v", rec.events, want)
	}
}

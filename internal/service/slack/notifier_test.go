package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lian220/quintiq-backend/internal/domain/models"
)

func TestNotifierThreadsThroughAPI(t *testing.T) {
	var (
		got  message
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true,"ts":"1.2"}`))
	}))
	defer srv.Close()

	n := New(Config{BotToken: "xoxb", APIURL: srv.URL}, nil)
	req := models.PipelineRequest{RequestID: "r1", Kind: models.KindAggregate, CorrelationToken: "123.456"}
	if err := n.NotifySuccess(context.Background(), req, "done"); err != nil {
		t.Fatalf("NotifySuccess: %v", err)
	}

	if auth != "Bearer xoxb" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.ThreadTs != "123.456" || got.Channel != DefaultChannel {
		t.Fatalf("unexpected message %+v", got)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Text != "done" {
		t.Fatalf("unexpected attachments %+v", got.Attachments)
	}
}

func TestNotifierAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	n := New(Config{BotToken: "xoxb", APIURL: srv.URL}, nil)
	err := n.NotifyError(context.Background(), models.PipelineRequest{RequestID: "r1"}, "boom")
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestNotifierWebhookHasNoThread(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := New(Config{WebhookURL: srv.URL}, nil)
	req := models.PipelineRequest{RequestID: "r1", Kind: models.KindTechnical, CorrelationToken: "9.9"}
	if err := n.NotifyStart(context.Background(), req, "starting"); err != nil {
		t.Fatalf("NotifyStart: %v", err)
	}
	if got.ThreadTs != "" || got.Channel != "" {
		t.Fatalf("webhook message must not carry channel or thread: %+v", got)
	}
	if !strings.Contains(got.Text, "Technical analysis") {
		t.Fatalf("unexpected text %q", got.Text)
	}
}

func TestNotifierUnconfiguredIsNoop(t *testing.T) {
	n := New(Config{}, nil)
	if err := n.NotifyStart(context.Background(), models.PipelineRequest{RequestID: "r"}, ""); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

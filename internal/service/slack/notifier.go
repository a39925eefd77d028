// Package slack posts pipeline progress to a Slack channel.
package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	httpx "github.com/lian220/quintiq-backend/pkg/http"
	"github.com/lian220/quintiq-backend/pkg/logger"
)

const (
	DefaultAPIURL  = "https://slack.com/api/chat.postMessage"
	DefaultChannel = "#trading-alerts"
	footer         = "Quantiq Data Engine"

	colorStart   = "0099cc"
	colorSuccess = "28a745"
	colorError   = "dc3545"
)

type Config struct {
	BotToken   string
	WebhookURL string
	Channel    string
	APIURL     string
	Timeout    time.Duration
}

// Notifier implements repository.Notifier. With a bot token it posts through
// chat.postMessage and threads replies on the request's correlation token;
// otherwise it falls back to the incoming webhook, which cannot thread.
type Notifier struct {
	cfg    Config
	client *httpx.Client
	log    *logger.Logger
}

type field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type attachment struct {
	Color  string  `json:"color"`
	Title  string  `json:"title"`
	Text   string  `json:"text,omitempty"`
	Fields []field `json:"fields,omitempty"`
	Footer string  `json:"footer"`
	Ts     int64   `json:"ts"`
}

type message struct {
	Channel     string       `json:"channel,omitempty"`
	Text        string       `json:"text"`
	ThreadTs    string       `json:"thread_ts,omitempty"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Ts    string `json:"ts"`
	Error string `json:"error"`
}

func New(cfg Config, l *logger.Logger) *Notifier {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Notifier{
		cfg:    cfg,
		client: httpx.NewClient(httpx.WithTimeout(cfg.Timeout)),
		log:    l,
	}
}

func (n *Notifier) NotifyStart(ctx context.Context, req models.PipelineRequest, detail string) error {
	return n.post(ctx, req, fmt.Sprintf(":arrows_counterclockwise: %s started", title(req.Kind)), attachment{
		Color: colorStart,
		Title: "In progress",
		Text:  detail,
		Fields: []field{
			{Title: "Request ID", Value: req.RequestID, Short: true},
			{Title: "Source", Value: req.Params.Source, Short: true},
		},
	})
}

func (n *Notifier) NotifySuccess(ctx context.Context, req models.PipelineRequest, summary string) error {
	return n.post(ctx, req, fmt.Sprintf(":white_check_mark: %s completed", title(req.Kind)), attachment{
		Color:  colorSuccess,
		Title:  "Summary",
		Text:   summary,
		Fields: []field{{Title: "Request ID", Value: req.RequestID, Short: true}},
	})
}

func (n *Notifier) NotifyError(ctx context.Context, req models.PipelineRequest, msg string) error {
	return n.post(ctx, req, fmt.Sprintf(":x: %s failed", title(req.Kind)), attachment{
		Color:  colorError,
		Title:  "Error",
		Text:   msg,
		Fields: []field{{Title: "Request ID", Value: req.RequestID, Short: true}},
	})
}

func (n *Notifier) post(ctx context.Context, req models.PipelineRequest, text string, att attachment) error {
	att.Footer = footer
	att.Ts = time.Now().Unix()
	msg := message{Text: text, Attachments: []attachment{att}}

	switch {
	case n.cfg.BotToken != "":
		msg.Channel = n.cfg.Channel
		msg.ThreadTs = req.CorrelationToken
		return n.postAPI(ctx, msg)
	case n.cfg.WebhookURL != "":
		return n.client.SendAndParse(ctx, &httpx.RequestOptions{
			Method: httpx.MethodPost,
			URL:    n.cfg.WebhookURL,
			Body:   msg,
		}, nil)
	default:
		n.log.Warn("slack not configured, notification dropped",
			logger.String("request_id", req.RequestID),
			logger.String("text", text))
		return nil
	}
}

func (n *Notifier) postAPI(ctx context.Context, msg message) error {
	var resp apiResponse
	err := n.client.SendAndParse(ctx, &httpx.RequestOptions{
		Method:  httpx.MethodPost,
		URL:     n.cfg.APIURL,
		Headers: map[string]string{"Authorization": "Bearer " + n.cfg.BotToken},
		Body:    msg,
	}, &resp)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("slack api: %s", resp.Error)
	}
	return nil
}

func title(kind models.RequestKind) string {
	switch kind {
	case models.KindAggregate:
		return "Economic data collection"
	case models.KindTechnical:
		return "Technical analysis"
	case models.KindSentiment:
		return "Sentiment analysis"
	case models.KindCombined:
		return "Combined analysis"
	default:
		return fmt.Sprintf("Pipeline %q", string(kind))
	}
}

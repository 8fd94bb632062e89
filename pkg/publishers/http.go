package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/veille-cyber/pkg/httpclient"
)

// attributeHeaderPrefix carries event attributes as webhook headers,
// e.g. degraded becomes X-Veille-Degraded.
const attributeHeaderPrefix = "X-Veille-"

type httpPublisher struct {
	cfg    HTTPPublisherConfig
	id     string
	client *resty.Client
	log    Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	client := httpclient.NewRestyHTTPClient(httpclient.Options{
		Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	})
	return &httpPublisher{cfg: *cfg.HTTP, id: cfg.ID, client: client, log: ensureLogger(log)}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish sends the event as a JSON body to the webhook.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	req := h.client.R().SetContext(ctx).SetBody(evt)
	for k, v := range evt.attributes() {
		req.SetHeader(attributeHeaderPrefix+headerCase(k), v)
	}
	// Configured headers win over attribute headers.
	req.SetHeaders(h.cfg.Headers)
	req.SetHeader("Content-Type", "application/json")

	method := h.cfg.Method
	if method == "" {
		method = httpDefaultMethod
	}
	resp, err := req.Execute(method, h.cfg.URL)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook answered %d: %s", resp.StatusCode(), bodySnippet(resp.Body()))
	}
	h.log.DebugObj("report event posted", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"status":       resp.StatusCode(),
	})
	return nil
}

// headerCase turns report_path into Report-Path.
func headerCase(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}

func bodySnippet(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		body = body[:maxLen]
	}
	return strings.TrimSpace(string(body))
}

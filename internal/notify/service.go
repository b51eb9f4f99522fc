// Package notify forwards tracker milestones to the player's phone.
//
// The default implementation publishes to ntfy using the topic from the
// config file and degrades to a no-op when no topic is set. The TUI toast
// banner is separate; this package only handles the push side.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abelbrown/talkatoo/internal/config"
)

const userAgent = "Talkatoo/0.3.0"

// Service is the notification surface the UI talks to.
type Service interface {
	Success(ctx context.Context, message string) error
	Error(ctx context.Context, err error, label string) error
}

// NewService builds an ntfy-backed service when a topic is configured and
// a noop otherwise.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Success(ctx context.Context, message string) error {
	return n.send(ctx, payload{
		title:   "Talkatoo",
		message: strings.TrimSpace(message),
		tags:    []string{"talkatoo", "moon"},
	})
}

func (n *ntfyService) Error(ctx context.Context, err error, label string) error {
	var b strings.Builder
	b.WriteString("Error")
	if label = strings.TrimSpace(label); label != "" {
		b.WriteString(" with ")
		b.WriteString(label)
	}
	if err != nil {
		b.WriteString(": ")
		b.WriteString(err.Error())
	}
	return n.send(ctx, payload{
		title:    "Talkatoo - Error",
		message:  b.String(),
		tags:     []string{"talkatoo", "error"},
		priority: "high",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Success(context.Context, string) error      { return nil }
func (noopService) Error(context.Context, error, string) error { return nil }

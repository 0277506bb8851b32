package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wildwatch/internal/logger"
	"wildwatch/internal/model"
)

// EndpointSource is the slice of the event store the push sink needs.
type EndpointSource interface {
	ListEndpoints(ctx context.Context) ([]string, error)
	RemoveEndpoints(ctx context.Context, tokens ...string) (int64, error)
}

// fcmRequest is the legacy FCM HTTP send body.
type fcmRequest struct {
	RegistrationIDs []string        `json:"registration_ids"`
	Notification    fcmNotification `json:"notification"`
}

type fcmNotification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	ClickAction string `json:"click_action,omitempty"`
}

type fcmResponse struct {
	Success int         `json:"success"`
	Failure int         `json:"failure"`
	Results []fcmResult `json:"results"`
}

type fcmResult struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// PushSink sends one batched push message to every registered endpoint.
type PushSink struct {
	url         string
	serverKey   string
	clickAction string
	client      *http.Client
	endpoints   EndpointSource
	logger      *logger.Logger
}

// PushOptions configures the push sink.
type PushOptions struct {
	URL         string
	ServerKey   string
	ClickAction string
	Timeout     time.Duration
}

// NewPushSink creates a PushSink reading tokens from endpoints.
func NewPushSink(opts PushOptions, endpoints EndpointSource, logger *logger.Logger) *PushSink {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PushSink{
		url:         opts.URL,
		serverKey:   opts.ServerKey,
		clickAction: opts.ClickAction,
		client:      &http.Client{Timeout: timeout},
		endpoints:   endpoints,
		logger:      logger,
	}
}

// Name implements Sink.
func (s *PushSink) Name() string { return "push" }

// Deliver sends the notification. No registered endpoints is a silent no-op.
// Tokens the push service reports as dead are pruned from the store.
func (s *PushSink) Deliver(ctx context.Context, n Notification) error {
	tokens, err := s.endpoints.ListEndpoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to list endpoints: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	body, err := json.Marshal(fcmRequest{
		RegistrationIDs: tokens,
		Notification: fcmNotification{
			Title:       n.Title,
			Body:        n.Body,
			ClickAction: s.clickAction,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: push request failed: %v", model.ErrTransientIO, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: push service returned status %d: %s", model.ErrTransientIO, resp.StatusCode, string(msg))
	}

	var result fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		s.logger.Warning("Could not decode push response: %v", err)
		return nil
	}
	s.pruneDead(ctx, tokens, result.Results)
	return nil
}

// pruneDead removes tokens whose per-token result says they will never work again.
func (s *PushSink) pruneDead(ctx context.Context, tokens []string, results []fcmResult) {
	var dead []string
	for i, r := range results {
		if i >= len(tokens) {
			break
		}
		switch r.Error {
		case "NotRegistered", "InvalidRegistration":
			dead = append(dead, tokens[i])
		}
	}
	if len(dead) == 0 {
		return
	}

	removed, err := s.endpoints.RemoveEndpoints(ctx, dead...)
	if err != nil {
		s.logger.Error("Failed to prune %d dead push tokens: %v", len(dead), err)
		return
	}
	s.logger.Info("Pruned %d dead push tokens", removed)
}

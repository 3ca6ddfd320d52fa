package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/codevcn/thunderchat-client/internal/models"
)

// SendClient delivers outgoing messages over HTTP. Delivery is
// at-least-once; the idempotency token travels in a header so the
// server can deduplicate retries.
type SendClient struct {
	baseURL   string
	authToken string
	http      *http.Client
	log       *zap.SugaredLogger
	tracer    trace.Tracer
}

// NewSendClient builds a SendClient.
func NewSendClient(baseURL, authToken string, timeout time.Duration, log *zap.SugaredLogger) *SendClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SendClient{
		baseURL:   baseURL,
		authToken: authToken,
		http:      &http.Client{Timeout: timeout},
		log:       log,
		tracer:    otel.Tracer("thunderchat-client/transport"),
	}
}

// Send submits the payload and returns the server-confirmed message.
func (c *SendClient) Send(ctx context.Context, conversationID int64, kind models.ConversationKind, payload models.SendPayload, token string) (models.Message, error) {
	ctx, span := c.tracer.Start(ctx, "send.message")
	span.SetAttributes(
		attribute.Int64("conversation_id", conversationID),
		attribute.String("token", token),
	)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		return models.Message{}, err
	}

	url := fmt.Sprintf("%s/conversations/%s/%d/messages", c.baseURL, kind, conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return models.Message{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Token", token)
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Message{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return models.Message{}, fmt.Errorf("send status %d", resp.StatusCode)
	}

	var msg models.Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

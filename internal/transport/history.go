package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/codevcn/thunderchat-client/internal/engine"
	"github.com/codevcn/thunderchat-client/internal/models"
	"github.com/codevcn/thunderchat-client/internal/observability"
)

// HistoryClient talks to the paginated history API over HTTP. Requests
// run behind a circuit breaker so a flapping server trips fast instead
// of piling up timeouts.
type HistoryClient struct {
	baseURL   string
	authToken string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
	log       *zap.SugaredLogger
	tracer    trace.Tracer
}

// HistoryClientConfig carries the history client settings.
type HistoryClientConfig struct {
	BaseURL     string
	AuthToken   string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// NewHistoryClient builds a HistoryClient.
func NewHistoryClient(cfg HistoryClientConfig, log *zap.SugaredLogger) *HistoryClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "history-api",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &HistoryClient{
		baseURL:   cfg.BaseURL,
		authToken: cfg.AuthToken,
		http:      &http.Client{Timeout: cfg.Timeout},
		breaker:   breaker,
		log:       log,
		tracer:    otel.Tracer("thunderchat-client/transport"),
	}
}

// FetchPage requests one page of messages relative to the cursor. The
// server returns them ascending by id.
func (c *HistoryClient) FetchPage(ctx context.Context, conversationID int64, kind models.ConversationKind, cursorID int64, direction engine.Direction, limit int) ([]models.Message, error) {
	ctx, span := c.tracer.Start(ctx, "history.fetch_page")
	span.SetAttributes(
		attribute.Int64("conversation_id", conversationID),
		attribute.String("direction", string(direction)),
		attribute.Int64("cursor_id", cursorID),
	)
	defer span.End()

	url := fmt.Sprintf("%s/conversations/%s/%d/messages?cursor=%d&direction=%s&limit=%d",
		c.baseURL, kind, conversationID, cursorID, direction, limit)

	msgs, err := c.getMessages(ctx, url)
	c.record("page_"+string(direction), err)
	return msgs, err
}

// FetchContext requests a bounded window of messages centered on
// aroundID.
func (c *HistoryClient) FetchContext(ctx context.Context, conversationID int64, kind models.ConversationKind, aroundID int64) ([]models.Message, error) {
	ctx, span := c.tracer.Start(ctx, "history.fetch_context")
	span.SetAttributes(
		attribute.Int64("conversation_id", conversationID),
		attribute.Int64("around_id", aroundID),
	)
	defer span.End()

	url := fmt.Sprintf("%s/conversations/%s/%d/messages/context?around=%d",
		c.baseURL, kind, conversationID, aroundID)

	msgs, err := c.getMessages(ctx, url)
	c.record("context", err)
	return msgs, err
}

func (c *HistoryClient) getMessages(ctx context.Context, url string) ([]models.Message, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("history api status %d", resp.StatusCode)
		}

		var body struct {
			Messages []models.Message `json:"messages"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, err
		}
		return body.Messages, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Message), nil
}

func (c *HistoryClient) record(mode string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.IncFetch(mode, outcome)
}

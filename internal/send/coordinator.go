package send

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codevcn/thunderchat-client/internal/models"
	"github.com/codevcn/thunderchat-client/internal/observability"
)

var ErrUnknownToken = errors.New("unknown send token")

// Transport delivers an outgoing message, at-least-once, idempotent by
// token.
type Transport interface {
	Send(ctx context.Context, conversationID int64, kind models.ConversationKind, payload models.SendPayload, token string) (models.Message, error)
}

type entry struct {
	token          string
	conversationID int64
	kind           models.ConversationKind
	payload        models.SendPayload
	state          models.SendState
}

// Coordinator queues outgoing messages, tags each with a client-local
// idempotency token and reconciles acknowledgment or failure. The queue
// drains strictly in submission order: the next send starts only after
// the previous one reached a terminal state. Failed sends stay visible
// until explicitly retried or abandoned, and a retry reuses the failed
// token's payload unchanged.
type Coordinator struct {
	transport Transport
	log       *zap.SugaredLogger

	// onAck receives the server-confirmed message so it can be merged
	// into the store through the normal merge path.
	onAck   func(models.Message)
	onState func(models.PendingSend)

	mu       sync.Mutex
	queue    []*entry
	failed   map[string]*entry
	inflight bool
}

// NewCoordinator builds a Coordinator.
func NewCoordinator(transport Transport, log *zap.SugaredLogger, onAck func(models.Message), onState func(models.PendingSend)) *Coordinator {
	return &Coordinator{
		transport: transport,
		log:       log,
		onAck:     onAck,
		onState:   onState,
		failed:    make(map[string]*entry),
	}
}

// Enqueue submits a new outgoing message and returns its token.
func (c *Coordinator) Enqueue(ctx context.Context, conversationID int64, kind models.ConversationKind, payload models.SendPayload) string {
	e := &entry{
		token:          uuid.NewString(),
		conversationID: conversationID,
		kind:           kind,
		payload:        payload,
		state:          models.SendQueued,
	}

	c.mu.Lock()
	c.queue = append(c.queue, e)
	c.mu.Unlock()

	c.notify(e)
	c.drain(ctx)
	return e.token
}

// Retry resubmits a failed send with its original token and payload.
func (c *Coordinator) Retry(ctx context.Context, token string) error {
	c.mu.Lock()
	e, ok := c.failed[token]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownToken
	}
	delete(c.failed, token)
	e.state = models.SendQueued
	c.queue = append(c.queue, e)
	c.mu.Unlock()

	c.notify(e)
	c.drain(ctx)
	return nil
}

// Abandon drops a failed send for good.
func (c *Coordinator) Abandon(token string) error {
	c.mu.Lock()
	_, ok := c.failed[token]
	delete(c.failed, token)
	c.mu.Unlock()
	if !ok {
		return ErrUnknownToken
	}
	return nil
}

// Pending returns the queued and failed sends for the UI, submission
// order first, failed ones after.
func (c *Coordinator) Pending() []models.PendingSend {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.PendingSend, 0, len(c.queue)+len(c.failed))
	for _, e := range c.queue {
		out = append(out, models.PendingSend{Token: e.token, Payload: e.payload, State: e.state})
	}
	for _, e := range c.failed {
		out = append(out, models.PendingSend{Token: e.token, Payload: e.payload, State: e.state})
	}
	return out
}

// Reset discards all queued and failed sends when the conversation is
// switched away.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = nil
	c.failed = make(map[string]*entry)
}

func (c *Coordinator) drain(ctx context.Context) {
	c.mu.Lock()
	if c.inflight || len(c.queue) == 0 {
		c.mu.Unlock()
		return
	}
	c.inflight = true
	head := c.queue[0]
	c.mu.Unlock()

	go c.deliver(ctx, head)
}

func (c *Coordinator) deliver(ctx context.Context, e *entry) {
	msg, err := c.transport.Send(ctx, e.conversationID, e.kind, e.payload, e.token)

	c.mu.Lock()
	if len(c.queue) > 0 && c.queue[0] == e {
		c.queue = c.queue[1:]
	}
	if err != nil {
		e.state = models.SendFailed
		c.failed[e.token] = e
	} else {
		e.state = models.SendAcknowledged
	}
	c.inflight = false
	c.mu.Unlock()

	if err != nil {
		c.log.Warnw("send failed", "token", e.token, "conversation_id", e.conversationID, "error", err)
		observability.IncSend("failed")
	} else {
		observability.IncSend("acknowledged")
		if c.onAck != nil {
			c.onAck(msg)
		}
	}
	c.notify(e)
	c.drain(ctx)
}

func (c *Coordinator) notify(e *entry) {
	if c.onState != nil {
		c.onState(models.PendingSend{Token: e.token, Payload: e.payload, State: e.state})
	}
}

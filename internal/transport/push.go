package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/codevcn/thunderchat-client/internal/models"
	"github.com/codevcn/thunderchat-client/internal/observability"
)

// EventHandler receives decoded push events.
type EventHandler func(conversationID int64, kind models.ConversationKind, ev models.PushEvent)

// PushClient maintains the websocket push channel for the active
// conversation. One connection at a time; switching conversations
// closes the old connection before dialing the new one. On reconnect
// the server replays everything after the offset cursor as a recovery
// batch, so the client never has to reorder, only merge.
type PushClient struct {
	baseURL   string
	authToken string
	dialer    *websocket.Dialer
	handler   EventHandler
	log       *zap.SugaredLogger

	reconnectMin time.Duration
	reconnectMax time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	connID string
}

// NewPushClient builds a PushClient. handler is invoked from the read
// loop goroutine.
func NewPushClient(baseURL, authToken string, handler EventHandler, log *zap.SugaredLogger) *PushClient {
	return &PushClient{
		baseURL:      baseURL,
		authToken:    authToken,
		dialer:       websocket.DefaultDialer,
		handler:      handler,
		log:          log,
		reconnectMin: time.Second,
		reconnectMax: 30 * time.Second,
	}
}

// Connect dials the push channel for the conversation and starts the
// read loop. Any previous connection is torn down first so push events
// cannot cross-talk into the wrong window.
func (p *PushClient) Connect(ctx context.Context, conversationID int64, kind models.ConversationKind) error {
	p.Close()

	connCtx, cancel := context.WithCancel(ctx)

	conn, err := p.dial(connCtx, conversationID, kind)
	if err != nil {
		cancel()
		return err
	}

	p.mu.Lock()
	p.conn = conn
	p.cancel = cancel
	p.connID = uuid.NewString()
	p.mu.Unlock()

	observability.IncPushActive()
	go p.readLoop(connCtx, conversationID, kind)
	return nil
}

// Close tears down the current connection, if any.
func (p *PushClient) Close() {
	p.mu.Lock()
	conn, cancel := p.conn, p.cancel
	p.conn, p.cancel = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
		observability.DecPushActive()
	}
}

// SetOffset reports the last merged id so a future reconnect knows
// where recovery resumes.
func (p *PushClient) SetOffset(conversationID int64, lastSeenID int64) error {
	return p.writeCommand(models.PushCommand{
		Type:           models.CommandSetOffset,
		ConversationID: conversationID,
		LastSeenID:     lastSeenID,
	})
}

// MarkSeen emits a read receipt for one message.
func (p *PushClient) MarkSeen(messageID int64, recipientID int64) error {
	return p.writeCommand(models.PushCommand{
		Type:        models.CommandMarkSeen,
		MessageID:   messageID,
		RecipientID: recipientID,
	})
}

func (p *PushClient) writeCommand(cmd models.PushCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return fmt.Errorf("push channel not connected")
	}
	return p.conn.WriteJSON(cmd)
}

func (p *PushClient) dial(ctx context.Context, conversationID int64, kind models.ConversationKind) (*websocket.Conn, error) {
	url := fmt.Sprintf("%s/ws/conversations/%s/%d", p.baseURL, kind, conversationID)
	header := http.Header{}
	if p.authToken != "" {
		header.Set("Authorization", "Bearer "+p.authToken)
	}
	conn, _, err := p.dialer.DialContext(ctx, url, header)
	return conn, err
}

func (p *PushClient) readLoop(ctx context.Context, conversationID int64, kind models.ConversationKind) {
	backoff := p.reconnectMin
	for {
		p.mu.Lock()
		conn := p.conn
		p.mu.Unlock()
		if conn == nil {
			return
		}

		var ev models.PushEvent
		err := conn.ReadJSON(&ev)
		if err == nil {
			backoff = p.reconnectMin
			p.handler(conversationID, kind, ev)
			continue
		}

		if ctx.Err() != nil {
			return
		}
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			p.log.Warnw("push channel read error", "conversation_id", conversationID, "error", err)
		}
		observability.DecPushActive()

		// The connection dropped out from under us; redial with
		// capped backoff until the context is cancelled. The server
		// delivers missed messages as a recovery batch once the new
		// connection is up.
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < p.reconnectMax {
				backoff *= 2
			}

			next, err := p.dial(ctx, conversationID, kind)
			if err != nil {
				p.log.Warnw("push channel redial failed", "conversation_id", conversationID, "error", err)
				continue
			}

			p.mu.Lock()
			stale := p.conn == nil // Close ran while we were redialing
			if !stale {
				p.conn = next
				p.connID = uuid.NewString()
			}
			p.mu.Unlock()

			if stale {
				next.Close()
				return
			}
			observability.IncPushActive()
			_ = observability.PublishEvent(ctx, "sync_events.push", observability.EventEnvelope{
				EventType: "sync_events",
				EventName: "push_reconnected",
				Payload: map[string]interface{}{
					"conversation_id": conversationID,
					"kind":            kind,
				},
			}, observability.BuildHeaders(p.connID, ""))
			break
		}
	}
}

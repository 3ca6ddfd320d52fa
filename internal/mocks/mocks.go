package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/codevcn/thunderchat-client/internal/engine"
	"github.com/codevcn/thunderchat-client/internal/models"
)

type HistoryAPIMock struct {
	mock.Mock
}

func (m *HistoryAPIMock) FetchPage(ctx context.Context, conversationID int64, kind models.ConversationKind, cursorID int64, direction engine.Direction, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, kind, cursorID, direction, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *HistoryAPIMock) FetchContext(ctx context.Context, conversationID int64, kind models.ConversationKind, aroundID int64) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, kind, aroundID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type SendTransportMock struct {
	mock.Mock
}

func (m *SendTransportMock) Send(ctx context.Context, conversationID int64, kind models.ConversationKind, payload models.SendPayload, token string) (models.Message, error) {
	args := m.Called(ctx, conversationID, kind, payload, token)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type PushCommandsMock struct {
	mock.Mock
}

func (m *PushCommandsMock) SetOffset(conversationID int64, lastSeenID int64) error {
	args := m.Called(conversationID, lastSeenID)
	return args.Error(0)
}

func (m *PushCommandsMock) MarkSeen(messageID int64, recipientID int64) error {
	args := m.Called(messageID, recipientID)
	return args.Error(0)
}

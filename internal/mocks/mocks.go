package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"rooms-service/internal/models"
	"rooms-service/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, room, authorID, authorName, body string) (models.Message, error) {
	args := m.Called(ctx, room, authorID, authorName, body)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListByRoom(ctx context.Context, room string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, room, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, id string) (models.Message, error) {
	args := m.Called(ctx, id)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateBody(ctx context.Context, id, authorID, body string) error {
	args := m.Called(ctx, id, authorID, body)
	return args.Error(0)
}

func (m *MessageRepositoryMock) Delete(ctx context.Context, id, authorID string) error {
	args := m.Called(ctx, id, authorID)
	return args.Error(0)
}

type PresenceRepositoryMock struct {
	mock.Mock
}

func (m *PresenceRepositoryMock) Heartbeat(ctx context.Context, entry models.PresenceEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *PresenceRepositoryMock) Leave(ctx context.Context, room, userID, sessionID string) error {
	args := m.Called(ctx, room, userID, sessionID)
	return args.Error(0)
}

func (m *PresenceRepositoryMock) ListOnline(ctx context.Context, room string, now time.Time) ([]models.OnlineUser, error) {
	args := m.Called(ctx, room, now)
	var users []models.OnlineUser
	if val := args.Get(0); val != nil {
		users = val.([]models.OnlineUser)
	}
	return users, args.Error(1)
}

type TypingRepositoryMock struct {
	mock.Mock
}

func (m *TypingRepositoryMock) Ping(ctx context.Context, entry models.TypingEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *TypingRepositoryMock) Stop(ctx context.Context, room, userID string) error {
	args := m.Called(ctx, room, userID)
	return args.Error(0)
}

func (m *TypingRepositoryMock) ListTyping(ctx context.Context, room string, now time.Time) ([]models.TypingUser, error) {
	args := m.Called(ctx, room, now)
	var users []models.TypingUser
	if val := args.Get(0); val != nil {
		users = val.([]models.TypingUser)
	}
	return users, args.Error(1)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.PresenceRepository = (*PresenceRepositoryMock)(nil)
var _ repositories.TypingRepository = (*TypingRepositoryMock)(nil)

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rooms-service/internal/identity"
	"rooms-service/internal/mocks"
	"rooms-service/internal/models"
	"rooms-service/internal/repositories"
	"rooms-service/internal/ws"
)

func identityMiddleware(id identity.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func setupMessageRouter(handler *MessageHandler, caller *identity.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if caller != nil {
		r.Use(identityMiddleware(*caller))
	}
	r.GET("/rooms/:room/messages", handler.List)
	r.POST("/rooms/:room/messages", handler.Send)
	r.PATCH("/messages/:message_id", handler.Edit)
	r.DELETE("/messages/:message_id", handler.Remove)
	return r
}

var alice = identity.Identity{Subject: "user-1", Name: "Alice"}

func TestListMessagesSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, nil)

	messageRepo.On("ListByRoom", mock.Anything, "general", repositories.DefaultListLimit).
		Return([]models.Message{{ID: "m1", Room: "general", Body: "hi"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/general/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp["messages"], 1)
	messageRepo.AssertExpectations(t)
}

func TestListMessagesBlankRoomFallsBackToGeneral(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, nil)

	messageRepo.On("ListByRoom", mock.Anything, "general", repositories.DefaultListLimit).
		Return([]models.Message{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/%20%20/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestListMessagesCustomLimit(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, nil)

	messageRepo.On("ListByRoom", mock.Anything, "dev", 10).Return([]models.Message{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/dev/messages?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestListMessagesInvalidLimit(t *testing.T) {
	handler := NewMessageHandler(new(mocks.MessageRepositoryMock), ws.NewHub(), nil)
	router := setupMessageRouter(handler, nil)

	req := httptest.NewRequest(http.MethodGet, "/rooms/dev/messages?limit=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	messageRepo.On("Create", mock.Anything, "general", "user-1", "Alice", "hello").
		Return(models.Message{ID: "m1", Room: "general", AuthorID: "user-1", AuthorName: "Alice", Body: "hello"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/general/messages", bytes.NewBufferString(`{"body":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestSendMessageTrimsBody(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	messageRepo.On("Create", mock.Anything, "general", "user-1", "Alice", "hello").
		Return(models.Message{ID: "m1", Body: "hello"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/general/messages", bytes.NewBufferString(`{"body":"  hello  "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestSendMessageEmptyBodyIsSilentNoop(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	req := httptest.NewRequest(http.MethodPost, "/rooms/general/messages", bytes.NewBufferString(`{"body":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	messageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageUnauthenticated(t *testing.T) {
	handler := NewMessageHandler(new(mocks.MessageRepositoryMock), ws.NewHub(), nil)
	router := setupMessageRouter(handler, nil)

	req := httptest.NewRequest(http.MethodPost, "/rooms/general/messages", bytes.NewBufferString(`{"body":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendMessageUsesDisplayNameFallback(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	caller := identity.Identity{Subject: "user-2", Email: "bob@example.com"}
	router := setupMessageRouter(handler, &caller)

	messageRepo.On("Create", mock.Anything, "general", "user-2", "bob@example.com", "hi").
		Return(models.Message{ID: "m2"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/general/messages", bytes.NewBufferString(`{"body":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestEditMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	messageRepo.On("Get", mock.Anything, "m1").
		Return(models.Message{ID: "m1", Room: "general", AuthorID: "user-1", Body: "original"}, nil).Once()
	messageRepo.On("UpdateBody", mock.Anything, "m1", "user-1", "edited").Return(nil).Once()
	messageRepo.On("Get", mock.Anything, "m1").
		Return(models.Message{ID: "m1", Room: "general", AuthorID: "user-1", Body: "edited"}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/messages/m1", bytes.NewBufferString(`{"body":"edited"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var msg models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	assert.Equal(t, "edited", msg.Body)
	messageRepo.AssertExpectations(t)
}

func TestEditMessageEmptyBodyRejected(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	messageRepo.On("Get", mock.Anything, "m1").
		Return(models.Message{ID: "m1", Room: "general", AuthorID: "user-1", Body: "original"}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/messages/m1", bytes.NewBufferString(`{"body":"  "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertNotCalled(t, "UpdateBody", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEditMessageNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	messageRepo.On("Get", mock.Anything, "m9").Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodPatch, "/messages/m9", bytes.NewBufferString(`{"body":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertNotCalled(t, "UpdateBody", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEditMissingMessageWithEmptyBodyIsNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	messageRepo.On("Get", mock.Anything, "m9").Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	// A missing message wins over an empty body.
	req := httptest.NewRequest(http.MethodPatch, "/messages/m9", bytes.NewBufferString(`{"body":"  "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestEditForeignMessageForbidden(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	messageRepo.On("Get", mock.Anything, "m1").
		Return(models.Message{ID: "m1", Room: "general", AuthorID: "user-2"}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/messages/m1", bytes.NewBufferString(`{"body":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "UpdateBody", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEditMessageDeletedUnderneathIsNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	messageRepo.On("Get", mock.Anything, "m1").
		Return(models.Message{ID: "m1", Room: "general", AuthorID: "user-1", Body: "original"}, nil).Once()
	messageRepo.On("UpdateBody", mock.Anything, "m1", "user-1", "x").
		Return(repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodPatch, "/messages/m1", bytes.NewBufferString(`{"body":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestRemoveMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	messageRepo.On("Get", mock.Anything, "m1").
		Return(models.Message{ID: "m1", Room: "general", AuthorID: "user-1"}, nil).Once()
	messageRepo.On("Delete", mock.Anything, "m1", "user-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/m1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestRemoveMissingMessageIsSilentNoop(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	messageRepo.On("Get", mock.Anything, "m9").Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/m9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	messageRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveForeignMessageForbidden(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messageRepo, ws.NewHub(), nil)
	router := setupMessageRouter(handler, &alice)

	messageRepo.On("Get", mock.Anything, "m1").
		Return(models.Message{ID: "m1", Room: "general", AuthorID: "user-2"}, nil).Twice()
	messageRepo.On("Delete", mock.Anything, "m1", "user-1").Return(repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/m1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestRemoveMessageUnauthenticated(t *testing.T) {
	handler := NewMessageHandler(new(mocks.MessageRepositoryMock), ws.NewHub(), nil)
	router := setupMessageRouter(handler, nil)

	req := httptest.NewRequest(http.MethodDelete, "/messages/m1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

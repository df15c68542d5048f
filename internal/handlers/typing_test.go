package handlers

import (
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
)

func setupTypingRouter(handler *TypingHandler, caller *identity.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if caller != nil {
		r.Use(identityMiddleware(*caller))
	}
	r.POST("/rooms/:room/typing", handler.Ping)
	r.POST("/rooms/:room/typing/stop", handler.Stop)
	r.GET("/rooms/:room/typing", handler.ListTyping)
	return r
}

func TestTypingPingSuccess(t *testing.T) {
	typingRepo := new(mocks.TypingRepositoryMock)
	refresher := new(mocks.RefresherMock)
	handler := NewTypingHandler(typingRepo, refresher)
	router := setupTypingRouter(handler, &alice)

	typingRepo.On("Ping", mock.Anything, mock.MatchedBy(func(entry models.TypingEntry) bool {
		return entry.Room == "general" && entry.UserID == "user-1" &&
			entry.DisplayName == "Alice" && entry.LastTypedMs > 0
	})).Return(nil).Once()
	refresher.On("Refresh", mock.Anything, "general").Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/general/typing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	typingRepo.AssertExpectations(t)
	refresher.AssertExpectations(t)
}

func TestTypingPingUnauthenticated(t *testing.T) {
	handler := NewTypingHandler(new(mocks.TypingRepositoryMock), new(mocks.RefresherMock))
	router := setupTypingRouter(handler, nil)

	req := httptest.NewRequest(http.MethodPost, "/rooms/general/typing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTypingStopSuccess(t *testing.T) {
	typingRepo := new(mocks.TypingRepositoryMock)
	refresher := new(mocks.RefresherMock)
	handler := NewTypingHandler(typingRepo, refresher)
	router := setupTypingRouter(handler, &alice)

	typingRepo.On("Stop", mock.Anything, "general", "user-1").Return(nil).Once()
	refresher.On("Refresh", mock.Anything, "general").Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/general/typing/stop", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	typingRepo.AssertExpectations(t)
}

func TestTypingStopUnauthenticatedIsSilent(t *testing.T) {
	typingRepo := new(mocks.TypingRepositoryMock)
	handler := NewTypingHandler(typingRepo, new(mocks.RefresherMock))
	router := setupTypingRouter(handler, nil)

	req := httptest.NewRequest(http.MethodPost, "/rooms/general/typing/stop", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	typingRepo.AssertNotCalled(t, "Stop", mock.Anything, mock.Anything, mock.Anything)
}

func TestListTypingSuccess(t *testing.T) {
	typingRepo := new(mocks.TypingRepositoryMock)
	handler := NewTypingHandler(typingRepo, new(mocks.RefresherMock))
	router := setupTypingRouter(handler, nil)

	typingRepo.On("ListTyping", mock.Anything, "general", mock.Anything).
		Return([]models.TypingUser{{UserID: "user-1", DisplayName: "Alice"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/general/typing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]models.TypingUser
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp["typing"], 1)
	typingRepo.AssertExpectations(t)
}

func TestListTypingStoreError(t *testing.T) {
	typingRepo := new(mocks.TypingRepositoryMock)
	handler := NewTypingHandler(typingRepo, new(mocks.RefresherMock))
	router := setupTypingRouter(handler, nil)

	typingRepo.On("ListTyping", mock.Anything, "general", mock.Anything).
		Return(([]models.TypingUser)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/general/typing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	typingRepo.AssertExpectations(t)
}

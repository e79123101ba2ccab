package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adnanfazil/ChatApp/internal/db"
	"github.com/adnanfazil/ChatApp/internal/model"
)

type stubChatService struct {
	statuses     map[model.Identity]model.PresenceStatus
	participants []model.Identity
	messages     *db.PaginatedResult[model.Message]
	insertedID   string
	lastIDs      []model.Identity
	lastPage     int64
	err          error
}

func (s *stubChatService) GetOnlineStatuses(ctx context.Context, ids []model.Identity) (map[model.Identity]model.PresenceStatus, error) {
	s.lastIDs = ids
	return s.statuses, s.err
}

func (s *stubChatService) GetParticipants(ctx context.Context, conversationID string) ([]model.Identity, error) {
	return s.participants, s.err
}

func (s *stubChatService) GetRoomMessages(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error) {
	s.lastPage = page
	return s.messages, s.err
}

func (s *stubChatService) PostMessage(ctx context.Context, msg *model.Message) (string, error) {
	return s.insertedID, s.err
}

func setupRouter(stub *stubChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewChatHandler(stub)

	router := gin.New()
	router.GET("/api/users/online-status", h.GetOnlineStatus)
	router.GET("/api/chats/:conversationId/participants", h.GetParticipants)
	router.GET("/api/chats/:conversationId/messages", h.GetRoomMessages)
	router.POST("/api/messages", h.PostMessage)
	return router
}

func TestGetOnlineStatus(t *testing.T) {
	stub := &stubChatService{
		statuses: map[model.Identity]model.PresenceStatus{
			"alice": {IsOnline: true, LastSeen: time.Now()},
			"bob":   {IsOnline: false, LastSeen: time.Now().Add(-time.Hour)},
		},
	}
	router := setupRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/online-status?ids=alice,bob,%20", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []model.Identity{"alice", "bob"}, stub.lastIDs)

	var body struct {
		Statuses map[string]model.PresenceStatus `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Statuses["alice"].IsOnline)
	assert.False(t, body.Statuses["bob"].IsOnline)
}

func TestGetOnlineStatusRequiresIDs(t *testing.T) {
	router := setupRouter(&stubChatService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/online-status", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOnlineStatusServiceError(t *testing.T) {
	router := setupRouter(&stubChatService{err: errors.New("store down")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/online-status?ids=alice", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetParticipants(t *testing.T) {
	stub := &stubChatService{participants: []model.Identity{"alice", "bob"}}
	router := setupRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/chats/conv-1/participants", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Participants []string `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"alice", "bob"}, body.Participants)
}

func TestGetRoomMessagesValidatesPage(t *testing.T) {
	stub := &stubChatService{messages: &db.PaginatedResult[model.Message]{Page: 2}}
	router := setupRouter(stub)

	for _, page := range []string{"0", "-1", "abc"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/chats/conv-1/messages?page="+page, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "page=%s", page)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/chats/conv-1/messages?page=2", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), stub.lastPage)
}

func TestPostMessage(t *testing.T) {
	stub := &stubChatService{insertedID: "msg-1"}
	router := setupRouter(stub)

	payload := `{"senderId":"alice","type":"text","body":"hello"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		MessageID string `json:"messageId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "msg-1", body.MessageID)
}

func TestPostMessageRejectsBadJSON(t *testing.T) {
	router := setupRouter(&stubChatService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

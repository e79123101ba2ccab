package service

import (
	"context"

	"github.com/adnanfazil/ChatApp/internal/db"
	"github.com/adnanfazil/ChatApp/internal/model"
	"github.com/adnanfazil/ChatApp/internal/repo"
)

// ChatService is the REST-facing read/write surface over the durable store.
type ChatService interface {
	GetOnlineStatuses(ctx context.Context, ids []model.Identity) (map[model.Identity]model.PresenceStatus, error)
	GetParticipants(ctx context.Context, conversationID string) ([]model.Identity, error)
	GetRoomMessages(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error)
	PostMessage(ctx context.Context, msg *model.Message) (string, error)
}

type chatService struct {
	users    repo.UserRepository
	convs    repo.ConversationRepository
	messages repo.MessageRepository
}

func NewChatService(users repo.UserRepository, convs repo.ConversationRepository, messages repo.MessageRepository) ChatService {
	return &chatService{
		users:    users,
		convs:    convs,
		messages: messages,
	}
}

func (s *chatService) GetOnlineStatuses(ctx context.Context, ids []model.Identity) (map[model.Identity]model.PresenceStatus, error) {
	ids = Filter(ids, func(id model.Identity) bool { return !id.IsZero() })
	return s.users.BatchGetPresence(ctx, ids)
}

func (s *chatService) GetParticipants(ctx context.Context, conversationID string) ([]model.Identity, error) {
	return s.convs.FindParticipants(ctx, conversationID)
}

func (s *chatService) GetRoomMessages(ctx context.Context, conversationID string, page int64) (*db.PaginatedResult[model.Message], error) {
	return s.messages.FilterMessage(ctx, conversationID, page)
}

func (s *chatService) PostMessage(ctx context.Context, msg *model.Message) (string, error) {
	return s.messages.InsertMessage(ctx, msg)
}

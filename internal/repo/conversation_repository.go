package repo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/adnanfazil/ChatApp/internal/db"
	"github.com/adnanfazil/ChatApp/internal/model"
)

type conversationRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

// ConversationRepository resolves conversation membership. The contact set of
// an identity is derived, never stored: everyone sharing at least one active
// conversation with them.
type ConversationRepository interface {
	FindConversationsContaining(ctx context.Context, id model.Identity) ([]model.Conversation, error)
	FindParticipants(ctx context.Context, conversationID string) ([]model.Identity, error)
	ContactsOf(ctx context.Context, id model.Identity) ([]model.Identity, error)
}

func NewConversationRepository(con *mongo.Database, repo *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		con:       con,
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *conversationRepository) FindConversationsContaining(ctx context.Context, id model.Identity) ([]model.Conversation, error) {
	if id.IsZero() {
		return nil, ErrInvalidIdentity
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	// Matching a scalar against participant_ids is mongo's array-contains.
	filter := db.NewFilter().
		Eq("participant_ids", id.String()).
		Eq("is_active", true).
		Build()

	conversations, err := r.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		r.logger.Error("failed to query conversations",
			zap.String("user_id", id.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find conversations: %w", err)
	}

	r.logger.Debug("conversations retrieved",
		zap.String("user_id", id.String()),
		zap.Int("count", len(conversations)),
	)
	return conversations, nil
}

func (r *conversationRepository) FindParticipants(ctx context.Context, conversationID string) ([]model.Identity, error) {
	if conversationID == "" {
		return nil, ErrInvalidChannelID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	conversation, err := r.mongoRepo.FindByID(ctx, conversationID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			r.logger.Debug("conversation not found", zap.String("conversation_id", conversationID))
			return nil, nil
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch conversation: %w", err)
	}

	return conversation.ParticipantIdentities(), nil
}

func (r *conversationRepository) ContactsOf(ctx context.Context, id model.Identity) ([]model.Identity, error) {
	conversations, err := r.FindConversationsContaining(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[model.Identity]struct{})
	contacts := make([]model.Identity, 0)
	for i := range conversations {
		for _, participant := range conversations[i].ParticipantIdentities() {
			if participant.Equal(id) {
				continue
			}
			if _, dup := seen[participant]; dup {
				continue
			}
			seen[participant] = struct{}{}
			contacts = append(contacts, participant)
		}
	}

	return contacts, nil
}

package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/adnanfazil/ChatApp/internal/db"
	"github.com/adnanfazil/ChatApp/internal/model"
)

// UserRepository is the durable user/presence store. Presence writes are
// idempotent field overwrites; last_seen always advances.
type UserRepository interface {
	GetUser(ctx context.Context, id model.Identity) (*model.User, error)
	UpdatePresence(ctx context.Context, id model.Identity, online bool, connID, deviceInfo, ipAddress string) error
	TouchPresence(ctx context.Context, id model.Identity) error
	BatchGetPresence(ctx context.Context, ids []model.Identity) (map[model.Identity]model.PresenceStatus, error)
	SweepStalePresence(ctx context.Context, olderThan time.Duration) (int64, error)
}

type userRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

func NewUserRepository(con *mongo.Database, repo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		con:       con,
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *userRepository) GetUser(ctx context.Context, id model.Identity) (*model.User, error) {
	if id.IsZero() {
		return nil, ErrInvalidIdentity
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("user_id", id.String()).Build()
	user, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		r.logger.Error("failed to fetch user", zap.String("user_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return user, nil
}

func (r *userRepository) UpdatePresence(ctx context.Context, id model.Identity, online bool, connID, deviceInfo, ipAddress string) error {
	if id.IsZero() {
		return ErrInvalidIdentity
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	update := map[string]interface{}{
		"is_online": online,
		"last_seen": time.Now(),
	}
	if online {
		update["socket_id"] = connID
		if deviceInfo != "" {
			update["device_info"] = deviceInfo
		}
		if ipAddress != "" {
			update["last_login_ip"] = ipAddress
		}
	} else {
		update["socket_id"] = ""
	}

	filter := db.NewFilter().Eq("user_id", id.String()).Build()
	if _, err := r.mongoRepo.Update(ctx, filter, update); err != nil {
		r.logger.Error("failed to update presence",
			zap.String("user_id", id.String()),
			zap.Bool("online", online),
			zap.Error(err),
		)
		return fmt.Errorf("update presence: %w", err)
	}

	r.logger.Debug("presence updated",
		zap.String("user_id", id.String()),
		zap.Bool("online", online),
	)
	return nil
}

// TouchPresence advances last_seen without changing the online flag. Called
// on pong frames so long-lived quiet connections survive the stale sweep.
func (r *userRepository) TouchPresence(ctx context.Context, id model.Identity) error {
	if id.IsZero() {
		return ErrInvalidIdentity
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("user_id", id.String()).Build()
	update := map[string]interface{}{"last_seen": time.Now()}
	if _, err := r.mongoRepo.Update(ctx, filter, update); err != nil {
		return fmt.Errorf("touch presence: %w", err)
	}
	return nil
}

func (r *userRepository) BatchGetPresence(ctx context.Context, ids []model.Identity) (map[model.Identity]model.PresenceStatus, error) {
	statuses := make(map[model.Identity]model.PresenceStatus, len(ids))
	if len(ids) == 0 {
		return statuses, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().In("user_id", model.IdentityStrings(ids)).Build()
	users, err := r.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		r.logger.Error("failed to batch read presence", zap.Int("requested", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("batch get presence: %w", err)
	}

	for i := range users {
		statuses[users[i].Identity()] = model.PresenceStatus{
			IsOnline: users[i].IsOnline,
			LastSeen: users[i].LastSeen,
		}
	}
	return statuses, nil
}

// SweepStalePresence force-marks users offline whose last liveness signal is
// older than the threshold. Repairs state left behind by crashed clients;
// already-offline and fresh records are untouched, so the sweep is idempotent.
func (r *userRepository) SweepStalePresence(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	cutoff := time.Now().Add(-olderThan)
	filter := db.NewFilter().
		Eq("is_online", true).
		Lt("last_seen", cutoff).
		Build()
	update := map[string]interface{}{
		"is_online": false,
		"socket_id": "",
	}

	result, err := r.mongoRepo.UpdateMany(ctx, filter, update)
	if err != nil {
		r.logger.Error("stale presence sweep failed", zap.Error(err))
		return 0, fmt.Errorf("sweep stale presence: %w", err)
	}

	if result.ModifiedCount > 0 {
		r.logger.Info("swept stale presence records", zap.Int64("count", result.ModifiedCount))
	}
	return result.ModifiedCount, nil
}

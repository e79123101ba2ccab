package configuration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/adnanfazil/ChatApp/internal/auth"
	"github.com/adnanfazil/ChatApp/internal/db"
	"github.com/adnanfazil/ChatApp/internal/handler"
	"github.com/adnanfazil/ChatApp/internal/hub"
	"github.com/adnanfazil/ChatApp/internal/model"
	"github.com/adnanfazil/ChatApp/internal/repo"
	"github.com/adnanfazil/ChatApp/internal/service"
)

const defaultConfigPath = "config.json"

type Container struct {
	ChatHandler handler.ChatHandler
	Hub         *hub.Hub
	Config      Config
	Logger      *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
}

func BuildContainer() (*Container, error) {
	// .env carries secrets in development; absent in production deployments
	_ = godotenv.Load()

	configPath := os.Getenv("CHATAPP_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	secret := os.Getenv(config.Auth.JwtSecretEnv)
	if secret == "" {
		return nil, errors.New("jwt signing secret is not set")
	}

	con, err := db.OpenConnection(config.ChatDatabase.Uri, config.ChatDatabase.Database)
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	userMongoRepo := db.NewRepository[model.User](con, config.ChatDatabase.UsersCollection)
	conversationMongoRepo := db.NewRepository[model.Conversation](con, config.ChatDatabase.ConversationsCollection)
	messageMongoRepo := db.NewRepository[model.Message](con, config.ChatDatabase.MessagesCollection)

	userRepo := repo.NewUserRepository(con, userMongoRepo, logger)
	conversationRepo := repo.NewConversationRepository(con, conversationMongoRepo, logger)
	messageRepo := repo.NewMessageRepository(con, messageMongoRepo, logger)

	verifier := auth.NewJWTVerifier(secret)

	chatHub := hub.NewHub(userRepo, conversationRepo, verifier, logger, hub.Options{
		PresenceStaleThreshold: config.Presence.StaleThreshold(),
		PresenceSweepInterval:  config.Presence.SweepInterval(),
		TypingQuietWindow:      config.Typing.QuietWindow(),
		AllowedOrigins:         config.Server.AllowedOrigins,
	})

	chatService := service.NewChatService(userRepo, conversationRepo, messageRepo)
	chatHandler := handler.NewChatHandler(chatService)

	return &Container{
		ChatHandler: chatHandler,
		Hub:         chatHub,
		Config:      *config,
		Logger:      logger,
		mongoClient: con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}

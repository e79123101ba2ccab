package configuration

import (
	"encoding/json"
	"os"
	"time"
)

type MongoConfig struct {
	Uri                     string `json:"uri"`
	Database                string `json:"database"`
	UsersCollection         string `json:"usersCollection"`
	ConversationsCollection string `json:"conversationsCollection"`
	MessagesCollection      string `json:"messagesCollection"`
	SocketRoute             string `json:"socketRoute"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type AuthConfig struct {
	// name of the env var holding the HS256 signing secret
	JwtSecretEnv string `json:"jwt_secret_env"`
}

type PresenceConfig struct {
	StaleThresholdSeconds int `json:"stale_threshold_seconds"`
	SweepIntervalSeconds  int `json:"sweep_interval_seconds"`
}

type TypingConfig struct {
	QuietWindowMillis int `json:"quiet_window_millis"`
}

type Config struct {
	ChatDatabase MongoConfig    `json:"mongo"`
	Server       ServerConfig   `json:"server"`
	Auth         AuthConfig     `json:"auth"`
	Presence     PresenceConfig `json:"presence"`
	Typing       TypingConfig   `json:"typing"`
}

func LoadConfig(config_path string) (*Config, error) {
	file, err := os.ReadFile(config_path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.ChatDatabase.UsersCollection == "" {
		c.ChatDatabase.UsersCollection = "users"
	}
	if c.ChatDatabase.ConversationsCollection == "" {
		c.ChatDatabase.ConversationsCollection = "conversations"
	}
	if c.ChatDatabase.MessagesCollection == "" {
		c.ChatDatabase.MessagesCollection = "messages"
	}
	if c.ChatDatabase.SocketRoute == "" {
		c.ChatDatabase.SocketRoute = "ws"
	}
	if c.Auth.JwtSecretEnv == "" {
		c.Auth.JwtSecretEnv = "CHATAPP_JWT_SECRET"
	}
	if c.Presence.StaleThresholdSeconds == 0 {
		c.Presence.StaleThresholdSeconds = 300
	}
	if c.Presence.SweepIntervalSeconds == 0 {
		c.Presence.SweepIntervalSeconds = 300
	}
	if c.Typing.QuietWindowMillis == 0 {
		c.Typing.QuietWindowMillis = 3000
	}
}

func (p PresenceConfig) StaleThreshold() time.Duration {
	return time.Duration(p.StaleThresholdSeconds) * time.Second
}

func (p PresenceConfig) SweepInterval() time.Duration {
	return time.Duration(p.SweepIntervalSeconds) * time.Second
}

func (t TypingConfig) QuietWindow() time.Duration {
	return time.Duration(t.QuietWindowMillis) * time.Millisecond
}

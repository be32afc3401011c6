package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/niranjanisuresh/YouConnect/pkg/log"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Chat      ChatConfig
	Bot       BotConfig
	Auth      AuthConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

// ChatConfig controls history replay and retention.
// MaxMessagesPerRoom of 0 means unbounded.
type ChatConfig struct {
	HistoryLimit       int           `mapstructure:"history_limit"`
	MaxMessagesPerRoom int           `mapstructure:"max_messages_per_room"`
	RoomIdleTTL        time.Duration `mapstructure:"room_idle_ttl"`
	SweepInterval      time.Duration `mapstructure:"sweep_interval"`
}

// BotConfig controls the scripted responder. Delays and the reply
// probability are explicit so tests can force determinism.
type BotConfig struct {
	Name             string        `mapstructure:"name"`
	Avatar           string        `mapstructure:"avatar"`
	MinReplyDelay    time.Duration `mapstructure:"min_reply_delay"`
	MaxReplyDelay    time.Duration `mapstructure:"max_reply_delay"`
	ReplyProbability float64       `mapstructure:"reply_probability"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, rely on defaults and env vars.
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("chat.history_limit", 50)
	v.SetDefault("chat.max_messages_per_room", 500)
	v.SetDefault("chat.room_idle_ttl", "1h")
	v.SetDefault("chat.sweep_interval", "5m")
	v.SetDefault("bot.name", "StudyBot")
	v.SetDefault("bot.avatar", "https://ui-avatars.com/api/?name=StudyBot&background=3EA6FF&color=fff")
	v.SetDefault("bot.min_reply_delay", "1s")
	v.SetDefault("bot.max_reply_delay", "3s")
	v.SetDefault("bot.reply_probability", 0.8)
	v.SetDefault("auth.jwt_secret", "fallback-secret")
	v.SetDefault("auth.issuer", "youconnect")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "chat-core")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Chat.RoomIdleTTL = parseDuration(v, "chat.room_idle_ttl", time.Hour)
	cfg.Chat.SweepInterval = parseDuration(v, "chat.sweep_interval", 5*time.Minute)
	cfg.Bot.MinReplyDelay = parseDuration(v, "bot.min_reply_delay", time.Second)
	cfg.Bot.MaxReplyDelay = parseDuration(v, "bot.max_reply_delay", 3*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}

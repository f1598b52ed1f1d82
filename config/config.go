package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret       string `mapstructure:"secret"`
	ExpireHours  int    `mapstructure:"expire_hours"`
	RefreshHours int    `mapstructure:"refresh_hours"`
}

type RateLimitConfig struct {
	SendPerMinute   int `mapstructure:"send_per_minute"`
	TypingPerMinute int `mapstructure:"typing_per_minute"`
	UploadPerMinute int `mapstructure:"upload_per_minute"`
}

type KafkaConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Brokers  []string       `mapstructure:"brokers"`
	Topic    string         `mapstructure:"topic"`
	Producer ProducerConfig `mapstructure:"producer"`
}

type ProducerConfig struct {
	MaxRetries     int `mapstructure:"max_retries"`
	RetryBackoffMs int `mapstructure:"retry_backoff_ms"`
}

// ChatConfig holds tunables for the messaging core.
type ChatConfig struct {
	PageSize          int `mapstructure:"page_size"`
	MaxContentLength  int `mapstructure:"max_content_length"`
	TypingTTLSeconds  int `mapstructure:"typing_ttl_seconds"`
	DeleteWindowMin   int `mapstructure:"delete_window_minutes"`
	MaxPinnedPerGroup int `mapstructure:"max_pinned_per_group"`
}

// StorageConfig holds settings for voice attachment storage.
type StorageConfig struct {
	VoiceDir         string `mapstructure:"voice_dir"`
	BaseURL          string `mapstructure:"base_url"`
	MaxVoiceSizeByte int64  `mapstructure:"max_voice_size_bytes"`

	// Upload processing is run on a bounded worker pool so parallel WAV
	// decoding cannot starve the rest of the server.
	UploadWorkers   int `mapstructure:"upload_workers"`
	UploadQueueSize int `mapstructure:"upload_queue_size"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// TypingTTL returns the typing indicator TTL as a duration.
func (c *ChatConfig) TypingTTL() time.Duration {
	return time.Duration(c.TypingTTLSeconds) * time.Second
}

// DeleteWindow returns the window in which non-admin senders may delete
// their own messages.
func (c *ChatConfig) DeleteWindow() time.Duration {
	return time.Duration(c.DeleteWindowMin) * time.Minute
}

// LoadConfig reads the configuration file at path and unmarshals it.
// Environment variables prefixed with BUGRICER_ override file values
// (e.g. BUGRICER_POSTGRES_HOST overrides postgres.host).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetEnvPrefix("BUGRICER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("postgres.max_idle_conns", 10)
	v.SetDefault("postgres.max_open_conns", 100)

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("jwt.refresh_hours", 72)

	v.SetDefault("ratelimit.send_per_minute", 60)
	v.SetDefault("ratelimit.typing_per_minute", 120)
	v.SetDefault("ratelimit.upload_per_minute", 10)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "bugricer.chat.activity")
	v.SetDefault("kafka.producer.max_retries", 3)
	v.SetDefault("kafka.producer.retry_backoff_ms", 250)

	v.SetDefault("chat.page_size", 20)
	v.SetDefault("chat.max_content_length", 2000)
	v.SetDefault("chat.typing_ttl_seconds", 8)
	v.SetDefault("chat.delete_window_minutes", 60)
	v.SetDefault("chat.max_pinned_per_group", 50)

	v.SetDefault("storage.voice_dir", "./data/voice")
	v.SetDefault("storage.base_url", "/uploads/voice")
	v.SetDefault("storage.max_voice_size_bytes", int64(5*1024*1024))
	v.SetDefault("storage.upload_workers", 4)
	v.SetDefault("storage.upload_queue_size", 64)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

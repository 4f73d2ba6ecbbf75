package config

import (
	"fmt"
	"time"
)

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	SocketURL string        `mapstructure:"socket_url" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"min=0"`
}

type SocketConfig struct {
	PingInterval         time.Duration `mapstructure:"ping_interval" validate:"required"`
	PongTimeout          time.Duration `mapstructure:"pong_timeout" validate:"required"`
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay" validate:"required"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts" validate:"min=1"`
	TokenPollInterval    time.Duration `mapstructure:"token_poll_interval" validate:"required"`
}

type SessionConfig struct {
	TokenFile string `mapstructure:"token_file" validate:"required"`
	Timezone  string `mapstructure:"timezone"`
}

type SyncConfig struct {
	Workflows       []string `mapstructure:"workflows" validate:"min=1"`
	ClosedWorkflows []string `mapstructure:"closed_workflows"`
	LightLimit      int      `mapstructure:"light_limit" validate:"min=1"`
	TablePerPage    int      `mapstructure:"table_per_page" validate:"min=1"`
	GroupTitle      string   `mapstructure:"group_title"`
}

type PreferenceConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	SourceAll  bool   `mapstructure:"source_all"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type ControlConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	SendLimit      int           `mapstructure:"send_limit" validate:"min=0"`
	SendWindow     time.Duration `mapstructure:"send_window"`
}

func (c *ControlConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	sharedConfig "leadsync/internal/shared/config"
)

type Config struct {
	API        sharedConfig.APIConfig        `mapstructure:"api"`
	Socket     sharedConfig.SocketConfig     `mapstructure:"socket"`
	Session    sharedConfig.SessionConfig    `mapstructure:"session"`
	Sync       sharedConfig.SyncConfig       `mapstructure:"sync"`
	Preference sharedConfig.PreferenceConfig `mapstructure:"preference"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	Control    sharedConfig.ControlConfig    `mapstructure:"control"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex

	validate = validator.New()
)

// Load reads configs/config.yaml (or the file at path when given), overlays
// LEADSYNC_* environment variables and validates the result. A missing
// config file is not an error when defaults and env cover every required key.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("LEADSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate.Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.timeout", "30s")

	// Socket defaults
	v.SetDefault("socket.ping_interval", "30s")
	v.SetDefault("socket.pong_timeout", "10s")
	v.SetDefault("socket.reconnect_delay", "10s")
	v.SetDefault("socket.max_reconnect_attempts", 3)
	v.SetDefault("socket.token_poll_interval", "5s")

	// Session defaults
	v.SetDefault("session.token_file", "./data/token")
	v.SetDefault("session.timezone", "Europe/Chisinau")

	// Sync defaults
	v.SetDefault("sync.workflows", []string{
		"Interesat", "Apel de intrare", "De prelucrat", "Luat în lucru",
		"Ofertă trimisă", "Aprobat cu client", "Contract semnat",
		"Plată primită", "Contract încheiat", "Realizat cu succes",
		"Închis și nerealizat",
	})
	v.SetDefault("sync.closed_workflows", []string{"Realizat cu succes", "Închis și nerealizat"})
	v.SetDefault("sync.light_limit", 50)
	v.SetDefault("sync.table_per_page", 50)

	// Preference defaults
	v.SetDefault("preference.path", "./data/preferences.db")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "leadsync:bus")

	// Control surface defaults
	v.SetDefault("control.enabled", true)
	v.SetDefault("control.host", "127.0.0.1")
	v.SetDefault("control.port", 8090)
	v.SetDefault("control.mode", "release")
	v.SetDefault("control.allowed_origins", []string{})
	v.SetDefault("control.send_limit", 30)
	v.SetDefault("control.send_window", "1m")
}

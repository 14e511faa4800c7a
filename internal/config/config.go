package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cron     CronConfig     `mapstructure:"cron"`
	Push     PushConfig     `mapstructure:"push"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// CronConfig holds the capability token the scheduled trigger must present.
type CronConfig struct {
	Secret string `mapstructure:"secret"`
}

type PushConfig struct {
	Subscriber      string `mapstructure:"subscriber"`
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	TTL             int    `mapstructure:"ttl"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type DispatchConfig struct {
	Workers       int `mapstructure:"workers"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type SecurityConfig struct {
	// EncryptionKey, when set, enables at-rest encryption of subscription
	// auth secrets.
	EncryptionKey string `mapstructure:"encryption_key"`
}

// envOverrides carries the secrets that must never live in the config file.
type envOverrides struct {
	CronSecret      string `envconfig:"CRON_SECRET"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	SMTPPassword    string `envconfig:"SMTP_PASSWORD"`
	EncryptionKey   string `envconfig:"ENCRYPTION_KEY"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process("plantona", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if env.CronSecret != "" {
		config.Cron.Secret = env.CronSecret
	}
	if env.VAPIDPrivateKey != "" {
		config.Push.VAPIDPrivateKey = env.VAPIDPrivateKey
	}
	if env.SMTPPassword != "" {
		config.SMTP.Password = env.SMTPPassword
	}
	if env.EncryptionKey != "" {
		config.Security.EncryptionKey = env.EncryptionKey
	}

	if config.Dispatch.Workers <= 0 {
		config.Dispatch.Workers = 8
	}
	if config.Dispatch.WindowMinutes <= 0 {
		config.Dispatch.WindowMinutes = 1
	}

	return &config, nil
}

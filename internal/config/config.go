package config

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Exam     ExamConfig     `mapstructure:"exam"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Client   ClientConfig   `mapstructure:"client"`
}

type ServerConfig struct {
	Port                   int             `mapstructure:"port" validate:"min=1,max=65535"`
	Mode                   string          `mapstructure:"mode" validate:"oneof=debug release test"`
	ShutdownTimeoutSeconds int             `mapstructure:"shutdown_timeout_seconds" validate:"min=1"`
	CORS                   CORSConfig      `mapstructure:"cors"`
	RateLimit              RateLimitConfig `mapstructure:"rate_limit"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig limits requests per client IP. Requests of 0 disables it.
type RateLimitConfig struct {
	Requests      int `mapstructure:"requests" validate:"min=0"`
	WindowSeconds int `mapstructure:"window_seconds" validate:"min=1"`
}

type DatabaseConfig struct {
	Driver          string            `mapstructure:"driver" validate:"oneof=mysql sqlite"`
	Path            string            `mapstructure:"path" validate:"required_if=Driver sqlite,dbpath"`
	Host            string            `mapstructure:"host" validate:"required_if=Driver mysql"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database" validate:"required_if=Driver mysql"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type ExamConfig struct {
	// ResubmissionPolicy decides how repeated answers to one question are handled.
	ResubmissionPolicy string `mapstructure:"resubmission_policy" validate:"oneof=count_all last_wins reject"`
	HistoryLimit       int    `mapstructure:"history_limit" validate:"min=1"`
	QuestionLimit      int    `mapstructure:"question_limit" validate:"min=1"`
}

type SeedConfig struct {
	// QuestionsFile is optional; the bundled sample bank is used when empty.
	QuestionsFile string `mapstructure:"questions_file" validate:"omitempty,file"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	ServiceName string `mapstructure:"service_name" validate:"required"`
}

type ClientConfig struct {
	BaseURL         string `mapstructure:"base_url" validate:"url"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"min=1"`
	RetryAttempts   uint   `mapstructure:"retry_attempts"`
	UserID          string `mapstructure:"user_id"`
	DefaultLevel    string `mapstructure:"default_level" validate:"omitempty,oneof=5級 4級 3級 準2級 準2級プラス 2級"`
	ReportDirectory string `mapstructure:"report_directory"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/eiken")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit.requests", 100)
	v.SetDefault("server.rate_limit.window_seconds", 60)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "eiken.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "eiken")
	v.SetDefault("database.username", "eiken")
	v.SetDefault("exam.resubmission_policy", "count_all")
	v.SetDefault("exam.history_limit", 10)
	v.SetDefault("exam.question_limit", 10)
	v.SetDefault("seed.questions_file", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "eiken-server")
	v.SetDefault("client.base_url", "http://localhost:8000")
	v.SetDefault("client.timeout_seconds", 10)
	v.SetDefault("client.retry_attempts", 3)
	v.SetDefault("client.default_level", "5級")
	v.SetDefault("client.report_directory", "reports")

	// Secrets and deployment-specific endpoints come from the environment
	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("tracing.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT"); err != nil {
		return nil, fmt.Errorf("failed to bind OTEL_EXPORTER_OTLP_ENDPOINT environment variable: %w", err)
	}
	if err := v.BindEnv("client.base_url", "EIKEN_API_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind EIKEN_API_URL environment variable: %w", err)
	}
	if err := v.BindEnv("client.user_id", "EIKEN_USER_ID"); err != nil {
		return nil, fmt.Errorf("failed to bind EIKEN_USER_ID environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}

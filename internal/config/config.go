package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	BaseUrl1         string            `env:"BASE_URL_1"`
	BaseUrl2         string            `env:"BASE_URL_2"`
	PathsFile        string            `env:"PATHS_FILE"`
	Timeout          time.Duration     `env:"TIMEOUT" envDefault:"20s"`
	JoinGrace        time.Duration     `env:"JOIN_GRACE" envDefault:"5s"`
	OutDir           string            `env:"OUT_DIR" envDefault:"."`
	QueryParams      []string          `env:"QUERY_PARAMS" envSeparator:"&"`
	Headers          map[string]string `env:"HEADERS"`
	LogLevel         string            `env:"LOG_LEVEL" envDefault:"INFO"`
	SlackWebhook     string            `env:"SLACK_WEBHOOK"`
	PushGatewayUrl   string            `env:"PUSHGATEWAY_URL"`
	ArtifactS3Bucket string            `env:"ARTIFACT_S3_BUCKET"`
	ArtifactS3Prefix string            `env:"ARTIFACT_S3_PREFIX"`
}

func NewConfig() (*Config, error) {
	cfg := Config{}

	err := env.Parse(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) Validate() error {
	if err := validateBaseUrl("base URL 1", cfg.BaseUrl1); err != nil {
		return err
	}

	if err := validateBaseUrl("base URL 2", cfg.BaseUrl2); err != nil {
		return err
	}

	if cfg.PathsFile == "" {
		return errors.New("a paths file is required")
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}

	if cfg.JoinGrace < 0 {
		return fmt.Errorf("join grace must not be negative, got %s", cfg.JoinGrace)
	}

	if cfg.HasSlackSettings() {
		if _, err := url.ParseRequestURI(cfg.SlackWebhook); err != nil {
			return fmt.Errorf("slack webhook is not a valid URL: %w", err)
		}
	}

	return nil
}

func (cfg *Config) HasSlackSettings() bool {
	return cfg.SlackWebhook != ""
}

func (cfg *Config) HasPushGateway() bool {
	return cfg.PushGatewayUrl != ""
}

func (cfg *Config) HasArtifactBucket() bool {
	return cfg.ArtifactS3Bucket != ""
}

func validateBaseUrl(name string, baseUrl string) error {
	if baseUrl == "" {
		return fmt.Errorf("%s is required", name)
	}

	u, err := url.Parse(baseUrl)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be absolute, got %q", name, baseUrl)
	}

	return nil
}

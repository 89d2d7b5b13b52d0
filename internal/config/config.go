package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Environment string `yaml:"environment"`
	Database    struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		Enabled  bool   `yaml:"enabled"`
	} `yaml:"redis"`
	PushService struct {
		URL string `yaml:"url"`
	} `yaml:"push_service"`
	SMSService struct {
		URL string `yaml:"url"`
	} `yaml:"sms_service"`
	Reward struct {
		StandardWeight     float64 `yaml:"standard_weight"`
		BonusWeight        float64 `yaml:"bonus_weight"`
		BreakthroughWeight float64 `yaml:"breakthrough_weight"`
	} `yaml:"reward"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// LoadConfig reads configuration from the specified YAML file. Connection
// strings and secrets can be overridden with DATABASE_URL / REDIS_ADDR /
// REDIS_PASSWORD so deployments don't bake them into the file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		config.Redis.Password = v
	}

	if config.Reward.StandardWeight == 0 && config.Reward.BonusWeight == 0 && config.Reward.BreakthroughWeight == 0 {
		config.Reward.StandardWeight = 0.80
		config.Reward.BonusWeight = 0.15
		config.Reward.BreakthroughWeight = 0.05
	}

	return config, nil
}

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		BaseURL      string `yaml:"base_url"` // link prefix used in outbound mail
	} `yaml:"email"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Entitlement struct {
		FreeTierMaxApplications int `yaml:"free_tier_max_applications"`
		GracePeriodDays         int `yaml:"grace_period_days"`
		PlanCacheTTLSeconds     int `yaml:"plan_cache_ttl_seconds"`
	} `yaml:"entitlement"`

	Dispatch struct {
		QueueSize     int `yaml:"queue_size"`
		Workers       int `yaml:"workers"`
		MaxEmailTries int `yaml:"max_email_tries"`
	} `yaml:"dispatch"`
}

const (
	DefaultFreeTierMaxApplications = 2
	DefaultGracePeriodDays         = 3
	DefaultPlanCacheTTLSeconds     = 300
	DefaultDispatchQueueSize       = 256
	DefaultDispatchWorkers         = 2
	DefaultMaxEmailTries           = 3
)

var AppConfig *Config

// LoadConfig reads config.yaml, then lets environment variables
// override the critical values. A .env file is loaded first if present.
func LoadConfig() {
	var cfg Config

	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if f, err := os.Open(configPath); err == nil {
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			f.Close()
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}
		f.Close()
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Port, _ = strconv.Atoi(v)
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	cfg.Server.Port = IntOr(cfg.Server.Port, 4000)
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	cfg.JWT.TTL = IntOr(cfg.JWT.TTL, 60)
	cfg.Entitlement.FreeTierMaxApplications = IntOr(
		cfg.Entitlement.FreeTierMaxApplications, DefaultFreeTierMaxApplications)
	cfg.Entitlement.GracePeriodDays = IntOr(
		cfg.Entitlement.GracePeriodDays, DefaultGracePeriodDays)
	cfg.Entitlement.PlanCacheTTLSeconds = IntOr(
		cfg.Entitlement.PlanCacheTTLSeconds, DefaultPlanCacheTTLSeconds)
	cfg.Dispatch.QueueSize = IntOr(cfg.Dispatch.QueueSize, DefaultDispatchQueueSize)
	cfg.Dispatch.Workers = IntOr(cfg.Dispatch.Workers, DefaultDispatchWorkers)
	cfg.Dispatch.MaxEmailTries = IntOr(cfg.Dispatch.MaxEmailTries, DefaultMaxEmailTries)
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

// IntOr resolves a configured int with a caller-supplied fallback.
func IntOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")

type Config struct {
	DatabaseURL        string        `yaml:"database_url"`
	Port               string        `yaml:"port"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	MaxUploadBytes     int64         `yaml:"max_upload_bytes"`
	LogLevel           string        `yaml:"log_level"`
	LogFormat          string        `yaml:"log_format"`
	Admin              AdminConfig   `yaml:"admin"`
	Storage            StorageConfig `yaml:"storage"`
}

// AdminConfig holds the credentials of the account seeded at startup when no
// admin exists yet.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type StorageConfig struct {
	Driver          string `yaml:"driver"` // "s3" or "minio"
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Folder          string `yaml:"folder"`
	PublicURL       string `yaml:"public_url"` // printf template, %s is the object key
}

// HasCredentials reports whether object storage can be reached at all.
func (s StorageConfig) HasCredentials() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != "" && s.Bucket != ""
}

func Default() *Config {
	return &Config{
		Port:               "10000",
		RateLimitPerMinute: 100,
		MaxUploadBytes:     50 << 20,
		LogLevel:           "info",
		LogFormat:          "json",
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin123",
		},
		Storage: StorageConfig{
			Driver: "s3",
			Region: "auto",
			Folder: "cloud-vault",
		},
	}
}

// LoadDotEnv loads .env into the process environment if the file exists.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, and finally the environment read through getenv.
func Load(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path := getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	str("DATABASE_URL", &cfg.DatabaseURL)
	str("PORT", &cfg.Port)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("ADMIN_USERNAME", &cfg.Admin.Username)
	str("ADMIN_PASSWORD", &cfg.Admin.Password)
	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("S3_ENDPOINT", &cfg.Storage.Endpoint)
	str("S3_REGION", &cfg.Storage.Region)
	str("S3_ACCESS_KEY_ID", &cfg.Storage.AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &cfg.Storage.SecretAccessKey)
	str("S3_BUCKET", &cfg.Storage.Bucket)
	str("STORAGE_FOLDER", &cfg.Storage.Folder)
	str("PUBLIC_URL", &cfg.Storage.PublicURL)

	if v := getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %q", v)
		}
		cfg.RateLimitPerMinute = n
	}
	if v := getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", v)
		}
		cfg.MaxUploadBytes = n
	}
	return nil
}

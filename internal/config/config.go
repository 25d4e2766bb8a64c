package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const (
	ProviderFal    = "fal"
	ProviderOpenAI = "openai"

	DriverFal   = "fal"
	DriverMinio = "minio"
	DriverS3    = "s3"

	DatabaseMySQL    = "mysql"
	DatabasePostgres = "postgres"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
		MaxBodyBytes   int64         `yaml:"maxBodyBytes"`
		AllowedOrigins []string      `yaml:"allowedOrigins"`
		LogLevel       string        `yaml:"logLevel"`

		// TrustProxy honours X-Forwarded-For / X-Real-IP; only enable behind a proxy that overwrites them
		TrustProxy bool `yaml:"trustProxy"`

		// PublicURL is the externally visible base URL, used for feed links
		PublicURL string `yaml:"publicURL"`

		// PublicHistory exposes the renovation list and RSS feed without auth
		PublicHistory bool `yaml:"publicHistory"`

		RateLimit struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Generator struct {
		Provider string `yaml:"provider"`
	} `yaml:"generator"`

	Fal struct {
		// Key is only ever read from FAL_KEY
		Key          string        `yaml:"-"`
		QueueURL     string        `yaml:"queueURL"`
		StorageURL   string        `yaml:"storageURL"`
		Model        string        `yaml:"model"`
		PollInterval time.Duration `yaml:"pollInterval"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"fal"`

	OpenAI struct {
		APIKey string `yaml:"-"`
		Model  string `yaml:"model"`
		Size   string `yaml:"size"`
	} `yaml:"openai"`

	Storage struct {
		Driver        string        `yaml:"driver"`
		PresignExpiry time.Duration `yaml:"presignExpiry"`
	} `yaml:"storage"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	S3 struct {
		Bucket string `yaml:"bucket"`
		Region string `yaml:"region"`
	} `yaml:"s3"`

	Database struct {
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 3 * time.Minute
	c.Server.MaxBodyBytes = 20 << 20
	c.Server.AllowedOrigins = []string{"*"}
	c.Server.LogLevel = "info"
	c.Server.RateLimit.Capacity = 10
	c.Server.RateLimit.RefillRate = 1

	c.Generator.Provider = ProviderFal

	c.Fal.QueueURL = "https://queue.fal.run"
	c.Fal.StorageURL = "https://rest.alpha.fal.ai"
	c.Fal.Model = "fal-ai/bytedance/seedream/v4.5/edit"
	c.Fal.PollInterval = time.Second
	c.Fal.Timeout = 150 * time.Second

	c.OpenAI.Model = "dall-e-2"
	c.OpenAI.Size = "1024x1024"

	c.Storage.Driver = DriverFal
	c.Storage.PresignExpiry = 24 * time.Hour

	c.Minio.BucketName = "renovations"
	c.Minio.Region = "us-east-1"

	c.Database.SSLMode = "disable"
	return &c
}

// Load baca .env (kalau ada), config.yaml (kalau ada), lalu override dari environment
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, err := strconv.Atoi(getenv(key)); err == nil {
			*dst = v
		}
	}

	flag := func(key string, dst *bool) {
		if v, err := strconv.ParseBool(getenv(key)); err == nil {
			*dst = v
		}
	}

	num("PORT", &c.Server.Port)
	str("LOG_LEVEL", &c.Server.LogLevel)
	flag("TRUST_PROXY", &c.Server.TrustProxy)
	str("PUBLIC_URL", &c.Server.PublicURL)
	flag("PUBLIC_HISTORY", &c.Server.PublicHistory)
	str("GENERATOR_PROVIDER", &c.Generator.Provider)

	// credentials never come from the yaml file
	c.Fal.Key = getenv("FAL_KEY")
	c.OpenAI.APIKey = getenv("OPENAI_API_KEY")
	str("FAL_MODEL", &c.Fal.Model)
	str("OPENAI_IMAGE_MODEL", &c.OpenAI.Model)

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("MINIO_ENDPOINT", &c.Minio.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Minio.AccessKey)
	str("MINIO_SECRET_KEY", &c.Minio.SecretKey)
	str("MINIO_BUCKET", &c.Minio.BucketName)
	str("S3_BUCKET", &c.S3.Bucket)
	str("S3_REGION", &c.S3.Region)

	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_HOST", &c.Database.Host)
	num("DATABASE_PORT", &c.Database.Port)
	str("DATABASE_USER", &c.Database.User)
	str("DATABASE_PASSWORD", &c.Database.Password)
	str("DATABASE_NAME", &c.Database.Name)
}

// Validate checks enum-like fields. Missing credentials are not an error here;
// they are reported per request.
func (c *Config) Validate() error {
	c.Generator.Provider = strings.ToLower(c.Generator.Provider)
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	c.Database.Driver = strings.ToLower(c.Database.Driver)

	if !lo.Contains([]string{ProviderFal, ProviderOpenAI}, c.Generator.Provider) {
		return fmt.Errorf("invalid generator.provider: %q (allowed: fal, openai)", c.Generator.Provider)
	}
	if !lo.Contains([]string{DriverFal, DriverMinio, DriverS3}, c.Storage.Driver) {
		return fmt.Errorf("invalid storage.driver: %q (allowed: fal, minio, s3)", c.Storage.Driver)
	}
	if !lo.Contains([]string{"", DatabaseMySQL, DatabasePostgres}, c.Database.Driver) {
		return fmt.Errorf("invalid database.driver: %q (allowed: mysql, postgres)", c.Database.Driver)
	}
	if c.Storage.Driver == DriverMinio && c.Minio.Endpoint == "" {
		return fmt.Errorf("minio.endpoint is required when storage.driver is minio")
	}
	if c.Storage.Driver == DriverS3 && c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage.driver is s3")
	}
	if c.Fal.PollInterval <= 0 {
		return fmt.Errorf("fal.pollInterval must be positive")
	}
	return nil
}

// BaseURL returns PublicURL without a trailing slash, or the local address when unset
func (c *Config) BaseURL() string {
	if c.Server.PublicURL != "" {
		return strings.TrimRight(c.Server.PublicURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Server.Port)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		lo.Ternary(c.Database.Port == 0, 3306, c.Database.Port),
		c.Database.Name,
	)
}

// PostgresDSN returns the lib/pq connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		lo.Ternary(c.Database.Port == 0, 5432, c.Database.Port),
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

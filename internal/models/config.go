package models

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const DefaultFallbackImage = "https://images.unsplash.com/photo-1565193566173-7a0ee3dbe261?w=600&q=80"

type Config struct {
	ServerAddr  string `yaml:"server_addr"`
	DatabaseURL string `yaml:"database_url"`
	KafkaBroker string `yaml:"kafka_broker"`
	KafkaTopic  string `yaml:"kafka_topic"`
	JWTSecret   string `yaml:"jwt_secret"`
	LogFormat   string `yaml:"log_format"` // json, console

	Minio  MinioConfig  `yaml:"minio"`
	Images ImageConfig  `yaml:"images"`
	Drafts DraftsConfig `yaml:"drafts"`
}

type MinioConfig struct {
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Bucket        string `yaml:"bucket"`
	UseSSL        bool   `yaml:"use_ssl"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type ImageConfig struct {
	MaxWidth       int     `yaml:"max_width"`
	Quality        float64 `yaml:"quality"`
	ThumbnailSize  int     `yaml:"thumbnail_size"`
	FallbackURL    string  `yaml:"fallback_url"`
	MaxUploadBytes int64   `yaml:"max_upload_bytes"`
}

type DraftsConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

func LoadConfig(path string) (*Config, error) {
	const op = "models.LoadConfig"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// applyEnv lets secrets live outside the YAML file.
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"SERVER_ADDR":      &c.ServerAddr,
		"DATABASE_URL":     &c.DatabaseURL,
		"KAFKA_BROKER":     &c.KafkaBroker,
		"JWT_SECRET":       &c.JWTSecret,
		"MINIO_ENDPOINT":   &c.Minio.Endpoint,
		"MINIO_ACCESS_KEY": &c.Minio.AccessKey,
		"MINIO_SECRET_KEY": &c.Minio.SecretKey,
		"MINIO_BUCKET":     &c.Minio.Bucket,
	}
	for key, dst := range overrides {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Minio.UseSSL = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = "product-images"
	}
	if c.Minio.Bucket == "" {
		c.Minio.Bucket = "productos"
	}
	if c.Images.MaxWidth <= 0 {
		c.Images.MaxWidth = 1200
	}
	if c.Images.Quality <= 0 || c.Images.Quality > 1 {
		c.Images.Quality = 0.82
	}
	if c.Images.ThumbnailSize <= 0 {
		c.Images.ThumbnailSize = 400
	}
	if c.Images.FallbackURL == "" {
		c.Images.FallbackURL = DefaultFallbackImage
	}
	if c.Images.MaxUploadBytes <= 0 {
		c.Images.MaxUploadBytes = 32 << 20
	}
	if c.Drafts.TTL <= 0 {
		c.Drafts.TTL = 2 * time.Hour
	}
	if c.Drafts.SweepInterval <= 0 {
		c.Drafts.SweepInterval = 5 * time.Minute
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	S3     S3Config
	App    AppConfig
	Log    LogConfig
	Update UpdateConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type S3Config struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	Prefix          string
}

type AppConfig struct {
	MaxUploadSize  int64
	MaxPixels      int64
	AllowedFormats []string
}

type LogConfig struct {
	Level  string
	Format string
}

type UpdateConfig struct {
	Repo string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "localhost")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("APP_MAX_UPLOAD_SIZE", 10*1024*1024) // 10MB
	v.SetDefault("APP_MAX_PIXELS", 50_000_000)
	v.SetDefault("APP_ALLOWED_FORMATS", []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp", ".gif"})
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("S3_ENABLED", false)
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_BUCKET_NAME", "xray-exports")
	v.SetDefault("S3_PREFIX", "enhanced")
	v.SetDefault("UPDATE_REPO", "Fepozopo/xray")
}

// Load reads an optional .env file into the process environment and then
// resolves every key from the environment, falling back to defaults.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()
	return FromViper(viper.New())
}

// FromViper builds a Config from v after registering defaults and
// environment binding on it.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetString("SERVER_PORT"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		S3: S3Config{
			Enabled:         v.GetBool("S3_ENABLED"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			BucketName:      v.GetString("S3_BUCKET_NAME"),
			Region:          v.GetString("S3_REGION"),
			Prefix:          strings.Trim(v.GetString("S3_PREFIX"), "/"),
		},
		App: AppConfig{
			MaxUploadSize:  v.GetInt64("APP_MAX_UPLOAD_SIZE"),
			MaxPixels:      v.GetInt64("APP_MAX_PIXELS"),
			AllowedFormats: normalizeFormats(v.GetStringSlice("APP_ALLOWED_FORMATS")),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Update: UpdateConfig{
			Repo: v.GetString("UPDATE_REPO"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// normalizeFormats accepts both ".png,.jpg" env strings and slices, with or
// without the leading dot.
func normalizeFormats(in []string) []string {
	var out []string
	for _, item := range in {
		for _, f := range strings.Split(item, ",") {
			f = strings.ToLower(strings.TrimSpace(f))
			if f == "" {
				continue
			}
			if !strings.HasPrefix(f, ".") {
				f = "." + f
			}
			out = append(out, f)
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT must not be empty"))
	}
	if c.App.MaxUploadSize <= 0 {
		errs = append(errs, fmt.Errorf("APP_MAX_UPLOAD_SIZE must be positive, got %d", c.App.MaxUploadSize))
	}
	if c.App.MaxPixels <= 0 {
		errs = append(errs, fmt.Errorf("APP_MAX_PIXELS must be positive, got %d", c.App.MaxPixels))
	}
	if c.S3.Enabled && c.S3.BucketName == "" {
		errs = append(errs, errors.New("S3_BUCKET_NAME is required when S3_ENABLED is set"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address of the dashboard.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// FormatAllowed reports whether ext (".png") is in the upload allow-list.
func (a AppConfig) FormatAllowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, f := range a.AllowedFormats {
		if f == ext {
			return true
		}
	}
	return false
}

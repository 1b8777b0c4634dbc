package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	S3     S3Config
	App    AppConfig
}

type ServerConfig struct {
	Host string
	Port string
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
	// PublicBaseURL overrides the generated object URL prefix, e.g. a CDN
	// front. Empty means endpoint + bucket.
	PublicBaseURL string
}

type AppConfig struct {
	Env             string
	MaxUploadSize   int64
	RequireCategory bool
	StorageFolder   string
	AllowedOrigins  []string
}

// Load reads configuration from environment variables with defaults. It is
// called once at startup; the rest of the service never re-reads the
// environment.
func Load() (*Config, error) {
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("S3_ENDPOINT", "localhost:9000")
	viper.SetDefault("S3_ACCESS_KEY_ID", "minioadmin")
	viper.SetDefault("S3_SECRET_ACCESS_KEY", "minioadmin")
	viper.SetDefault("S3_USE_SSL", false)
	viper.SetDefault("S3_BUCKET_NAME", "images")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_PUBLIC_BASE_URL", "")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_MAX_UPLOAD_SIZE", 10*1024*1024) // 10MB
	viper.SetDefault("APP_REQUIRE_CATEGORY", true)
	viper.SetDefault("APP_STORAGE_FOLDER", "my_images")
	viper.SetDefault("APP_ALLOWED_ORIGINS", "*")

	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("SERVER_HOST"),
			Port: viper.GetString("SERVER_PORT"),
		},
		S3: S3Config{
			Endpoint:        viper.GetString("S3_ENDPOINT"),
			AccessKeyID:     viper.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("S3_SECRET_ACCESS_KEY"),
			UseSSL:          viper.GetBool("S3_USE_SSL"),
			BucketName:      viper.GetString("S3_BUCKET_NAME"),
			Region:          viper.GetString("S3_REGION"),
			PublicBaseURL:   viper.GetString("S3_PUBLIC_BASE_URL"),
		},
		App: AppConfig{
			Env:             viper.GetString("APP_ENV"),
			MaxUploadSize:   viper.GetInt64("APP_MAX_UPLOAD_SIZE"),
			RequireCategory: viper.GetBool("APP_REQUIRE_CATEGORY"),
			StorageFolder:   viper.GetString("APP_STORAGE_FOLDER"),
			AllowedOrigins:  splitOrigins(viper.GetString("APP_ALLOWED_ORIGINS")),
		},
	}

	return cfg, nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

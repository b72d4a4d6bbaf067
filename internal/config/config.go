package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Gemini    GeminiConfig
	R2        R2Config
	Render    RenderConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	TranscribePerHour int
	ArtworkPerHour    int
	RenderPerHour     int
	UploadPerHour     int
}

type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

// RenderConfig holds the fixed parameters of the compositing pipeline.
type RenderConfig struct {
	FrameRate  int
	Width      int
	Height     int
	ScratchDir string
	MediaDir   string
	FFmpegBin  string
	FFprobeBin string
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("GEMINI_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("JWT_SECRET")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = viper.BindEnv("gemini.base_url", "GEMINI_BASE_URL")
	_ = viper.BindEnv("gemini.model", "GEMINI_MODEL")
	_ = viper.BindEnv("gemini.image_model", "GEMINI_IMAGE_MODEL")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("render.frame_rate", "RENDER_FRAME_RATE")
	_ = viper.BindEnv("render.width", "RENDER_WIDTH")
	_ = viper.BindEnv("render.height", "RENDER_HEIGHT")
	_ = viper.BindEnv("render.scratch_dir", "RENDER_SCRATCH_DIR")
	_ = viper.BindEnv("render.media_dir", "RENDER_MEDIA_DIR")
	_ = viper.BindEnv("render.ffmpeg_bin", "FFMPEG_BIN")
	_ = viper.BindEnv("render.ffprobe_bin", "FFPROBE_BIN")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.transcribe_per_hour", 30)
	viper.SetDefault("ratelimit.artwork_per_hour", 30)
	viper.SetDefault("ratelimit.render_per_hour", 10)
	viper.SetDefault("ratelimit.upload_per_hour", 50)

	// Gemini defaults
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.image_model", "gemini-2.0-flash-preview-image-generation")

	// Render defaults
	viper.SetDefault("render.frame_rate", 24)
	viper.SetDefault("render.width", 1280)
	viper.SetDefault("render.height", 720)
	viper.SetDefault("render.scratch_dir", "./data/scratch")
	viper.SetDefault("render.media_dir", "./data/media")
	viper.SetDefault("render.ffmpeg_bin", "ffmpeg")
	viper.SetDefault("render.ffprobe_bin", "ffprobe")

	// Gateway defaults
	viper.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			TranscribePerHour: viper.GetInt("ratelimit.transcribe_per_hour"),
			ArtworkPerHour:    viper.GetInt("ratelimit.artwork_per_hour"),
			RenderPerHour:     viper.GetInt("ratelimit.render_per_hour"),
			UploadPerHour:     viper.GetInt("ratelimit.upload_per_hour"),
		},
		Gemini: GeminiConfig{
			APIKey:     viper.GetString("gemini.api_key"),
			BaseURL:    viper.GetString("gemini.base_url"),
			Model:      viper.GetString("gemini.model"),
			ImageModel: viper.GetString("gemini.image_model"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Render: RenderConfig{
			FrameRate:  viper.GetInt("render.frame_rate"),
			Width:      viper.GetInt("render.width"),
			Height:     viper.GetInt("render.height"),
			ScratchDir: viper.GetString("render.scratch_dir"),
			MediaDir:   viper.GetString("render.media_dir"),
			FFmpegBin:  viper.GetString("render.ffmpeg_bin"),
			FFprobeBin: viper.GetString("render.ffprobe_bin"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}

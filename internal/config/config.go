package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database    DatabaseConfig
	Encoder     EncoderConfig
	Recognition RecognitionConfig
	Mail        MailConfig
	Web         WebConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type EncoderConfig struct {
	URL          string // face embedding service, defaults to http://localhost:8000
	MaxImageEdge int    // images are downscaled to this edge before upload (default 1024)
}

type RecognitionConfig struct {
	Threshold     float64 `yaml:"threshold"`
	Dimension     int     `yaml:"dimension"`
	IndexKeyWidth int     `yaml:"index_key_width"`
	Method        string  `yaml:"method"`
}

type MailConfig struct {
	ResendAPIKey string
	FromAddress  string // sender for OTP and welcome emails
}

type WebConfig struct {
	SessionSecret string
}

type defaults struct {
	Recognition RecognitionConfig `yaml:"recognition"`
}

// envStr reads an environment variable, falling back to a default when unset.
func envStr(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var d defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// Embedded file, so this can only be a build-time mistake.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Encoder: EncoderConfig{
			URL:          envStr("ENCODER_URL", "http://localhost:8000"),
			MaxImageEdge: envInt("ENCODER_MAX_IMAGE_EDGE", 1024),
		},
		Recognition: RecognitionConfig{
			Threshold:     envFloat("RECOGNITION_THRESHOLD", d.Recognition.Threshold),
			Dimension:     envInt("RECOGNITION_DIMENSION", d.Recognition.Dimension),
			IndexKeyWidth: envInt("RECOGNITION_INDEX_KEY_WIDTH", d.Recognition.IndexKeyWidth),
			Method:        d.Recognition.Method,
		},
		Mail: MailConfig{
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			FromAddress:  os.Getenv("MAIL_FROM_ADDRESS"),
		},
		Web: WebConfig{
			SessionSecret: os.Getenv("WEB_SESSION_SECRET"),
		},
	}
}

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration. It is built once at startup
// and handed to constructors by pointer.
type Config struct {
	Server          ServerConfig
	Store           StoreConfig
	AI              AIConfig
	Auth            AuthConfig
	Events          EventsConfig
	Log             LogConfig
	CredentialsFile string
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port            string
	PublicBaseURL   string
	ShutdownTimeout time.Duration
	// TrustProxy makes client addresses come from X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that overwrites them.
	TrustProxy bool
}

// StoreConfig holds the document store and blob storage settings
type StoreConfig struct {
	URI          string
	AccessKey    string
	User         string // empty keeps the credential embedded in URI
	Database     string
	BlobBackend  string // "gridfs" or "gcs"
	GridFSBucket string
	GCSBucket    string
	GCSCDNDomain string
}

// Configured is true iff both the endpoint and the access key are present.
func (s StoreConfig) Configured() bool {
	return s.URI != "" && s.AccessKey != ""
}

// AIConfig holds the inference client settings
type AIConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	MaxRetries      int
	RetryBaseDelay  time.Duration
}

// AuthConfig holds token settings
type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

// EventsConfig holds the MQTT publisher settings. An empty broker disables publishing.
type EventsConfig struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
}

// LogConfig holds logrus settings
type LogConfig struct {
	Level  string
	Format string
}

// Load resolves every setting through r.
func Load(r *Resolver) (*Config, error) {
	cfg := &Config{CredentialsFile: r.Path()}
	var err error

	cfg.Server.Port = orDefault(r.Lookup("PORT"), "8080")
	cfg.Server.PublicBaseURL = strings.TrimRight(r.Lookup("PUBLIC_BASE_URL"), "/")
	if cfg.Server.PublicBaseURL == "" {
		cfg.Server.PublicBaseURL = "http://localhost:" + cfg.Server.Port
	}
	if cfg.Server.ShutdownTimeout, err = duration(r, "SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.TrustProxy, err = boolean(r, "TRUST_PROXY_HEADERS"); err != nil {
		return nil, err
	}

	cfg.Store = StoreConfig{
		URI:          r.Lookup(KeyStoreURL),
		AccessKey:    r.Lookup(KeyStoreKey),
		User:         r.Lookup("MONGO_USER"),
		Database:     orDefault(r.Lookup("MONGO_DB"), "diagnostics"),
		BlobBackend:  strings.ToLower(orDefault(r.Lookup("BLOB_BACKEND"), "gridfs")),
		GridFSBucket: orDefault(r.Lookup("GRIDFS_BUCKET"), "manual_files"),
		GCSBucket:    r.Lookup("GCS_BUCKET"),
		GCSCDNDomain: r.Lookup("GCS_CDN_DOMAIN"),
	}
	switch cfg.Store.BlobBackend {
	case "gridfs":
	case "gcs":
		if cfg.Store.GCSBucket == "" {
			return nil, fmt.Errorf("BLOB_BACKEND=gcs requires GCS_BUCKET")
		}
	default:
		return nil, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.Store.BlobBackend)
	}

	cfg.AI.APIKey = r.AIKey()
	cfg.AI.Model = orDefault(r.Lookup("GEMINI_MODEL"), "gemini-2.5-pro")
	temp, err := strconv.ParseFloat(orDefault(r.Lookup("AI_TEMPERATURE"), "0.2"), 32)
	if err != nil {
		return nil, fmt.Errorf("invalid AI_TEMPERATURE: %w", err)
	}
	cfg.AI.Temperature = float32(temp)
	tokens, err := integer(r, "AI_MAX_OUTPUT_TOKENS", 2048)
	if err != nil {
		return nil, err
	}
	cfg.AI.MaxOutputTokens = int32(tokens)
	if cfg.AI.MaxRetries, err = integer(r, "AI_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.AI.RetryBaseDelay, err = duration(r, "AI_RETRY_BASE_DELAY", 2*time.Second); err != nil {
		return nil, err
	}

	cfg.Auth.JWTSecret = orDefault(r.Lookup("JWT_SECRET"), "default-secret-key-change-in-production")
	if cfg.Auth.TokenExpiry, err = duration(r, "JWT_EXPIRY", 24*time.Hour); err != nil {
		return nil, err
	}

	cfg.Events = EventsConfig{
		BrokerURL:   r.Lookup("MQTT_BROKER"),
		ClientID:    orDefault(r.Lookup("MQTT_CLIENT_ID"), "equipment-diagnostics"),
		TopicPrefix: strings.Trim(orDefault(r.Lookup("MQTT_TOPIC_PREFIX"), "diagnostics"), "/"),
	}

	cfg.Log = LogConfig{
		Level:  orDefault(r.Lookup("LOG_LEVEL"), "info"),
		Format: orDefault(r.Lookup("LOG_FORMAT"), "text"),
	}
	return cfg, nil
}

// NewLogger builds a logrus logger from the log settings.
func (c LogConfig) NewLogger() (*log.Logger, error) {
	logger := log.New()
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)
	switch strings.ToLower(c.Format) {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown LOG_FORMAT %q", c.Format)
	}
	return logger, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func duration(r *Resolver, key string, def time.Duration) (time.Duration, error) {
	v := r.Lookup(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func boolean(r *Resolver, key string) (bool, error) {
	v := r.Lookup(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func integer(r *Resolver, key string, def int) (int, error) {
	v := r.Lookup(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

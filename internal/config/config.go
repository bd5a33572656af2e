// Package config provides configuration loading and validation for the
// navigator service. Settings come from environment variables merged over an
// optional YAML file; environment variables always win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all service settings.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Scene persistence.
	StoreBackend string // "file" or "sqlite"
	StorePath    string

	// Playback timing. TotalDuration covers the camera ease and the step
	// narration; CardRevealDelay and TransitionExpiry are measured from
	// playback start and diff broadcast respectively.
	PlaybackTotalDuration time.Duration
	CardRevealDelay       time.Duration
	TransitionExpiry      time.Duration

	// Card configuration. Empty means the embedded default set.
	CardsFile string

	// Playback event publishing (feature-flagged).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Defaults for non-secret settings.
const (
	DefaultHTTPAddr        = ":8080"
	DefaultStoreBackend    = "file"
	DefaultStorePath       = "data/scenes.json"
	DefaultTotalDuration   = 4000 * time.Millisecond
	DefaultCardRevealDelay = 2000 * time.Millisecond
	DefaultExpiry          = 2000 * time.Millisecond
	DefaultKafkaTopic      = "scene-playbacks"
)

// Load reads configuration from environment variables and an optional YAML
// file, applying defaults where unset.
func Load(configFile string) (*Config, error) {
	k := koanf.New(".")
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	shutdownTimeout, err := durationSetting(k, "shutdown_timeout", "SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	totalDuration, err := durationSetting(k, "playback_total_duration", "PLAYBACK_TOTAL_DURATION", DefaultTotalDuration)
	if err != nil {
		return nil, err
	}
	cardDelay, err := durationSetting(k, "card_reveal_delay", "CARD_REVEAL_DELAY", DefaultCardRevealDelay)
	if err != nil {
		return nil, err
	}
	expiry, err := durationSetting(k, "transition_expiry", "TRANSITION_EXPIRY", DefaultExpiry)
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := durationSetting(k, "mapbox_timeout", "MAPBOX_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	mapboxToken := stringSetting(k, "mapbox_token", "MAPBOX_TOKEN", "")
	mapboxEnabled := mapboxToken != ""
	if v := boolSetting(k, "mapbox_enabled", "MAPBOX_ENABLED"); v != nil {
		mapboxEnabled = *v
	}

	kafkaEnabled := false
	if v := boolSetting(k, "kafka_enabled", "KAFKA_ENABLED"); v != nil {
		kafkaEnabled = *v
	}

	cfg := &Config{
		HTTPAddr:        stringSetting(k, "http_addr", "HTTP_ADDR", DefaultHTTPAddr),
		LogLevel:        stringSetting(k, "log_level", "LOG_LEVEL", "info"),
		LogFormat:       stringSetting(k, "log_format", "LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StoreBackend: strings.ToLower(stringSetting(k, "store_backend", "STORE_BACKEND", DefaultStoreBackend)),
		StorePath:    stringSetting(k, "store_path", "STORE_PATH", DefaultStorePath),

		PlaybackTotalDuration: totalDuration,
		CardRevealDelay:       cardDelay,
		TransitionExpiry:      expiry,

		CardsFile: stringSetting(k, "cards_file", "CARDS_FILE", ""),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: splitBrokers(stringSetting(k, "kafka_brokers", "KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   stringSetting(k, "kafka_topic", "KAFKA_TOPIC", DefaultKafkaTopic),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: intSetting(k, "mapbox_cache_size", "MAPBOX_CACHE_SIZE", 1000),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.StoreBackend != "file" && c.StoreBackend != "sqlite" {
		return fmt.Errorf("STORE_BACKEND must be file or sqlite, got %q", c.StoreBackend)
	}
	if c.StorePath == "" {
		return errors.New("STORE_PATH is required")
	}
	if c.PlaybackTotalDuration <= 0 {
		return errors.New("PLAYBACK_TOTAL_DURATION must be positive")
	}
	if c.CardRevealDelay < 0 || c.CardRevealDelay > c.PlaybackTotalDuration {
		return errors.New("CARD_REVEAL_DELAY must be within the playback duration")
	}
	if c.TransitionExpiry <= 0 {
		return errors.New("TRANSITION_EXPIRY must be positive")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is not set")
		}
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

// stringSetting resolves env over file over default.
func stringSetting(k *koanf.Koanf, key, env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	if k.Exists(key) {
		return k.String(key)
	}
	return def
}

func durationSetting(k *koanf.Koanf, key, env string, def time.Duration) (time.Duration, error) {
	raw := ""
	if v := os.Getenv(env); v != "" {
		raw = v
	} else if k.Exists(key) {
		raw = k.String(key)
	}
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", env, raw, err)
	}
	return d, nil
}

func intSetting(k *koanf.Koanf, key, env string, def int) int {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		return def
	}
	if k.Exists(key) {
		if n := k.Int(key); n > 0 {
			return n
		}
	}
	return def
}

// boolSetting returns nil when the setting is absent so callers can keep
// their own derived default.
func boolSetting(k *koanf.Koanf, key, env string) *bool {
	if v := os.Getenv(env); v != "" {
		b := strings.EqualFold(v, "true") || v == "1"
		return &b
	}
	if k.Exists(key) {
		b := k.Bool(key)
		return &b
	}
	return nil
}

func splitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/zalando/go-keyring"
)

// Package config provides configuration management for the Framer service

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "framer"

// ErrMissingAPIKey is returned by Validate when no API key could be found.
var ErrMissingAPIKey = errors.New("no Gemini API key configured (set FRAMER_API_KEY or GEMINI_API_KEY, or store one in the keyring)")

// Config struct to hold all configuration data
type Config struct {
	ListenAddr string `json:"listen_addr" envconfig:"LISTEN_ADDR"`
	APIKey     string `json:"-" envconfig:"API_KEY"`

	ImageModel string `json:"image_model" envconfig:"IMAGE_MODEL"`
	EditModel  string `json:"edit_model" envconfig:"EDIT_MODEL"`
	TextModel  string `json:"text_model" envconfig:"TEXT_MODEL"`

	DefaultAspectRatio string `json:"default_aspect_ratio" envconfig:"DEFAULT_ASPECT_RATIO"`
	DefaultFit         string `json:"default_fit" envconfig:"DEFAULT_FIT"`
	DefaultStyle       string `json:"default_style" envconfig:"DEFAULT_STYLE"`

	GenerationTimeout time.Duration `json:"generation_timeout" envconfig:"GENERATION_TIMEOUT"`
	EnhanceTimeout    time.Duration `json:"enhance_timeout" envconfig:"ENHANCE_TIMEOUT"`
	LoadingInterval   time.Duration `json:"loading_interval" envconfig:"LOADING_INTERVAL"`
	ResultTTL         time.Duration `json:"result_ttl" envconfig:"RESULT_TTL"`

	MaxUploadBytes    int64 `json:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	MaxConnections    int   `json:"max_connections" envconfig:"MAX_CONNECTIONS"`
	RequestsPerMinute int   `json:"requests_per_minute" envconfig:"REQUESTS_PER_MINUTE"`

	FaceFinderPath string `json:"facefinder_path" envconfig:"FACEFINDER_PATH"` // pigo cascade override; empty uses the embedded facefinder
	LogFile        string `json:"log_file" envconfig:"LOG_FILE"`
	UpdateCheck    bool   `json:"update_check" envconfig:"UPDATE_CHECK"`
	Debug          bool   `json:"debug" envconfig:"DEBUG"`
}

// Default returns a Config populated with the default values.
func Default() *Config {
	return &Config{
		ListenAddr:         DefaultListenAddr,
		ImageModel:         DefaultImageModel,
		EditModel:          DefaultEditModel,
		TextModel:          DefaultTextModel,
		DefaultAspectRatio: DefaultAspectRatio,
		DefaultFit:         DefaultFit,
		DefaultStyle:       "none",
		GenerationTimeout:  2 * time.Minute,
		EnhanceTimeout:     30 * time.Second,
		LoadingInterval:    3 * time.Second,
		ResultTTL:          30 * time.Minute,
		MaxUploadBytes:     DefaultMaxUploadBytes,
		MaxConnections:     DefaultMaxConnections,
		RequestsPerMinute:  DefaultRequestsPerMinute,
		UpdateCheck:        true,
	}
}

// Load reads the configuration in layers: defaults, the JSON config file,
// an optional .env file and finally FRAMER_* environment variables.
func Load() (*Config, error) {
	return LoadFrom(GetFilename())
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(filename string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFromFile(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = LoadAPIKey()
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)

	return cfg, nil
}

// Validate reports missing or out of range values.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.ImageModel == "" || c.EditModel == "" || c.TextModel == "" {
		return fmt.Errorf("image, edit and text models are required")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("generation timeout must be positive, got %v", c.GenerationTimeout)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("requests per minute must be positive, got %d", c.RequestsPerMinute)
	}
	return nil
}

// jsonDuration reads a duration written as a string ("90s", "2m") or as
// integer nanoseconds, and writes it back as a string.
type jsonDuration time.Duration

func (d jsonDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *jsonDuration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = jsonDuration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = jsonDuration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", data)
	}
	return nil
}

// configJSON shadows the duration fields of Config with jsonDuration.
type configJSON struct {
	*plainConfig
	GenerationTimeout *jsonDuration `json:"generation_timeout"`
	EnhanceTimeout    *jsonDuration `json:"enhance_timeout"`
	LoadingInterval   *jsonDuration `json:"loading_interval"`
	ResultTTL         *jsonDuration `json:"result_ttl"`
}

type plainConfig Config

func (c *Config) jsonView() configJSON {
	return configJSON{
		plainConfig:       (*plainConfig)(c),
		GenerationTimeout: (*jsonDuration)(&c.GenerationTimeout),
		EnhanceTimeout:    (*jsonDuration)(&c.EnhanceTimeout),
		LoadingInterval:   (*jsonDuration)(&c.LoadingInterval),
		ResultTTL:         (*jsonDuration)(&c.ResultTTL),
	}
}

// MarshalJSON writes durations as strings such as "2m0s".
func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.jsonView())
}

// UnmarshalJSON accepts durations as strings such as "2m" or as nanoseconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	view := c.jsonView()
	return json.Unmarshal(data, &view)
}

// GetFilename returns the path to the user's config file
func GetFilename() string {
	return filepath.Join(GetPath(), "config.json")
}

// GetPath returns the path to the user's config directory
func GetPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Error getting user home directory: %v", err)
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, "."+strings.ToLower(AppName))
}

// loadFromFile loads configuration from the specified file
func (c *Config) loadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, c)
}

// Save writes the configuration to filename. The API key is never written.
func (c *Config) Save(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config data: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// LoadAPIKey returns the API key stored in the OS keyring, or "" if none.
func LoadAPIKey() string {
	key, err := keyring.Get(KeyringService, KeyringUser)
	if err != nil {
		// Log only if it's not a "not found" error to avoid noise on first run
		if !errors.Is(err, keyring.ErrNotFound) {
			log.Printf("failed to retrieve API key from keyring: %v", err)
		}
		return ""
	}
	return key
}

// StoreAPIKey saves the API key in the OS keyring.
func StoreAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key is empty")
	}
	if err := keyring.Set(KeyringService, KeyringUser, key); err != nil {
		return fmt.Errorf("saving API key to keyring: %w", err)
	}
	return nil
}

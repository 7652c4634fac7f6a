package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Backend string

const (
	BackendMongo     Backend = "mongo"
	BackendFirestore Backend = "firestore"
	BackendMemory    Backend = "memory"
)

type StorageConfig struct {
	Backend  Backend `toml:"backend"`
	MongoURI string  `toml:"mongo_uri"`
	Database string  `toml:"database"` // empty = database named in the URI

	// DefaultCollection is created at startup when set.
	DefaultCollection string `toml:"default_collection"`

	GCPProjectID string `toml:"gcp_project"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "text"
}

type Config struct {
	Port      string        `toml:"port"`
	SecretKey string        `toml:"secret_key"` // empty = random key per process
	Log       LogConfig     `toml:"log"`
	Storage   StorageConfig `toml:"storage"`
}

func Default() Config {
	return Config{
		Port: "8080",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Backend: BackendMongo,
		},
	}
}

// Load is Read followed by Validate.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read builds the config from defaults, then the TOML file at path (if any),
// then a .env file in the working directory, then environment variables.
// The result is not validated so callers can apply flag overrides first.
func Read(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	// godotenv never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Port = getEnv("DOCSHELF_PORT", cfg.Port)
	cfg.SecretKey = getEnv("DOCSHELF_SECRET_KEY", cfg.SecretKey)
	cfg.Log.Level = getEnv("DOCSHELF_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("DOCSHELF_LOG_FORMAT", cfg.Log.Format)

	cfg.Storage.Backend = Backend(strings.ToLower(getEnv("DOCSHELF_STORAGE_BACKEND", string(cfg.Storage.Backend))))
	cfg.Storage.MongoURI = getEnv("MONGO_URI", cfg.Storage.MongoURI)
	cfg.Storage.Database = getEnv("MONGO_DATABASE", cfg.Storage.Database)
	cfg.Storage.DefaultCollection = getEnv("MONGO_COLLECTION_NAME", cfg.Storage.DefaultCollection)
	cfg.Storage.GCPProjectID = getEnv("DOCSHELF_GCP_PROJECT", cfg.Storage.GCPProjectID)
}

// Override applies command-line values; empty strings leave the field as is.
func (c *Config) Override(port, backend string) {
	if port != "" {
		c.Port = port
	}
	if backend != "" {
		c.Storage.Backend = Backend(strings.ToLower(backend))
	}
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port must be set")
	}

	switch c.Storage.Backend {
	case BackendMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("MONGO_URI must be set in the config file, .env file or environment")
		}
	case BackendFirestore:
		if c.Storage.GCPProjectID == "" {
			return errors.New("DOCSHELF_GCP_PROJECT must be set for the firestore backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

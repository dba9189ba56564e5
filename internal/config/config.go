package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Alexander-D-Karpov/blockfs/internal/domain"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelQuiet
)

const (
	BackendFile     = "file"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
	BackendSwift    = "swift"
)

type Config struct {
	Blocks     int `yaml:"blocks"`
	BlockSize  int `yaml:"block_size"`
	MaxEntries int `yaml:"max_entries"`
	MaxNameLen int `yaml:"max_name_len"`

	Containment string `yaml:"containment"`
	Listing     string `yaml:"listing"`

	Snapshot SnapshotConfig `yaml:"snapshot"`

	JournalPath string `yaml:"journal_path"`
	LogLevel    string `yaml:"log_level"`
}

type SnapshotConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Bucket      string `yaml:"bucket"`
	PostgresURL string `yaml:"postgres_url"`
	Name        string `yaml:"name"`
	EncryptKey  string `yaml:"encrypt_key"`

	SwiftAuthURL   string `yaml:"swift_auth_url"`
	SwiftUser      string `yaml:"swift_user"`
	SwiftKey       string `yaml:"swift_key"`
	SwiftContainer string `yaml:"swift_container"`
}

func Defaults() *Config {
	return &Config{
		Blocks:      domain.DefaultBlocks,
		BlockSize:   domain.DefaultBlockSize,
		MaxEntries:  domain.DefaultMaxEntries,
		MaxNameLen:  domain.DefaultMaxNameLen,
		Containment: string(domain.ContainmentPrefix),
		Listing:     string(domain.ListLegacy),
		Snapshot: SnapshotConfig{
			Backend: BackendFile,
			Path:    "myfs",
			Bucket:  "snapshots",
			Name:    "volume",

			SwiftContainer: "blockfs",
		},
		LogLevel: "warn",
	}
}

// Load reads the optional YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Blocks = getEnvInt("BLOCKFS_BLOCKS", c.Blocks)
	c.BlockSize = getEnvInt("BLOCKFS_BLOCK_SIZE", c.BlockSize)
	c.MaxEntries = getEnvInt("BLOCKFS_MAX_ENTRIES", c.MaxEntries)
	c.MaxNameLen = getEnvInt("BLOCKFS_MAX_NAME_LEN", c.MaxNameLen)
	c.Containment = getEnv("BLOCKFS_CONTAINMENT", c.Containment)
	c.Listing = getEnv("BLOCKFS_LISTING", c.Listing)
	c.Snapshot.Backend = getEnv("BLOCKFS_BACKEND", c.Snapshot.Backend)
	c.Snapshot.Path = getEnv("BLOCKFS_SNAPSHOT", c.Snapshot.Path)
	c.Snapshot.PostgresURL = getEnv("BLOCKFS_PG_URL", c.Snapshot.PostgresURL)
	c.Snapshot.EncryptKey = getEnv("BLOCKFS_KEY", c.Snapshot.EncryptKey)
	c.Snapshot.SwiftAuthURL = getEnv("BLOCKFS_SWIFT_URL", c.Snapshot.SwiftAuthURL)
	c.Snapshot.SwiftUser = getEnv("BLOCKFS_SWIFT_USER", c.Snapshot.SwiftUser)
	c.Snapshot.SwiftKey = getEnv("BLOCKFS_SWIFT_KEY", c.Snapshot.SwiftKey)
	c.Snapshot.SwiftContainer = getEnv("BLOCKFS_SWIFT_CONTAINER", c.Snapshot.SwiftContainer)
	c.JournalPath = getEnv("BLOCKFS_JOURNAL", c.JournalPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Blocks <= 0 {
		errs = append(errs, fmt.Errorf("blocks must be positive, got %d", c.Blocks))
	}
	if c.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("block_size must be positive, got %d", c.BlockSize))
	}
	if c.MaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("max_entries must be positive, got %d", c.MaxEntries))
	}
	if c.MaxNameLen <= 0 || c.MaxNameLen > 255 {
		errs = append(errs, fmt.Errorf("max_name_len must be in 1..255, got %d", c.MaxNameLen))
	}
	switch domain.Containment(c.Containment) {
	case domain.ContainmentPrefix, domain.ContainmentPath:
	default:
		errs = append(errs, fmt.Errorf("unknown containment %q", c.Containment))
	}
	switch domain.ListMode(c.Listing) {
	case domain.ListLegacy, domain.ListAll:
	default:
		errs = append(errs, fmt.Errorf("unknown listing %q", c.Listing))
	}
	switch c.Snapshot.Backend {
	case BackendFile, BackendBolt:
		if c.Snapshot.Path == "" {
			errs = append(errs, errors.New("snapshot.path is required"))
		}
	case BackendPostgres:
		if c.Snapshot.PostgresURL == "" {
			errs = append(errs, errors.New("snapshot.postgres_url is required for the postgres backend"))
		}
	case BackendSwift:
		if c.Snapshot.SwiftAuthURL == "" || c.Snapshot.SwiftContainer == "" {
			errs = append(errs, errors.New("snapshot.swift_auth_url and snapshot.swift_container are required for the swift backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown snapshot backend %q", c.Snapshot.Backend))
	}
	return errors.Join(errs...)
}

func (c *Config) Geometry() domain.Geometry {
	return domain.Geometry{
		Blocks:     c.Blocks,
		BlockSize:  c.BlockSize,
		MaxEntries: c.MaxEntries,
		MaxNameLen: c.MaxNameLen,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	case "quiet", "off":
		return LogLevelQuiet
	default:
		return LogLevelInfo
	}
}

// Package config loads the ontology configuration.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables. The merged result is checked against an embedded CUE schema.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ontology/internal/prose"
	"github.com/roach88/ontology/internal/snapshot"
	"github.com/roach88/ontology/internal/validator"
	"github.com/roach88/ontology/internal/wiki"
)

// FileName is the config file looked up in the working directory.
const FileName = "ontology.yaml"

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config is the full engine configuration.
type Config struct {
	Wiki       WikiConfig       `yaml:"wiki" json:"wiki"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Snapshot   SnapshotConfig   `yaml:"snapshot" json:"snapshot"`
	LLM        LLMConfig        `yaml:"llm" json:"llm"`
	Validation ValidationConfig `yaml:"validation" json:"validation"`
	Sync       SyncConfig       `yaml:"sync" json:"sync"`
	Admins     []string         `yaml:"admins" json:"admins"`
}

// WikiConfig locates the page repository.
type WikiConfig struct {
	URL          string      `yaml:"url" json:"url"`
	Token        string      `yaml:"token,omitempty" json:"token,omitempty"`
	Branch       string      `yaml:"branch,omitempty" json:"branch,omitempty"`
	ScratchDir   string      `yaml:"scratch_dir,omitempty" json:"scratch_dir,omitempty"`
	AuthorName   string      `yaml:"author_name" json:"author_name"`
	AuthorEmail  string      `yaml:"author_email" json:"author_email"`
	CloneRetries uint64      `yaml:"clone_retries" json:"clone_retries"`
	Pages        wiki.Layout `yaml:"pages" json:"pages"`
}

// StorageConfig selects the cache store backend.
type StorageConfig struct {
	Driver      string `yaml:"driver" json:"driver"`
	SQLitePath  string `yaml:"sqlite_path,omitempty" json:"sqlite_path,omitempty"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty" json:"postgres_dsn,omitempty"`
}

// SnapshotConfig selects the vocabulary snapshot blob store.
type SnapshotConfig struct {
	Driver string   `yaml:"driver" json:"driver"`
	Path   string   `yaml:"path,omitempty" json:"path,omitempty"`
	Key    string   `yaml:"key" json:"key"`
	S3     S3Config `yaml:"s3" json:"s3"`
}

// S3Config holds S3 snapshot settings. Credentials come from the default
// AWS chain.
type S3Config struct {
	Bucket    string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Region    string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style" json:"path_style"`
}

// LLMConfig configures the prose generator.
type LLMConfig struct {
	URL         string  `yaml:"url" json:"url"`
	Model       string  `yaml:"model" json:"model"`
	APIKey      string  `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	Timeout     string  `yaml:"timeout" json:"timeout"`
	MaxRetries  uint64  `yaml:"max_retries" json:"max_retries"`
}

// ValidationConfig tunes record validation.
type ValidationConfig struct {
	SkipCategories []string `yaml:"skip_categories" json:"skip_categories"`
}

// SyncConfig tunes wiki sync.
type SyncConfig struct {
	// MaxAge is the staleness window for sync --if-stale, as a Go duration.
	MaxAge string `yaml:"max_age" json:"max_age"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Wiki: WikiConfig{
			AuthorName:   "ontology",
			AuthorEmail:  "ontology@localhost",
			CloneRetries: 2,
			Pages:        wiki.DefaultLayout(),
		},
		Storage: StorageConfig{
			Driver:     StorageSQLite,
			SQLitePath: "ontology.db",
		},
		Snapshot: SnapshotConfig{
			Driver: string(snapshot.DriverNone),
			Key:    snapshot.DefaultKey,
		},
		LLM: LLMConfig{
			URL:         prose.DefaultURL,
			Model:       prose.DefaultModel,
			Temperature: 0.3,
			Timeout:     "60s",
			MaxRetries:  2,
		},
		Validation: ValidationConfig{
			SkipCategories: []string{"descriptors.theoretical_metric"},
		},
		Sync: SyncConfig{
			MaxAge: "5m",
		},
		Admins: []string{},
	}
}

// LoadFromFile decodes path over the defaults. Unknown keys are errors.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// SaveToFile writes the configuration as YAML, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MaxAge parses Sync.MaxAge.
func (c *Config) MaxAge() (time.Duration, error) {
	d, err := time.ParseDuration(c.Sync.MaxAge)
	if err != nil {
		return 0, fmt.Errorf("sync.max_age: %w", err)
	}
	return d, nil
}

// IsAdmin reports whether username is listed in Admins, ignoring case.
func (c *Config) IsAdmin(username string) bool {
	for _, a := range c.Admins {
		if strings.EqualFold(strings.TrimSpace(a), username) {
			return true
		}
	}
	return false
}

// GitOptions maps the wiki section onto the source adapter options.
func (c *Config) GitOptions(logger *slog.Logger) wiki.GitOptions {
	return wiki.GitOptions{
		URL:          c.Wiki.URL,
		Token:        c.Wiki.Token,
		Branch:       c.Wiki.Branch,
		ScratchDir:   c.Wiki.ScratchDir,
		AuthorName:   c.Wiki.AuthorName,
		AuthorEmail:  c.Wiki.AuthorEmail,
		CloneRetries: c.Wiki.CloneRetries,
		Logger:       logger,
	}
}

// SnapshotOptions maps the snapshot section onto blob driver options.
func (c *Config) SnapshotOptions() snapshot.Options {
	return snapshot.Options{
		Driver: snapshot.Driver(c.Snapshot.Driver),
		Path:   c.Snapshot.Path,
		Key:    c.Snapshot.Key,
		S3: snapshot.S3Config{
			Bucket:    c.Snapshot.S3.Bucket,
			Region:    c.Snapshot.S3.Region,
			Endpoint:  c.Snapshot.S3.Endpoint,
			PathStyle: c.Snapshot.S3.PathStyle,
		},
	}
}

// ProseOptions maps the llm section onto client options.
func (c *Config) ProseOptions(logger *slog.Logger) (prose.Options, error) {
	timeout, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return prose.Options{}, fmt.Errorf("llm.timeout: %w", err)
	}
	return prose.Options{
		URL:         c.LLM.URL,
		APIKey:      c.LLM.APIKey,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		Timeout:     timeout,
		MaxRetries:  c.LLM.MaxRetries,
		Logger:      logger,
	}, nil
}

// ValidatorOptions maps the validation section onto validator options.
func (c *Config) ValidatorOptions() validator.Options {
	return validator.Options{SkipCategories: c.Validation.SkipCategories}
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
	getenv func(string) string
}

// NewLoader creates a new configuration loader reading the process environment.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, getenv: os.Getenv}
}

// Load builds the configuration:
//  1. Defaults
//  2. path, or ontology.yaml in the working directory when path is empty
//  3. Environment variables
//
// An explicit path must exist; the implicit one is optional.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()

	switch {
	case path != "":
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
		l.logger.Debug("loaded config file", "path", path)
	default:
		if _, err := os.Stat(FileName); err == nil {
			if err := cfg.mergeFile(FileName); err != nil {
				return nil, err
			}
			l.logger.Debug("loaded config file", "path", FileName)
		} else if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("cannot stat config file", "path", FileName, "error", err)
		}
	}

	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	set := func(dst *string, name string) {
		if v := l.getenv(name); v != "" {
			*dst = v
			l.logger.Debug("config from environment", "var", name)
		}
	}

	set(&cfg.Wiki.URL, "WIKI_REPO_URL")
	set(&cfg.Wiki.Token, "GITHUB_TOKEN")

	set(&cfg.Storage.Driver, "ONTOLOGY_STORAGE_DRIVER")
	set(&cfg.Storage.SQLitePath, "ONTOLOGY_SQLITE_PATH")
	set(&cfg.Storage.PostgresDSN, "ONTOLOGY_POSTGRES_DSN")
	if cfg.Storage.PostgresDSN == "" {
		cfg.Storage.PostgresDSN = l.pgDSN()
	}

	set(&cfg.Snapshot.Driver, "ONTOLOGY_SNAPSHOT_DRIVER")
	set(&cfg.Snapshot.Path, "ONTOLOGY_SNAPSHOT_PATH")
	set(&cfg.Snapshot.S3.Bucket, "ONTOLOGY_SNAPSHOT_S3_BUCKET")
	set(&cfg.Snapshot.S3.Region, "ONTOLOGY_SNAPSHOT_S3_REGION")
	set(&cfg.Snapshot.S3.Endpoint, "ONTOLOGY_SNAPSHOT_S3_ENDPOINT")
	if v := l.getenv("ONTOLOGY_SNAPSHOT_S3_PATH_STYLE"); v != "" {
		cfg.Snapshot.S3.PathStyle = strings.EqualFold(v, "true")
	}

	set(&cfg.LLM.APIKey, "ISAAC_LLM_API_KEY")
	set(&cfg.LLM.URL, "ONTOLOGY_LLM_URL")
	set(&cfg.LLM.Model, "ONTOLOGY_LLM_MODEL")

	if v := l.getenv("ISAAC_ADMINS"); v != "" {
		cfg.Admins = SplitList(v)
	}
}

// pgDSN builds a URL from the libpq PG* variables when PGHOST is set.
func (l *Loader) pgDSN() string {
	host := l.getenv("PGHOST")
	if host == "" {
		return ""
	}
	if port := l.getenv("PGPORT"); port != "" {
		host = net.JoinHostPort(host, port)
	}
	u := url.URL{Scheme: "postgres", Host: host, Path: "/" + l.getenv("PGDATABASE")}
	if user := l.getenv("PGUSER"); user != "" {
		if pw := l.getenv("PGPASSWORD"); pw != "" {
			u.User = url.UserPassword(user, pw)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String()
}

// SplitList splits a comma-separated list, trimming blanks and dropping empties.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Describe is a one-line summary for logs; secrets are not included.
func (c *Config) Describe() string {
	return fmt.Sprintf("wiki=%s storage=%s snapshot=%s pages=%d admins=%d",
		redactURL(c.Wiki.URL), c.Storage.Driver, c.Snapshot.Driver, len(c.Wiki.Pages), len(c.Admins))
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.User("***")
	return u.String()
}

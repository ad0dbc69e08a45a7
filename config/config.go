// Package config loads the txsync project configuration.
//
// Settings come from .txsync.yaml in the project root, overridden by TX_*
// environment variables, with defaults from env-default tags:
//
//	organization: openstreetmap
//	project: id-editor
//	resources: [core, presets, imagery]
//	source_locale: en
//	out_dir: dist
//	reviewed_only: [vi]      # or true / false
//
// Command-line flags are applied by the caller on top of the loaded value.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/minios-linux/txsync/locale"
)

// FileName is the default config file name.
const FileName = ".txsync.yaml"

// Config is the sync configuration for one project.
type Config struct {
	Organization    string        `yaml:"organization"     env:"TX_ORGANIZATION"`
	Project         string        `yaml:"project"          env:"TX_PROJECT"`
	Resources       []string      `yaml:"resources"        env:"TX_RESOURCES"        env-default:"presets"`
	SourceLocale    string        `yaml:"source_locale"    env:"TX_SOURCE_LOCALE"    env-default:"en"`
	OutDir          string        `yaml:"out_dir"          env:"TX_OUT_DIR"          env-default:"dist"`
	ReviewedOnly    ReviewPolicy  `yaml:"reviewed_only"    env:"TX_REVIEWED_ONLY"`
	APIURL          string        `yaml:"api_url"          env:"TX_API_URL"          env-default:"https://www.transifex.com/api/2"`
	StatsAPIURL     string        `yaml:"stats_api_url"    env:"TX_STATS_API_URL"    env-default:"https://api.transifex.com"`
	RequestInterval time.Duration `yaml:"request_interval" env:"TX_REQUEST_INTERVAL" env-default:"200ms"`
	Timeout         time.Duration `yaml:"timeout"          env:"TX_TIMEOUT"          env-default:"60s"`
	Log             LogConfig     `yaml:"log"`

	// Root is the project root the config was loaded from. Relative
	// output paths are resolved against it.
	Root string `yaml:"-"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"TX_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"TX_LOG_FORMAT" env-default:"console"`
}

// ConfigError reports an invalid or unreadable configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "config: " + e.Err.Error()
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads the configuration for the project in rootDir.
//
// If path is empty, rootDir/.txsync.yaml is used when it exists; otherwise
// only environment variables and defaults apply. An explicit path that does
// not exist is an error. The result is not validated, call Validate after
// applying command-line overrides.
func Load(rootDir, path string) (*Config, error) {
	var cfg Config

	explicitPath := path != ""
	if !explicitPath {
		path = filepath.Join(rootDir, FileName)
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
	} else if explicitPath {
		return nil, &ConfigError{Path: path, Err: err}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("read env: %w", err)}
		}
	}

	cfg.Root = rootDir
	return &cfg, nil
}

// Validate checks that the configuration is complete enough to sync.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Organization) == "" {
		errs = append(errs, errors.New("organization is required"))
	}
	if strings.TrimSpace(c.Project) == "" {
		errs = append(errs, errors.New("project is required"))
	}
	if len(c.Resources) == 0 {
		errs = append(errs, errors.New("at least one resource is required"))
	}
	for i, r := range c.Resources {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, fmt.Errorf("resource #%d is empty", i+1))
		}
	}
	if strings.TrimSpace(c.SourceLocale) == "" {
		errs = append(errs, errors.New("source_locale is required"))
	}
	if c.RequestInterval < 0 {
		errs = append(errs, errors.New("request_interval must not be negative"))
	}
	if len(errs) > 0 {
		return &ConfigError{Err: errors.Join(errs...)}
	}
	return nil
}

// Source returns the source locale in canonical hyphen form, so "pt_BR"
// and "pt-BR" name the same locale everywhere.
func (c *Config) Source() locale.Code {
	return locale.Canonicalize(c.SourceLocale)
}

// TranslationsDir returns the directory the artifacts are written to.
func (c *Config) TranslationsDir() string {
	out := c.OutDir
	if !filepath.IsAbs(out) {
		out = filepath.Join(c.Root, out)
	}
	return filepath.Join(out, "translations")
}

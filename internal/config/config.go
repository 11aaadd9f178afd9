// Package config loads elmdiag settings from elmdiag.toml and the environment.
//
// Precedence, highest first: command-line flags (applied by the caller),
// environment variables, the config file, built-in defaults.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"elmdiag/internal/project"
)

// FileName is the optional per-project config file.
const FileName = "elmdiag.toml"

// Environment overrides.
const (
	EnvElmPath  = "ELMDIAG_ELM_PATH"
	EnvLogLevel = "ELMDIAG_LOG_LEVEL"
	EnvJobs     = "ELMDIAG_JOBS"
)

// Output formats accepted by [check].format.
var Formats = []string{"pretty", "json", "msgpack", "sarif"}

type Config struct {
	Elm   ElmConfig   `toml:"elm"`
	Log   LogConfig   `toml:"log"`
	Check CheckConfig `toml:"check"`

	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`
}

type ElmConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type CheckConfig struct {
	Jobs   int    `toml:"jobs"`
	Format string `toml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Elm:   ElmConfig{Path: "elm"},
		Log:   LogConfig{Level: "info"},
		Check: CheckConfig{Jobs: runtime.GOMAXPROCS(0), Format: "pretty"},
	}
}

// Load finds elmdiag.toml by walking up from startDir and layers it and the
// process environment over the defaults. A missing file is not an error.
func Load(startDir string) (Config, error) {
	cfg := Default()
	path, ok, err := project.FindUp(startDir, FileName)
	if err != nil {
		return Config{}, err
	}
	if ok {
		if cfg, err = LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes path over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("elm", "path") && strings.TrimSpace(cfg.Elm.Path) == "" {
		return Config{}, fmt.Errorf("%s: [elm].path must not be empty", path)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvElmPath); ok && strings.TrimSpace(v) != "" {
		c.Elm.Path = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.Log.Level = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvJobs); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvJobs, err)
		}
		c.Check.Jobs = n
	}
	return c.Validate()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Check.Jobs < 0 {
		return fmt.Errorf("[check].jobs must be >= 0, got %d", c.Check.Jobs)
	}
	if c.Check.Jobs == 0 {
		c.Check.Jobs = runtime.GOMAXPROCS(0)
	}
	if !ValidFormat(c.Check.Format) {
		return fmt.Errorf("[check].format must be one of %s, got %q", strings.Join(Formats, "|"), c.Check.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("[log].level must be debug|info|warn|error, got %q", c.Log.Level)
	}
	return nil
}

// ValidFormat reports whether f names a supported output format.
func ValidFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

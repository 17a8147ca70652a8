package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "q"
	// ConfigFile is the config file name
	ConfigFile = "config.yaml"
	// SessionFile is the default session file name
	SessionFile = "session.json"
	// LogFile is the default log file name
	LogFile = "q.log"
	// EnvPrefix prefixes every environment override (Q_PROVIDER_NAME, ...)
	EnvPrefix = "Q"
	// DotEnvFile is read from the working directory before env overrides apply
	DotEnvFile = ".env"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

// ConfigFileReader implements FileSystem using the real OS for config loading
type ConfigFileReader struct{}

func (ConfigFileReader) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (ConfigFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs        FileSystem
	lookupEnv func(string) (string, bool)
	setEnv    func(string, string) error
}

// NewLoader creates a production Loader using the real filesystem
func NewLoader() *Loader {
	return NewLoaderWithFS(ConfigFileReader{})
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing)
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs, lookupEnv: os.LookupEnv, setEnv: os.Setenv}
}

// Overrides are values given on the command line. They win over every
// other layer. Empty fields are ignored.
type Overrides struct {
	Provider string
	Model    string
	LogLevel string
	AllowAll bool
}

// Load builds the configuration in layers:
//
//  1. DefaultConfig()
//  2. ./.env, exported into the process environment without overriding existing variables
//  3. the YAML file at path, or ~/.config/q/config.yaml when path is empty
//  4. Q_* environment variables
//  5. command line overrides
//  6. provider-scoped variables such as GEMINI_API_KEY for settings still unset
//
// A missing config file is not an error; an explicitly named one is.
func (l *Loader) Load(path string) (*Config, error) {
	return l.LoadWithOverrides(path, Overrides{})
}

// LoadWithOverrides is Load with command line values applied on top.
func (l *Loader) LoadWithOverrides(path string, o Overrides) (*Config, error) {
	cfg := DefaultConfig()

	if err := l.loadDotEnv(); err != nil {
		return nil, err
	}

	homeDir, homeErr := l.fs.UserHomeDir()

	explicit := path != ""
	if !explicit && homeErr == nil {
		path = filepath.Join(homeDir, ".config", ConfigDir, ConfigFile)
	}

	if path != "" {
		data, err := l.fs.ReadFile(path)
		switch {
		case err == nil:
			// Present keys overwrite defaults (even if zero); missing keys leave them untouched.
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &ParseError{Path: path, Cause: err}
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, &ReadError{Path: path, Cause: err}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process env vars: %w", err)
	}

	o.apply(cfg)

	if err := l.applyProviderEnv(cfg); err != nil {
		return nil, err
	}

	if homeErr == nil {
		if cfg.Session.Path == "" {
			cfg.Session.Path = filepath.Join(homeDir, ".config", ConfigDir, SessionFile)
		}
		if cfg.Log.File == "" {
			cfg.Log.File = filepath.Join(homeDir, ".config", ConfigDir, LogFile)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (o Overrides) apply(cfg *Config) {
	// Settings tied to the previous provider do not carry over.
	if o.Provider != "" && o.Provider != cfg.Provider.Name {
		cfg.Provider.Name = o.Provider
		cfg.Provider.Model = ""
		cfg.Provider.APIKey = ""
		cfg.Provider.BaseURL = ""
		cfg.Provider.TokensPerMin = 0
	}
	if o.Model != "" {
		cfg.Provider.Model = o.Model
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.AllowAll {
		cfg.Policy.AllowAll = true
	}
}

func (l *Loader) loadDotEnv() error {
	data, err := l.fs.ReadFile(DotEnvFile)
	if err != nil {
		return nil // optional
	}
	vars, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return &ParseError{Path: DotEnvFile, Cause: err}
	}
	for k, v := range vars {
		if _, exists := l.lookupEnv(k); exists {
			continue
		}
		if err := l.setEnv(k, v); err != nil {
			return fmt.Errorf("failed to export %s: %w", k, err)
		}
	}
	return nil
}

// applyProviderEnv fills provider settings from <PROVIDER>_<PARAM> variables
// when neither the config file nor Q_PROVIDER_* set them.
func (l *Loader) applyProviderEnv(cfg *Config) error {
	prefix := strings.ToUpper(cfg.Provider.Name) + "_"

	if cfg.Provider.APIKey == "" {
		if v, ok := l.lookupEnv(prefix + "API_KEY"); ok {
			cfg.Provider.APIKey = v
		}
	}
	if cfg.Provider.Model == "" {
		if v, ok := l.lookupEnv(prefix + "MODEL"); ok {
			cfg.Provider.Model = v
		} else {
			cfg.Provider.Model = defaultModels[cfg.Provider.Name]
		}
	}
	if cfg.Provider.BaseURL == "" {
		if v, ok := l.lookupEnv(prefix + "BASE_URL"); ok {
			cfg.Provider.BaseURL = v
		}
	}
	if cfg.Provider.TokensPerMin == 0 {
		if v, ok := l.lookupEnv(prefix + "TOKENS_PER_MIN"); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return &ParseError{Path: prefix + "TOKENS_PER_MIN", Cause: err}
			}
			cfg.Provider.TokensPerMin = n
		} else {
			cfg.Provider.TokensPerMin = DefaultTokensPerMin(cfg.Provider.Name)
		}
	}
	return nil
}

// Load is a convenience function using the default loader
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// LoadWithOverrides is a convenience function using the default loader
func LoadWithOverrides(path string, o Overrides) (*Config, error) {
	return NewLoader().LoadWithOverrides(path, o)
}

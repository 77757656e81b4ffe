package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	appName        = "sprintloop"
	configFileName = "sprintloop.yaml"

	// EnvConfigPath names the environment variable that points directly at a
	// config file, bypassing the search path.
	EnvConfigPath = "SPRINTLOOP_CONFIG_PATH"
)

// Loader handles configuration loading using Viper.
//
// Create with [NewLoader], then call [Loader.Load] for the full search-path
// behavior or [Loader.LoadFromFile] for an explicit file.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load loads configuration from the standard locations.
//
// Search order: the file named by SPRINTLOOP_CONFIG_PATH, then
// sprintloop.yaml in the user config directory, then sprintloop.yaml in the
// current directory. A missing config file is not an error; defaults apply.
// SPRINTLOOP_* environment variables override file values either way.
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()
	l.bindEnv()

	if path := os.Getenv(EnvConfigPath); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		return l.unmarshal()
	}

	l.v.SetConfigName(strings.TrimSuffix(configFileName, filepath.Ext(configFileName)))
	l.v.SetConfigType("yaml")
	if dir, err := ConfigDir(); err == nil {
		l.v.AddConfigPath(dir)
	}
	l.v.AddConfigPath(".")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshal()
}

// LoadFromFile loads configuration from an explicit file path. The file must
// exist and parse; defaults still fill in unset keys and environment
// variables still override.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.setDefaults()
	l.bindEnv()

	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return l.unmarshal()
}

// MustLoad loads configuration or panics. Intended for initialization paths
// where a broken config should stop the program immediately.
func MustLoad() *Config {
	cfg, err := NewLoader().Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every default value with Viper so that environment
// overrides and partial config files merge against [DefaultConfig].
func (l *Loader) setDefaults() {
	def := DefaultConfig()

	for name, phase := range def.Phases {
		prefix := "phases." + name + "."
		l.v.SetDefault(prefix+"command", phase.Command)
		l.v.SetDefault(prefix+"model", phase.Model)
		l.v.SetDefault(prefix+"system_prompt", phase.SystemPrompt)
		l.v.SetDefault(prefix+"prompt", phase.Prompt)
		l.v.SetDefault(prefix+"timeout_seconds", phase.TimeoutSeconds)
	}

	l.v.SetDefault("tool.binary_path", def.Tool.BinaryPath)
	l.v.SetDefault("tool.default_model", def.Tool.DefaultModel)
	l.v.SetDefault("tool.timeout_seconds", def.Tool.TimeoutSeconds)

	l.v.SetDefault("loop.max_iterations", def.Loop.MaxIterations)
	l.v.SetDefault("loop.max_consecutive_failures", def.Loop.MaxConsecutiveFailures)
	l.v.SetDefault("loop.max_minutes", def.Loop.MaxMinutes)

	l.v.SetDefault("output.truncate_lines", def.Output.TruncateLines)
	l.v.SetDefault("output.truncate_length", def.Output.TruncateLength)
	l.v.SetDefault("output.markdown.enabled", def.Output.Markdown.Enabled)
	l.v.SetDefault("output.markdown.style", def.Output.Markdown.Style)
	l.v.SetDefault("output.markdown.word_wrap", def.Output.Markdown.WordWrap)
	l.v.SetDefault("output.markdown.emoji", def.Output.Markdown.Emoji)
}

// bindEnv maps SPRINTLOOP_* environment variables onto config keys, e.g.
// SPRINTLOOP_TOOL_BINARY_PATH overrides tool.binary_path.
func (l *Loader) bindEnv() {
	l.v.SetEnvPrefix("SPRINTLOOP")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

// ConfigDir returns the platform-standard sprintloop configuration directory.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine user config directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// DefaultConfigPath returns the path of the user-level config file.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// EnsureConfigDir creates the configuration directory if it does not exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

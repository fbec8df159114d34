package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents the goproj tool settings
type Config struct {
	LogLevel     string              `mapstructure:"log_level"`
	StateDir     string              `mapstructure:"state_dir"`
	ProjectsFile string              `mapstructure:"projects_file"`
	Go           Go                  `mapstructure:"go"`
	Debugger     Debugger            `mapstructure:"debugger"`
	Start        Start               `mapstructure:"start"`
	Stop         Stop                `mapstructure:"stop"`
	Match        map[string][]string `mapstructure:"match"`
}

// Go configures the build tool
type Go struct {
	Binary string `mapstructure:"binary"`
}

// Debugger configures the debugger launch
type Debugger struct {
	Binary      string        `mapstructure:"binary"`
	Args        []string      `mapstructure:"args"`
	StartupWait time.Duration `mapstructure:"startup_wait"`
}

// Start configures program launches
type Start struct {
	Terminal *bool `mapstructure:"terminal"`
}

// UseTerminal returns whether programs open in a Terminal window.
// Defaults to true on macOS when not explicitly set.
func (s *Start) UseTerminal() bool {
	if s.Terminal == nil {
		return runtime.GOOS == "darwin"
	}
	return *s.Terminal
}

// Stop configures process termination
type Stop struct {
	Grace time.Duration `mapstructure:"grace"`
}

// Load reads ~/.goproj/config.yaml (or file, when set), GOPROJ_* environment
// variables and any bound flags, falling back to defaults.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("GOPROJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		for key, name := range map[string]string{
			"state_dir":     "state-dir",
			"log_level":     "log-level",
			"projects_file": "projects-file",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	// A missing config file is fine
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	stateDir, err := homedir.Expand(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("invalid state_dir: %w", err)
	}
	cfg.StateDir = stateDir

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("state_dir", "~/.goproj")
	v.SetDefault("projects_file", "")

	v.SetDefault("go.binary", "go")
	v.SetDefault("debugger.binary", "dlv")
	v.SetDefault("debugger.args", []string{
		"--headless",
		"--listen=127.0.0.1:2345",
		"--api-version=2",
		"--accept-multiclient",
	})
	v.SetDefault("debugger.startup_wait", "500ms")
	v.SetDefault("stop.grace", "3s")

	// Tokens every candidate must match when no project is named.
	// $os and $arch expand to the host platform.
	v.SetDefault("match.build", []string{"release"})
	v.SetDefault("match.start", []string{"release", "$arch", "$os"})
	v.SetDefault("match.stop", []string{"$arch", "$os"})
	v.SetDefault("match.debug", []string{"debug", "$arch", "$os"})
}

// MatchTokens returns the default filter for an action with $os and $arch
// replaced by the given platform.
func (c *Config) MatchTokens(action, goos, goarch string) []string {
	raw := c.Match[action]
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		switch tok {
		case "$os":
			tok = goos
		case "$arch":
			tok = goarch
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// ConfigDir returns the goproj configuration directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".goproj"), nil
}

// EnsureStateDir creates the state directory if it doesn't exist
func (c *Config) EnsureStateDir() error {
	return os.MkdirAll(c.StateDir, 0755)
}

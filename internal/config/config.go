// Package config loads kgate settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dennisklein/kgate/internal/policy"
)

// EnvPrefix prefixes every environment override, e.g. KGATE_SERVER_ADDR.
const EnvPrefix = "KGATE"

// DefaultAddr is the local address the MCP HTTP transport listens on.
const DefaultAddr = "127.0.0.1:8000"

// Config is the full kgate configuration.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Session SessionConfig `mapstructure:"session"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Exec    ExecConfig    `mapstructure:"exec"`
	Policy  PolicyConfig  `mapstructure:"policy"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Addr  string `mapstructure:"addr"`
	Stdio bool   `mapstructure:"stdio"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// SessionConfig holds the context and namespace applied at startup.
type SessionConfig struct {
	Context    string `mapstructure:"context"`
	Namespace  string `mapstructure:"namespace"`
	Kubeconfig string `mapstructure:"kubeconfig"`
}

// ToolsConfig controls how trusted tool binaries are found.
type ToolsConfig struct {
	AutoInstall bool `mapstructure:"auto_install"`
}

// ExecConfig bounds spawned processes.
type ExecConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// PolicyConfig overrides the built-in read-only rules when the lists are non-empty.
// In KGATE_POLICY_READ_VERBS and KGATE_POLICY_DENY_TERMS the items are comma separated.
type PolicyConfig struct {
	ReadVerbs []string `mapstructure:"read_verbs"`
	DenyTerms []string `mapstructure:"deny_terms"`
}

// LogConfig configures logging.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type LogConfig struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// KubectlRules returns the kubectl read-only rules with configured overrides applied.
func (c *Config) KubectlRules() policy.Rules {
	rules := policy.DefaultKubectl()

	if len(c.Policy.ReadVerbs) > 0 {
		rules.ReadVerbs = policy.ParseVerbs(c.Policy.ReadVerbs)
	}

	if len(c.Policy.DenyTerms) > 0 {
		rules.DenyTerms = c.Policy.DenyTerms
	}

	return rules
}

// FlagBindings maps config keys to the flag names that override them.
var FlagBindings = map[string]string{
	"server.addr":        "http",
	"server.stdio":       "stdio",
	"metrics.addr":       "metrics-addr",
	"session.context":    "context",
	"session.namespace":  "namespace",
	"session.kubeconfig": "kubeconfig",
	"tools.auto_install": "auto-install",
	"exec.timeout":       "timeout",
	"log.level":          "log-level",
	"log.json":           "log-json",
}

// Load reads the configuration. An explicit path must exist; without one the
// default location is tried and silently skipped when absent. Only flags present
// in flags and listed in FlagBindings are bound.
func Load(fs afero.Fs, path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range FlagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := readConfigFile(v, fs, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyEnvLists(&cfg)

	return &cfg, nil
}

// applyEnvLists reads the policy lists from the environment as comma
// separated values, so multi-word verbs such as "config view" stay whole.
func applyEnvLists(cfg *Config) {
	lists := map[string]*[]string{
		"policy.read_verbs": &cfg.Policy.ReadVerbs,
		"policy.deny_terms": &cfg.Policy.DenyTerms,
	}

	for key, target := range lists {
		raw, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}

		var items []string

		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}

		*target = items
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.stdio", false)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("session.context", "")
	v.SetDefault("session.namespace", "")
	v.SetDefault("session.kubeconfig", "")
	v.SetDefault("tools.auto_install", false)
	v.SetDefault("exec.timeout", time.Duration(0))
	v.SetDefault("policy.read_verbs", []string{})
	v.SetDefault("policy.deny_terms", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
}

func readConfigFile(v *viper.Viper, fs afero.Fs, path string) error {
	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}

		return nil
	}

	dir, err := Dir()
	if err != nil {
		return nil //nolint:nilerr // no home directory means no default config
	}

	defaultPath := filepath.Join(dir, "kgate.yaml")
	if _, err := fs.Stat(defaultPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v.SetConfigFile(defaultPath)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", defaultPath, err)
	}

	return nil
}

// Dir returns the kgate configuration directory following the XDG Base Directory spec.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kgate"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".config", "kgate"), nil
}

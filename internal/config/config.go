package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/macharden/macharden/pkg/harden"
)

const envPrefix = "MACHARDEN_"

type Config struct {
	RulesFile string
	UsersDir  string
	Elevation string
	Answer    string
	Timeout   int
	DryRun    bool
	FailFast  bool
	LogLevel  string
	NoColor   bool

	Transport string
	Host      string
	Port      int
}

func NewConfig() *Config {
	return &Config{
		RulesFile: "",
		UsersDir:  harden.DefaultUsersDir,
		Elevation: strings.Join(harden.DefaultElevation, " "),
		Answer:    harden.DefaultAnswer,
		Timeout:   0,
		LogLevel:  "warn",

		Transport: "stdio",
		Host:      "127.0.0.1",
		Port:      8000,
	}
}

// AddFlags binds the settings to fs. Environment values are applied by Load
// and only fill settings whose flag was not given.
func (c *Config) AddFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.RulesFile, "rules-file", c.RulesFile, "Path to a rules YAML file (default: embedded catalog)")
	fs.StringVar(&c.UsersDir, "users-dir", c.UsersDir, "Directory listing the local user accounts")
	fs.StringVar(&c.Elevation, "elevation", c.Elevation, "Privilege elevation command prefixed to elevated actions (empty to disable)")
	fs.StringVar(&c.Answer, "answer", c.Answer, "Line written to interactive actions")
	fs.IntVar(&c.Timeout, "timeout", c.Timeout, "Timeout per action in seconds (0 disables it)")
	fs.BoolVar(&c.DryRun, "dry-run", c.DryRun, "Plan and report actions without running them")
	fs.BoolVar(&c.FailFast, "fail-fast", c.FailFast, "Stop at the first failing rule")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&c.NoColor, "no-color", c.NoColor, "Disable colored output")
	fs.StringVar(&c.Transport, "transport", c.Transport, "Transport mechanism for serve (stdio, sse, streamable-http)")
	fs.StringVar(&c.Host, "host", c.Host, "Host to listen on (for non-stdio transport)")
	fs.IntVar(&c.Port, "port", c.Port, "Port to listen on (for non-stdio transport)")
}

// Load applies MACHARDEN_* environment overrides for flags that were not set
// on the command line, then validates.
func (c *Config) Load(fs *flag.FlagSet) error {
	if err := c.loadFromEnv(fs); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) loadFromEnv(fs *flag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *flag.Flag) {
		if err != nil || f.Changed {
			return
		}
		name := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		value, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		if setErr := f.Value.Set(value); setErr != nil {
			err = fmt.Errorf("invalid %s: %w", name, setErr)
		}
	})
	return err
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	if c.UsersDir == "" {
		return fmt.Errorf("users-dir must not be empty")
	}

	validTransports := map[string]bool{
		"stdio":           true,
		"sse":             true,
		"streamable-http": true,
	}

	if !validTransports[c.Transport] {
		return fmt.Errorf("invalid transport: %s (must be stdio, sse, or streamable-http)", c.Transport)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %s", strconv.Itoa(c.Port))
	}

	return nil
}

// TimeoutDuration returns zero when no timeout is configured.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ElevationArgs splits the elevation command. An empty setting yields an
// empty, non-nil slice so the planner does not fall back to its default.
func (c *Config) ElevationArgs() []string {
	args := strings.Fields(c.Elevation)
	if args == nil {
		return []string{}
	}
	return args
}

func (c *Config) ExecutorConfig() harden.ExecutorConfig {
	return harden.ExecutorConfig{
		Timeout: c.TimeoutDuration(),
		Answer:  c.Answer,
	}
}

func (c *Config) PlannerConfig() harden.PlannerConfig {
	return harden.PlannerConfig{
		Elevation: c.ElevationArgs(),
	}
}

func (c *Config) RunnerConfig() harden.RunnerConfig {
	return harden.RunnerConfig{
		DryRun:   c.DryRun,
		FailFast: c.FailFast,
	}
}

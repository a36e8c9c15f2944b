package config

import (
	"testing"
	"time"

	flag "github.com/spf13/pflag"
)

func newFlagSet(c *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.AddFlags(fs)
	return fs
}

func TestNewConfig_Defaults(t *testing.T) {
	c := NewConfig()

	if c.UsersDir != "/Users" {
		t.Errorf("UsersDir = %q, want /Users", c.UsersDir)
	}
	if c.Elevation != "sudo" {
		t.Errorf("Elevation = %q, want sudo", c.Elevation)
	}
	if c.Answer != "yes" {
		t.Errorf("Answer = %q, want yes", c.Answer)
	}
	if c.TimeoutDuration() != 0 {
		t.Errorf("TimeoutDuration() = %v, want 0", c.TimeoutDuration())
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}
}

func TestConfig_Flags(t *testing.T) {
	c := NewConfig()
	fs := newFlagSet(c)

	err := fs.Parse([]string{"--timeout", "30", "--dry-run", "--users-dir", "/tmp/users", "--elevation", "doas -n", "--transport", "sse"})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if err := c.Load(fs); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.TimeoutDuration() != 30*time.Second {
		t.Errorf("TimeoutDuration() = %v, want 30s", c.TimeoutDuration())
	}
	if !c.RunnerConfig().DryRun {
		t.Error("RunnerConfig().DryRun = false, want true")
	}
	if c.UsersDir != "/tmp/users" {
		t.Errorf("UsersDir = %q, want /tmp/users", c.UsersDir)
	}
	got := c.PlannerConfig().Elevation
	if len(got) != 2 || got[0] != "doas" || got[1] != "-n" {
		t.Errorf("PlannerConfig().Elevation = %v, want [doas -n]", got)
	}
	if c.ExecutorConfig().Timeout != 30*time.Second {
		t.Errorf("ExecutorConfig().Timeout = %v, want 30s", c.ExecutorConfig().Timeout)
	}
}

func TestConfig_Env(t *testing.T) {
	t.Setenv("MACHARDEN_ANSWER", "y")
	t.Setenv("MACHARDEN_FAIL_FAST", "true")
	t.Setenv("MACHARDEN_LOG_LEVEL", "debug")
	t.Setenv("MACHARDEN_TIMEOUT", "5")

	c := NewConfig()
	fs := newFlagSet(c)
	if err := fs.Parse([]string{"--timeout", "10"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if err := c.Load(fs); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.Answer != "y" {
		t.Errorf("Answer = %q, want y", c.Answer)
	}
	if !c.FailFast {
		t.Error("FailFast = false, want true")
	}
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", c.LogLevel)
	}
	if c.Timeout != 10 {
		t.Errorf("Timeout = %d, want 10 (flag wins over env)", c.Timeout)
	}
}

func TestConfig_EnvInvalid(t *testing.T) {
	t.Setenv("MACHARDEN_PORT", "eighty")

	c := NewConfig()
	fs := newFlagSet(c)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if err := c.Load(fs); err == nil {
		t.Error("Load() expected error for invalid MACHARDEN_PORT")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(c *Config) {}, wantErr: false},
		{name: "negative timeout", modify: func(c *Config) { c.Timeout = -1 }, wantErr: true},
		{name: "empty users dir", modify: func(c *Config) { c.UsersDir = "" }, wantErr: true},
		{name: "invalid transport", modify: func(c *Config) { c.Transport = "grpc" }, wantErr: true},
		{name: "streamable http", modify: func(c *Config) { c.Transport = "streamable-http" }, wantErr: false},
		{name: "invalid port", modify: func(c *Config) { c.Port = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			tt.modify(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ElevationArgs(t *testing.T) {
	c := NewConfig()
	c.Elevation = ""

	args := c.ElevationArgs()
	if args == nil {
		t.Fatal("ElevationArgs() = nil, want empty non-nil slice")
	}
	if len(args) != 0 {
		t.Errorf("ElevationArgs() = %v, want empty", args)
	}
}

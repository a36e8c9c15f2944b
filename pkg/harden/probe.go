package harden

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Prober observes current system state without changing it.
type Prober interface {
	CommandOutput(ctx context.Context, program string, args ...string) (string, error)
	MatchingLine(path string, match LineMatch) (string, bool, error)
	FileExists(path string) bool
}

// LineMatch selects a configuration line. Exactly one of Prefix or Contains is
// expected to be set.
type LineMatch struct {
	Prefix   string `yaml:"prefix,omitempty"`
	Contains string `yaml:"contains,omitempty"`
}

func (m LineMatch) Match(line string) bool {
	switch {
	case m.Prefix != "":
		return strings.HasPrefix(line, m.Prefix)
	case m.Contains != "":
		return strings.Contains(line, m.Contains)
	}
	return false
}

func (m LineMatch) String() string {
	if m.Prefix != "" {
		return fmt.Sprintf("prefix %q", m.Prefix)
	}
	return fmt.Sprintf("contains %q", m.Contains)
}

type DefaultProber struct {
	fs      afero.Fs
	timeout time.Duration
}

func NewDefaultProber(fs afero.Fs, timeout time.Duration) *DefaultProber {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &DefaultProber{
		fs:      fs,
		timeout: timeout,
	}
}

func (p *DefaultProber) CommandOutput(ctx context.Context, program string, args ...string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, program, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		probeErr := NewHardenError(ErrorTypeProbe, "probe command failed", program).
			WithContext("args", args).
			Wrap(err)
		probeErr.Stderr = stderr.String()
		return "", probeErr
	}
	return stdout.String(), nil
}

// MatchingLine returns the first line of path satisfying match, as stored
// (a CRLF line keeps its trailing carriage return). A readable file without a
// match yields found=false and no error; a missing or unreadable file is a
// probe error.
func (p *DefaultProber) MatchingLine(path string, match LineMatch) (string, bool, error) {
	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return "", false, NewHardenError(ErrorTypeProbe, "cannot read configuration file", path).Wrap(err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if match.Match(strings.TrimSuffix(line, "\r")) {
			return line, true, nil
		}
	}
	return "", false, nil
}

func (p *DefaultProber) FileExists(path string) bool {
	ok, err := afero.Exists(p.fs, path)
	return err == nil && ok
}

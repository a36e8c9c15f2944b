package harden

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArgResolver produces the arguments that can only be known at run time. It
// is evaluated once, right before the process is spawned.
type ArgResolver interface {
	Resolve(ctx context.Context) ([]string, error)
	String() string
}

// HomePathResolver resolves to a single path below the operator's home
// directory. Home overrides the lookup.
type HomePathResolver struct {
	Suffix string
	Home   string
}

func (r HomePathResolver) Resolve(ctx context.Context) ([]string, error) {
	home := r.Home
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
	}
	return []string{filepath.Join(home, r.Suffix)}, nil
}

func (r HomePathResolver) String() string {
	return "$HOME/" + r.Suffix
}

// CommandLinesResolver runs a read-only command and appends each non-empty
// line of its stdout as one argument.
type CommandLinesResolver struct {
	Probe   Prober
	Program string
	Args    []string
}

func (r CommandLinesResolver) Resolve(ctx context.Context) ([]string, error) {
	if r.Probe == nil {
		return nil, fmt.Errorf("no probe configured for %s", r.Program)
	}
	out, err := r.Probe.CommandOutput(ctx, r.Program, r.Args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (r CommandLinesResolver) String() string {
	return "lines of: " + strings.Join(append([]string{r.Program}, r.Args...), " ")
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

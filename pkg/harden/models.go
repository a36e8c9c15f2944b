package harden

import (
	"strconv"
	"strings"
	"time"
)

// ActionSpec is one subprocess invocation. It is built right before it runs
// and is not reused afterwards.
type ActionSpec struct {
	ID         string
	Summary    string
	Program    string
	FixedArgs  []string
	Resolver   ArgResolver
	NeedsInput bool
	// Notice marks explanatory no-op actions (already compliant, target not
	// found, not required on this platform).
	Notice bool
	// Step is the index of the rule step the action was planned from.
	Step int
}

// String renders the static part of the invocation; resolved arguments are
// shown as the resolver's description.
func (a ActionSpec) String() string {
	parts := []string{a.Program}
	for _, arg := range a.FixedArgs {
		if strings.ContainsAny(arg, "\r\n\t") {
			arg = strconv.Quote(arg)
		}
		parts = append(parts, arg)
	}
	if a.Resolver != nil {
		parts = append(parts, "<"+a.Resolver.String()+">")
	}
	return strings.Join(parts, " ")
}

type Result struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

type ExecutorConfig struct {
	// Timeout bounds a single action. Zero means no timeout.
	Timeout       time.Duration
	MaxOutputSize int64
	// Answer is the line written to stdin of actions with NeedsInput.
	Answer string
}

type PlannerConfig struct {
	// Elevation is prepended to every action whose command sets elevate.
	Elevation []string
	// Editor is the in-place substitution command; the expression and the
	// target path are appended.
	Editor []string
	// NoticeProgram prints the message of explanatory no-op actions.
	NoticeProgram string
}

type RunnerConfig struct {
	DryRun   bool
	FailFast bool
}

// Summary aggregates one Runner.Run call.
type Summary struct {
	RunID     string
	Rules     int
	Actions   int
	Corrected int
	Notices   int
	Failures  int
	Failed    []string
}

func (s Summary) OK() bool {
	return s.Failures == 0
}

package harden

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/macharden/macharden/internal/logger"
)

const DefaultAnswer = "yes"

type Executor interface {
	Run(ctx context.Context, spec ActionSpec) (*Result, error)
}

type DefaultExecutor struct {
	config ExecutorConfig
}

func NewDefaultExecutor(config ExecutorConfig) *DefaultExecutor {
	if config.MaxOutputSize == 0 {
		config.MaxOutputSize = 10 * 1024 * 1024
	}
	if config.Answer == "" {
		config.Answer = DefaultAnswer
	}
	return &DefaultExecutor{
		config: config,
	}
}

// Run spawns spec and waits for it. A non-zero exit returns both the captured
// Result and an execution_failed error carrying stderr.
func (e *DefaultExecutor) Run(ctx context.Context, spec ActionSpec) (*Result, error) {
	startTime := time.Now()

	args := make([]string, 0, len(spec.FixedArgs))
	args = append(args, spec.FixedArgs...)
	if spec.Resolver != nil {
		extra, err := spec.Resolver.Resolve(ctx)
		if err != nil {
			return nil, NewHardenError(ErrorTypeResolution, "argument resolution failed", spec.ID).
				WithContext("resolver", spec.Resolver.String()).
				Wrap(err)
		}
		args = append(args, extra...)
	}

	runCtx := ctx
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, spec.Program, args...)
	if e.config.Timeout > 0 {
		cmd.WaitDelay = time.Second
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	var stdin io.WriteCloser
	if spec.NeedsInput {
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, NewHardenError(ErrorTypeSpawn, "cannot open stdin pipe", spec.ID).Wrap(err)
		}
		stdin = pipe
	}

	logger.Debugf("spawning %s %s", spec.Program, strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		return nil, NewHardenError(ErrorTypeSpawn, "cannot start process", spec.ID).
			WithContext("program", spec.Program).
			Wrap(err)
	}

	var writeErr error
	if stdin != nil {
		writeErr = e.answer(stdin)
	}

	err := cmd.Wait()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(startTime),
	}

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, NewHardenError(ErrorTypeTimeout, "action timed out", spec.ID).
				WithContext("timeout", e.config.Timeout)
		}
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			result.ExitCode = exitError.ExitCode()
			execErr := NewHardenError(ErrorTypeExecution, "process exited with non-zero status", spec.ID).
				WithContext("exit_code", result.ExitCode)
			execErr.Stderr = result.Stderr
			return result, execErr
		}
		return nil, NewHardenError(ErrorTypeExecution, "waiting for process failed", spec.ID).Wrap(err)
	}

	if writeErr != nil {
		return result, NewHardenError(ErrorTypeExecution, "cannot write interactive answer", spec.ID).Wrap(writeErr)
	}

	// The process already ran to completion, so its result is kept.
	if int64(stdout.Len()+stderr.Len()) > e.config.MaxOutputSize {
		result.Stdout = truncate(result.Stdout, e.config.MaxOutputSize)
		result.Stderr = truncate(result.Stderr, e.config.MaxOutputSize)
		return result, NewHardenError(ErrorTypeExecution, "output size exceeds limit", spec.ID).
			WithContext("size", stdout.Len()+stderr.Len()).
			WithContext("limit", e.config.MaxOutputSize)
	}

	result.Success = true
	return result, nil
}

// answer writes the configured line and closes stdin. A child that exits
// without reading closes its end first; that broken pipe is not a failure.
func (e *DefaultExecutor) answer(stdin io.WriteCloser) error {
	line := strings.TrimRight(e.config.Answer, "\n") + "\n"
	_, err := io.WriteString(stdin, line)
	closeErr := stdin.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed)) {
		return nil
	}
	return err
}

func truncate(s string, limit int64) string {
	if int64(len(s)) > limit {
		return s[:limit]
	}
	return s
}

// Package runner executes local CLI tools with timeouts and bounded
// output capture. It backs the remote-CLI backend's terminus calls.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout covers remote drush invocations, which routinely
	// take tens of seconds on cold Pantheon environments.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxOutputBytes bounds captured stdout/stderr per stream.
	DefaultMaxOutputBytes = 4 << 20
)

// Command describes a single subprocess invocation.
type Command struct {
	Binary  string
	Args    []string
	Dir     string
	Env     []string
	Stdin   string
	Timeout time.Duration
}

// String renders the command for logs. It never includes stdin, which
// may carry credentials.
func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// Result captures the outcome of a completed subprocess.
type Result struct {
	ExitCode   int
	Stdout     string
	Stderr     string
	Duration   time.Duration
	Killed     bool
	KillReason string
	Truncated  bool
}

// Ok reports whether the process ran to completion with exit code 0.
func (r *Result) Ok() bool {
	return !r.Killed && r.ExitCode == 0
}

// Runner runs commands with shared defaults. Safe for concurrent use.
type Runner struct {
	defaultTimeout time.Duration
	maxOutputBytes int64
	logger         *zap.Logger
}

// New creates a runner with default limits. A nil logger disables logging.
func New(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		defaultTimeout: DefaultTimeout,
		maxOutputBytes: DefaultMaxOutputBytes,
		logger:         logger,
	}
}

// Run executes the command and waits for it to finish. A non-zero exit
// or a timeout is reported in the Result, not as an error; the error
// return is reserved for failures to run the process at all, such as a
// missing binary.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("binary is required")
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Args...)
	execCmd.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		execCmd.Env = cmd.Env
	}
	if cmd.Stdin != "" {
		execCmd.Stdin = strings.NewReader(cmd.Stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: r.maxOutputBytes}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: r.maxOutputBytes}
	execCmd.Stdout = stdoutLimited
	execCmd.Stderr = stderrLimited

	r.logger.Debug("running command",
		zap.String("command", cmd.String()),
		zap.Duration("timeout", timeout))

	started := time.Now()
	err := execCmd.Run()

	result := &Result{
		Stdout:    stdoutBuf.String(),
		Stderr:    stderrBuf.String(),
		Duration:  time.Since(started),
		Truncated: stdoutLimited.truncated || stderrLimited.truncated,
	}

	if err != nil {
		switch {
		case execCtx.Err() == context.DeadlineExceeded:
			result.Killed = true
			result.KillReason = fmt.Sprintf("timeout after %s", timeout)
			r.logger.Warn("command killed",
				zap.String("command", cmd.String()),
				zap.String("reason", result.KillReason))
		case execCtx.Err() == context.Canceled:
			result.Killed = true
			result.KillReason = "canceled"
		default:
			if exitErr, ok := err.(*exec.ExitError); ok {
				result.ExitCode = exitErr.ExitCode()
				r.logger.Debug("command exited non-zero",
					zap.String("command", cmd.String()),
					zap.Int("exit_code", result.ExitCode))
			} else {
				r.logger.Error("command failed to run",
					zap.String("command", cmd.String()),
					zap.Error(err))
				return nil, fmt.Errorf("run %s: %w", cmd.Binary, err)
			}
		}
	}

	r.logger.Debug("command finished",
		zap.String("command", cmd.String()),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration),
		zap.Int("stdout_bytes", len(result.Stdout)))

	return result, nil
}

// limitedWriter caps total bytes written, discarding the rest so a
// runaway process cannot exhaust memory.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		return n, nil
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}

// Package shell runs external commands (pm2, git, npm, netstat) with a
// deadline, captured and size-limited output, and structured logging.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultMaxOutput caps stdout and stderr independently.
const DefaultMaxOutput = 4 << 20

// WaitDelay bounds how long Run waits for output pipes after the command
// was killed.
const WaitDelay = 2 * time.Second

// ErrTimeout is returned when a command outlives its deadline.
var ErrTimeout = errors.New("command timed out")

// Command describes one invocation. Args are passed verbatim, never through
// a shell, so user input cannot inject extra commands.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Duration  time.Duration
	Truncated bool
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
}

// Runner executes commands. Services depend on this interface so tests can
// script command outcomes.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands on the host with os/exec.
type ExecRunner struct {
	logger         *zerolog.Logger
	defaultTimeout time.Duration
	maxOutput      int
}

// NewRunner builds an ExecRunner. defaultTimeout applies to commands that
// do not set their own.
func NewRunner(logger *zerolog.Logger, defaultTimeout time.Duration) *ExecRunner {
	return &ExecRunner{
		logger:         logger,
		defaultTimeout: defaultTimeout,
		maxOutput:      DefaultMaxOutput,
	}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Name == "" {
		return nil, errors.New("command name is required")
	}

	timeout := r.defaultTimeout
	if cmd.Timeout > 0 {
		timeout = cmd.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.WaitDelay = WaitDelay
	killTree(execCmd)

	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := &limitedWriter{w: &stdoutBuf, max: r.maxOutput}
	stderr := &limitedWriter{w: &stderrBuf, max: r.maxOutput}
	execCmd.Stdout = stdout
	execCmd.Stderr = stderr

	start := time.Now()
	err := execCmd.Run()

	result := &Result{
		Stdout:    stdoutBuf.String(),
		Stderr:    stderrBuf.String(),
		Duration:  time.Since(start),
		Truncated: stdout.truncated || stderr.truncated,
	}
	if execCmd.ProcessState != nil {
		result.ExitCode = execCmd.ProcessState.ExitCode()
	}

	logger := r.logger.With().
		Str("command", cmd.String()).
		Str("dir", cmd.Dir).
		Dur("duration", result.Duration).
		Int("exit_code", result.ExitCode).
		Logger()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Error().Dur("timeout", timeout).Msg("command timed out")
			return result, errors.Wrapf(ErrTimeout, "%s after %s", cmd.String(), timeout)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.Warn().Str("stderr", truncate(result.Stderr, 512)).Msg("command failed")
			return result, &ExitError{
				Command:  cmd.String(),
				ExitCode: result.ExitCode,
				Stderr:   result.Stderr,
			}
		}

		logger.Error().Err(err).Msg("command could not start")
		return result, errors.Wrapf(err, "run %s", cmd.Name)
	}

	logger.Debug().Msg("command finished")
	return result, nil
}

// Output returns the most useful diagnostic text of a failed command.
func Output(res *Result, err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && strings.TrimSpace(exitErr.Stderr) != "" {
		return strings.TrimSpace(exitErr.Stderr)
	}
	if res != nil {
		if s := strings.TrimSpace(res.Stderr); s != "" {
			return s
		}
		if s := strings.TrimSpace(res.Stdout); s != "" {
			return s
		}
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type limitedWriter struct {
	w         io.Writer
	max       int
	written   int
	truncated bool
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	remaining := l.max - l.written
	if remaining <= 0 {
		l.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		l.truncated = true
		n, err := l.w.Write(p[:remaining])
		l.written += n
		if err != nil {
			return n, err
		}
		return len(p), nil
	}
	n, err := l.w.Write(p)
	l.written += n
	return n, err
}

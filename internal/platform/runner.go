package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Command is a single native tool invocation.
type Command struct {
	Name  string
	Args  []string
	Stdin string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Output is what a finished invocation produced. A non-zero ExitCode is not
// an error at the Runner level; adapters decide what it means.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes native command-line tools.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Output, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) (Output, error)

// Run calls f(ctx, cmd).
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (Output, error) { return f(ctx, cmd) }

// ExecRunner runs commands as subprocesses with os/exec.
type ExecRunner struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewExecRunner returns a Runner that bounds every invocation by timeout
// (zero means only the caller's context applies).
func NewExecRunner(timeout time.Duration, logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{timeout: timeout, logger: logger.Named("exec")}
}

// Run starts cmd and waits for it. The returned error is non-nil only when
// the process could not be started or was aborted by ctx.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Output, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}

	start := time.Now()
	err := c.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	r.logger.Debug("Command finished",
		zap.String("cmd", cmd.String()),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))

	err = runError(ctx, cmd.Name, &out, err)
	return out, err
}

// runError classifies the error of a finished process. ctx is consulted only
// when the process failed, so a command that completed before the deadline
// stays a success.
func runError(ctx context.Context, name string, out *Output, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("running %s: %w", name, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return nil
	}
	return fmt.Errorf("running %s: %w", name, err)
}

// checkInvocation maps a finished mutation command onto the error taxonomy:
// a start failure, a non-zero exit or any diagnostic output is a failure.
func checkInvocation(op, key string, out Output, err error) error {
	if err != nil {
		return newError(op, key, ErrNativeInvocationFailed, "", err)
	}
	stderr := strings.TrimSpace(out.Stderr)
	if out.ExitCode != 0 {
		detail := stderr
		if detail == "" {
			detail = strings.TrimSpace(out.Stdout)
		}
		status := fmt.Sprintf("exit status %d", out.ExitCode)
		if detail != "" {
			status += ": " + detail
		}
		return newError(op, key, ErrNativeInvocationFailed, status, nil)
	}
	if stderr != "" {
		return newError(op, key, ErrNativeInvocationFailed, stderr, nil)
	}
	return nil
}

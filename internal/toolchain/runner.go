package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// stderrTailLimit caps the stderr kept on a CommandError.
const stderrTailLimit = 4 << 10

// Command describes a single external process invocation.
type Command struct {
	// Name is the executable name or path.
	Name string
	// Args are the command-line arguments.
	Args []string
	// Env is the complete environment; nil inherits the current process environment.
	Env []string
	// Dir is the working directory; empty means the current one.
	Dir string
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Name))

	for _, arg := range c.Args {
		parts = append(parts, quote(arg))
	}

	return strings.Join(parts, " ")
}

// Runner executes commands.
type Runner interface {
	// Output runs the command and returns its stdout.
	Output(ctx context.Context, cmd Command) ([]byte, error)
	// Run runs the command streaming its output.
	Run(ctx context.Context, cmd Command) error
}

// CommandError is returned when a command cannot start or exits unsuccessfully.
type CommandError struct {
	// Command is the failed invocation.
	Command Command
	// ExitCode is the process exit code, or -1 when the process did not start or was killed.
	ExitCode int
	// Stderr holds the tail of the standard error stream.
	Stderr string
	// Err is the underlying error.
	Err error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed", e.Command.String())
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}

	msg += ": " + e.Err.Error()

	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}

	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// stdout receives the output of Run.
	stdout io.Writer
	// stderr receives the error stream of every command.
	stderr io.Writer
	// timeout bounds each command; zero means no limit.
	timeout time.Duration
}

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithOutput sets the writers receiving command output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *ExecRunner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithTimeout bounds every command run by the runner.
func WithTimeout(timeout time.Duration) Option {
	return func(r *ExecRunner) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// NewExecRunner creates a runner that discards output unless configured otherwise.
func NewExecRunner(opts ...Option) *ExecRunner {
	r := &ExecRunner{
		stdout: io.Discard,
		stderr: io.Discard,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Output runs the command and returns its stdout.
func (r *ExecRunner) Output(ctx context.Context, cmd Command) ([]byte, error) {
	var stdout bytes.Buffer

	if err := r.exec(ctx, cmd, &stdout); err != nil {
		return nil, err
	}

	return stdout.Bytes(), nil
}

// Run runs the command streaming stdout to the configured writer.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	return r.exec(ctx, cmd, r.stdout)
}

func (r *ExecRunner) exec(ctx context.Context, cmd Command, stdout io.Writer) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stderr tailBuffer

	//nolint:gosec // Commands are composed from trusted configuration.
	execCmd := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	execCmd.Env = cmd.Env
	execCmd.Dir = cmd.Dir
	execCmd.Stdout = stdout
	execCmd.Stderr = io.MultiWriter(r.stderr, &stderr)

	err := execCmd.Run()
	if err == nil {
		return nil
	}

	cmdErr := &CommandError{
		Command:  cmd,
		ExitCode: -1,
		Stderr:   stderr.String(),
		Err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		cmdErr.Err = fmt.Errorf("%w: %w", ctxErr, err)
	}

	return cmdErr
}

// tailBuffer keeps the last stderrTailLimit bytes written to it.
type tailBuffer struct {
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if overflow := len(t.buf) - stderrTailLimit; overflow > 0 {
		t.buf = t.buf[overflow:]
	}

	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}

// quote renders an argument for bash-like shells; it is only used for display.
func quote(s string) string {
	if s == "" {
		return `""`
	}

	if strings.ContainsAny(s, "\t \n;<>\\${}()&!*'\"") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}

	return s
}

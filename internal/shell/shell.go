package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Command describes one program invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Output captures the result of a command.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Output, error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	// Stdout and Stderr receive the child's output as it runs. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes cmd and waits for it. A non-zero exit is reported as an error
// that still carries the captured output.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Output, error) {
	bin, err := exec.LookPath(cmd.Name)
	if err != nil {
		return nil, fmt.Errorf("%s is not installed or not on PATH: %w", cmd.Name, err)
	}

	c := exec.CommandContext(ctx, bin, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = os.Environ()

	var stdoutBuf, stderrBuf bytes.Buffer
	c.Stdout = tee(r.Stdout, &stdoutBuf)
	c.Stderr = tee(r.Stderr, &stderrBuf)

	log.Debug().Str("cmd", cmd.String()).Str("dir", cmd.Dir).Msg("running")
	err = c.Run()

	out := &Output{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, fmt.Errorf("%s exited with status %d: %s", cmd, out.ExitCode, lastLine(out.Stderr))
		}
		return out, fmt.Errorf("running %s: %w", cmd, err)
	}
	return out, nil
}

func tee(w io.Writer, buf *bytes.Buffer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(w, buf)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Available reports whether name resolves on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Recorder is a Runner that records commands instead of running them.
// Fail makes commands with a matching name return an error.
type Recorder struct {
	mu       sync.Mutex
	Commands []Command
	Fail     map[string]error
}

// Run implements Runner.
func (r *Recorder) Run(_ context.Context, cmd Command) (*Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = append(r.Commands, cmd)
	if err := r.Fail[cmd.Name]; err != nil {
		return &Output{ExitCode: 1}, err
	}
	return &Output{}, nil
}

// Names returns the recorded commands as strings.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.Commands))
	for i, c := range r.Commands {
		names[i] = c.String()
	}
	return names
}

package decrypt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// Process is a running decryptor.
//
// The child is reaped in the background, so a Process that is never waited on does not leak.
type Process struct {
	Invocation
	Output string

	cmd    *exec.Cmd
	stderr bytes.Buffer
	done   chan struct{}
	err    error
}

// start runs the decryptor. A nil stderr is captured for Wait, otherwise it is handed to the child as is.
func start(ctx context.Context, path string, inv *Invocation, output string, stdout, stderr io.Writer) (*Process, error) {
	p := &Process{
		Invocation: *inv,
		Output:     output,
		done:       make(chan struct{}),
	}

	p.cmd = exec.CommandContext(ctx, path, inv.Args...)
	p.cmd.Stdout = stdout // nil is the null device
	if stderr != nil {
		p.cmd.Stderr = stderr
	} else {
		p.cmd.Stderr = &p.stderr
	}

	if err := p.cmd.Start(); err != nil {
		if isNotFound(err) {
			return nil, &ToolNotFoundError{Tool: inv.Tool, Err: err}
		}
		return nil, err
	}

	go p.reap()

	return p, nil
}

func (p *Process) reap() {
	p.err = exitError(p.Tool, p.cmd.Wait(), p.stderr.String())
	close(p.done)
}

// Pid returns the process id of the decryptor
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed when the decryptor exits
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the decryptor exits and returns a *SubprocessError if it failed.
// It is safe to call Wait more than once.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

func exitError(tool string, err error, stderr string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &SubprocessError{
			Tool:     tool,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr,
			Err:      err,
		}
	}
	return &SubprocessError{Tool: tool, ExitCode: -1, Stderr: stderr, Err: err}
}

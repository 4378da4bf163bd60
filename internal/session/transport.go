package session

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// Transport carries wire lines between a session and its worker host.
type Transport interface {
	// Start establishes the connection and returns the host's output and
	// input streams.
	Start(ctx context.Context) (r io.Reader, w io.Writer, err error)
	// Terminate tears the connection down unconditionally, abandoning any
	// in-flight work. Not safe to call twice.
	Terminate() error
}

// WorkerTransport spawns the worker as a subprocess and speaks the wire
// protocol over its stdin/stdout. This is the production isolation
// boundary: a crash or hang in puzzle code is contained in the child.
type WorkerTransport struct {
	// Command is the worker executable; Args are passed verbatim.
	Command string
	Args    []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

// Start implements Transport.
func (t *WorkerTransport) Start(ctx context.Context) (io.Reader, io.Writer, error) {
	cmd := exec.CommandContext(ctx, t.Command, t.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("worker stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start worker: %w", err)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.stdout = stdout
	return stdout, stdin, nil
}

// Terminate implements Transport: closes stdin to let the worker exit on
// EOF, then kills it if it lingers.
func (t *WorkerTransport) Terminate() error {
	if t.cmd == nil {
		return nil
	}
	if t.stdin != nil {
		t.stdin.Close()
	}

	done := make(chan error, 1)
	go func() { done <- t.cmd.Wait() }()

	select {
	case <-done:
		return nil
	case <-time.After(500 * time.Millisecond):
	}

	if t.cmd.Process != nil {
		t.cmd.Process.Kill()
	}
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
	}
	return nil
}

// PipeTransport runs the host in-process over in-memory pipes. Tests use
// it to exercise the full wire protocol without a child process; it offers
// no crash isolation.
type PipeTransport struct {
	// Serve runs the host side over the given streams. Typically
	// (*host.Host).Serve bound to a registry.
	Serve func(ctx context.Context, r io.Reader, w io.Writer) error

	cancel context.CancelFunc
	done   chan struct{}

	clientR *io.PipeReader
	clientW *io.PipeWriter
	hostR   *io.PipeReader
	hostW   *io.PipeWriter
}

// Start implements Transport.
func (t *PipeTransport) Start(ctx context.Context) (io.Reader, io.Writer, error) {
	serveCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})

	t.hostR, t.clientW = io.Pipe()
	t.clientR, t.hostW = io.Pipe()

	go func() {
		defer close(t.done)
		_ = t.Serve(serveCtx, t.hostR, t.hostW)
		t.hostW.Close()
	}()

	return t.clientR, t.clientW, nil
}

// Terminate implements Transport.
func (t *PipeTransport) Terminate() error {
	t.clientW.Close()
	t.cancel()
	<-t.done
	t.clientR.Close()
	return nil
}

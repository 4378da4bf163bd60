package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/oxleaf/parlour/internal/wire"
)

// ErrSessionDeleted is returned by calls issued after Delete.
var ErrSessionDeleted = errors.New("session deleted")

// EngineError is a worker-level failure of a call: unknown method, missing
// game, undecodable params. Distinct from user-input validation errors,
// which are returned in-band as strings.
type EngineError struct {
	Method  string
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

// client is the session side of the wire protocol: it correlates requests
// with responses through a pending-call table and routes push messages to
// a handler.
type client struct {
	writer *wire.Writer
	idGen  wire.IDGenerator
	logger *slog.Logger

	// onPush runs on the read-loop goroutine, in arrival order, before any
	// response that follows the push is delivered. Installed before the
	// first request is sent, so no push can be missed.
	onPush func(*wire.Push)

	mu      sync.Mutex
	pending map[int64]chan *wire.Response
	closed  bool

	done chan struct{}
}

func newClient(w io.Writer, onPush func(*wire.Push), logger *slog.Logger) *client {
	return &client{
		writer:  wire.NewWriter(w),
		logger:  logger,
		onPush:  onPush,
		pending: make(map[int64]chan *wire.Response),
		done:    make(chan struct{}),
	}
}

// readLoop consumes host output until EOF or close. Must run on its own
// goroutine; it applies pushes synchronously so that state mirrors are
// current before the response to the triggering call resolves.
func (c *client) readLoop(r io.Reader) {
	reader := wire.NewReader(r)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.logger.Warn("worker read failed", "error", err)
			}
			c.close()
			return
		}

		msg, err := wire.Decode(line)
		if err != nil {
			c.logger.Warn("dropping undecodable worker line", "error", err)
			continue
		}
		switch {
		case msg.Push != nil:
			c.onPush(msg.Push)
		case msg.Response != nil:
			c.resolve(msg.Response)
		default:
			c.logger.Warn("unexpected request from worker")
		}
	}
}

func (c *client) resolve(resp *wire.Response) {
	c.mu.Lock()
	ch, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.mu.Unlock()
	if ok {
		ch <- resp
	}
}

// close abandons all pending calls. Safe to call more than once.
func (c *client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.pending = nil
	c.mu.Unlock()
	close(c.done)
}

// post sends one request without registering it for a response. Teardown
// uses it for exit: a wedged worker never answers, and nothing should wait
// on it.
func (c *client) post(method string) error {
	req, err := wire.NewRequest(c.idGen.Next(), method, nil)
	if err != nil {
		return err
	}
	return c.writer.Write(req)
}

// call sends one request and waits for its response, decoding the result
// into result (ignored when nil).
func (c *client) call(ctx context.Context, method string, params, result any) error {
	id := c.idGen.Next()
	req, err := wire.NewRequest(id, method, params)
	if err != nil {
		return err
	}

	ch := make(chan *wire.Response, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionDeleted
	}
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.writer.Write(req); err != nil {
		c.mu.Lock()
		if c.pending != nil {
			delete(c.pending, id)
		}
		c.mu.Unlock()
		return fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return &EngineError{Method: method, Message: resp.Error}
		}
		if result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("decode %s result: %w", method, err)
			}
		}
		return nil
	case <-c.done:
		return ErrSessionDeleted
	case <-ctx.Done():
		c.mu.Lock()
		if c.pending != nil {
			delete(c.pending, id)
		}
		c.mu.Unlock()
		return ctx.Err()
	}
}

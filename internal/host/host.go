package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/oxleaf/parlour/internal/puzzle"
	"github.com/oxleaf/parlour/internal/wire"
)

// errExit stops the serve loop after an exit request.
var errExit = errors.New("exit requested")

// Host serves one backend over a line transport.
type Host struct {
	registry *puzzle.Registry
	logger   *slog.Logger

	out *wire.Writer

	backend puzzle.Backend
	meta    puzzle.Meta

	// Pushes raised before the create response is written.
	created  bool
	buffered []*wire.Push
	// Hook invocations raised while the backend factory is running.
	pendingHooks []func()

	drawMu sync.Mutex
	drawer puzzle.Drawer

	timer *timerLoop
	// ticks delivers timer tick deltas (seconds) into the serve loop.
	ticks chan float64
}

// New creates a host that resolves puzzle ids against registry.
func New(registry *puzzle.Registry, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Host{
		registry: registry,
		logger:   logger,
		ticks:    make(chan float64, 1),
	}
	h.timer = newTimerLoop(h.ticks)
	return h
}

// SetDrawer attaches a drawing target. Any previously attached target is
// released first; the host never holds two targets at once.
func (h *Host) SetDrawer(d puzzle.Drawer) {
	h.drawMu.Lock()
	defer h.drawMu.Unlock()
	if h.drawer != nil {
		h.drawer.Release()
	}
	h.drawer = d
}

// Serve runs the host event loop over r/w until the stream ends, the
// context is canceled, or an exit request arrives.
func (h *Host) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	h.out = wire.NewWriter(w)
	defer h.shutdown()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	// stop releases the reader goroutine when the loop returns for a reason
	// the reader cannot see, such as an exit request.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		reader := wire.NewReader(r)
		for {
			line, err := reader.ReadLine()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-stop:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("host read: %w", err)
		case dt := <-h.ticks:
			if h.backend != nil {
				h.backend.Tick(dt)
			}
		case line := <-lines:
			if err := h.handleLine(line); err != nil {
				if errors.Is(err, errExit) {
					return nil
				}
				return err
			}
		}
	}
}

func (h *Host) shutdown() {
	h.timer.stop()
	h.drawMu.Lock()
	if h.drawer != nil {
		h.drawer.Release()
		h.drawer = nil
	}
	h.drawMu.Unlock()
}

func (h *Host) handleLine(line []byte) error {
	msg, err := wire.Decode(line)
	if err != nil {
		h.logger.Warn("dropping undecodable line", "error", err)
		return nil
	}
	if msg.Request == nil {
		h.logger.Warn("dropping non-request message")
		return nil
	}
	return h.handleRequest(msg.Request)
}

// hooks returns the callback set installed into the backend at creation.
// Hooks fire synchronously inside backend calls, which all run on the
// serve goroutine, so pushing from here keeps wire order equal to raise
// order.
func (h *Host) hooks() puzzle.Hooks {
	return puzzle.Hooks{
		ParamsChanged: func() {
			h.deferrable(func() {
				h.notify(puzzle.NewParamsChange(h.backend.Params()))
			})
		},
		GameIDChanged: func() {
			h.deferrable(func() {
				h.notify(puzzle.NewGameIDChange(h.backend.GameID(), h.backend.Seed()))
			})
		},
		StatusBar: func(text string) {
			h.notify(puzzle.NewStatusBarChange(text))
		},
		ActivateTimer: func() {
			h.push(&wire.Push{Method: wire.MethodTimerActive})
			h.timer.start()
		},
		DeactivateTimer: func() {
			h.timer.stop()
			h.push(&wire.Push{Method: wire.MethodTimerInactive})
		},
	}
}

// deferrable runs fn now, unless the backend factory is still executing —
// hooks raised mid-construction need backend getters that only become
// reachable once the factory returns, so they are queued and replayed, in
// order, immediately after h.backend is assigned.
func (h *Host) deferrable(fn func()) {
	if h.backend == nil {
		h.pendingHooks = append(h.pendingHooks, fn)
		return
	}
	fn()
}

// notify pushes a change notification, buffering pre-create.
func (h *Host) notify(n puzzle.Note) {
	push, err := wire.NewPush(wire.MethodNotify, n)
	if err != nil {
		h.logger.Error("encode notification", "error", err)
		return
	}
	h.push(push)
}

func (h *Host) push(p *wire.Push) {
	if !h.created {
		h.buffered = append(h.buffered, p)
		return
	}
	if err := h.out.Write(p); err != nil {
		h.logger.Warn("push failed", "method", p.Method, "error", err)
	}
}

// notifyGameState publishes the current move/status mirror fields.
func (h *Host) notifyGameState() {
	cur, total := h.backend.MoveCounts()
	h.notify(puzzle.NewGameStateChange(
		puzzle.StatusFromValue(h.backend.StatusValue()),
		cur, total,
		h.backend.CanUndo(), h.backend.CanRedo(),
	))
}

func (h *Host) respond(id int64, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode response %d: %w", id, err)
	}
	return h.out.Write(&wire.Response{ID: id, Result: raw})
}

func (h *Host) respondErr(id int64, msg string) error {
	return h.out.Write(&wire.Response{ID: id, Error: msg})
}

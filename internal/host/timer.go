package host

import (
	"sync"
	"time"
)

// tickInterval approximates the animation-frame cadence of the original
// frontend.
const tickInterval = 20 * time.Millisecond

// timerLoop drives backend ticks while the backend has its timer active.
// It free-runs on its own goroutine and reports the wall-clock delta
// between ticks; delivery is funneled through the host's event loop so the
// backend itself never sees a concurrent call.
type timerLoop struct {
	out chan<- float64

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool
}

func newTimerLoop(out chan<- float64) *timerLoop {
	return &timerLoop{out: out}
}

func (t *timerLoop) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.stopCh = make(chan struct{})
	go t.run(t.stopCh)
}

func (t *timerLoop) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	close(t.stopCh)
}

func (t *timerLoop) run(stop <-chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			select {
			case t.out <- dt:
			case <-stop:
				return
			default:
				// Event loop busy with a request; drop the tick rather
				// than stall the timer goroutine.
			}
		}
	}
}

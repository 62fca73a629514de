package canvas

import (
	"sync"
	"sync/atomic"

	"github.com/simaogato/flowviz/internal/domain"
)

// Layer is the shared drawing surface. Components mutate their own state and
// then call BatchDraw; subscribers repaint from a fresh snapshot.
type Layer struct {
	stage   domain.Stage
	version atomic.Uint64

	mu     sync.Mutex
	nextID int
	subs   map[int]chan uint64
}

// NewLayer creates a layer for a stage of the given size
func NewLayer(stage domain.Stage) *Layer {
	return &Layer{
		stage: stage,
		subs:  make(map[int]chan uint64),
	}
}

// Stage returns the fixed stage size
func (l *Layer) Stage() domain.Stage {
	return l.stage
}

// Version returns the number of redraws requested so far
func (l *Layer) Version() uint64 {
	return l.version.Load()
}

// BatchDraw requests a redraw. Notifications are coalesced: a slow
// subscriber only ever sees the latest version.
func (l *Layer) BatchDraw() {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := l.version.Add(1)
	for _, ch := range l.subs {
		select {
		case ch <- v:
		default:
			// drop the stale pending version and replace it
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// Subscribe returns a channel receiving redraw versions and a func to
// unsubscribe. The channel is closed on unsubscribe.
func (l *Layer) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscriptions
func (l *Layer) Subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

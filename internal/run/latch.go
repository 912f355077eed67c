package run

import (
	"sync"

	"github.com/pavelanni/prquiz/internal/model"
)

// Latch holds the single outcome of a run. The first Resolve wins and
// every later call is ignored.
type Latch struct {
	once    sync.Once
	done    chan struct{}
	outcome model.Outcome
}

func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Resolve records o if no outcome exists yet and reports whether it did.
func (l *Latch) Resolve(o model.Outcome) bool {
	won := false
	l.once.Do(func() {
		l.outcome = o
		won = true
		close(l.done)
	})
	return won
}

// Done is closed once an outcome is recorded.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

// Outcome returns the recorded outcome and whether there is one.
func (l *Latch) Outcome() (model.Outcome, bool) {
	select {
	case <-l.done:
		return l.outcome, true
	default:
		return model.Outcome{}, false
	}
}

// Passed resolves with a pass; it lets the latch act as the quiz notifier.
func (l *Latch) Passed(attempts int) {
	l.Resolve(model.Passed(attempts))
}

// Failed resolves with a fail.
func (l *Latch) Failed(attempts int) {
	l.Resolve(model.Failed(attempts))
}

// Package run drives one quiz from server start to a reported outcome.
package run

import (
	"context"
	"log/slog"
	"time"

	"github.com/pavelanni/prquiz/internal/model"
)

// DefaultGrace is how long the result page stays reachable after an outcome.
const DefaultGrace = time.Second

// Server is the quiz server as seen by the coordinator.
type Server interface {
	Start(ctx context.Context) error
	URL() string
	Shutdown() error
}

// Reporter tells the calling pipeline what happened.
type Reporter interface {
	Ready(url string)
	Outcome(o model.Outcome)
}

// Coordinator races the quiz against a deadline.
type Coordinator struct {
	server    Server
	latch     *Latch
	reporter  Reporter
	timeLimit time.Duration
	grace     time.Duration
}

// NewCoordinator creates a Coordinator. The latch must be the notifier the
// server's handler reports to.
func NewCoordinator(s Server, l *Latch, r Reporter, timeLimit time.Duration) *Coordinator {
	return &Coordinator{
		server:    s,
		latch:     l,
		reporter:  r,
		timeLimit: timeLimit,
		grace:     DefaultGrace,
	}
}

// WithGrace overrides DefaultGrace.
func (c *Coordinator) WithGrace(d time.Duration) *Coordinator {
	c.grace = d
	return c
}

// Run starts the server and blocks until the quiz is passed, failed or
// timed out, or ctx is cancelled. The server is always shut down before
// Run returns.
func (c *Coordinator) Run(ctx context.Context) (model.Outcome, error) {
	if err := c.server.Start(ctx); err != nil {
		return model.Outcome{}, err
	}

	url := c.server.URL()
	slog.Info("quiz server started", "url", url, "time_limit", c.timeLimit)
	c.reporter.Ready(url)

	deadline := time.AfterFunc(c.timeLimit, func() {
		if c.latch.Resolve(model.TimedOut()) {
			slog.Warn("quiz time limit reached", "time_limit", c.timeLimit)
		}
	})
	defer deadline.Stop()

	select {
	case <-c.latch.Done():
	case <-ctx.Done():
		deadline.Stop()
		if err := c.server.Shutdown(); err != nil {
			slog.Warn("server shutdown", "error", err)
		}
		return model.Outcome{}, ctx.Err()
	}
	deadline.Stop()

	outcome, _ := c.latch.Outcome()
	slog.Info("quiz finished", "outcome", outcome.Kind, "attempts", outcome.Attempts)

	// Grace only lets a reviewer's own result page finish rendering; a
	// timeout has no such page in flight, so shutdown is immediate.
	if outcome.Kind != model.OutcomeTimedOut && c.grace > 0 {
		select {
		case <-time.After(c.grace):
		case <-ctx.Done():
		}
	}
	if err := c.server.Shutdown(); err != nil {
		slog.Warn("server shutdown", "error", err)
	}

	c.reporter.Outcome(outcome)
	return outcome, nil
}

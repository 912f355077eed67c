package model

import (
	"context"
	"time"
)

// OutcomeKind is the terminal result of a run.
type OutcomeKind string

const (
	OutcomePassed   OutcomeKind = "passed"
	OutcomeFailed   OutcomeKind = "failed"
	OutcomeTimedOut OutcomeKind = "timed_out"
)

// Outcome is produced exactly once per run.
type Outcome struct {
	Kind     OutcomeKind
	Attempts int
}

// Passed reports whether the reviewer passed the quiz.
func (o Outcome) Passed() bool {
	return o.Kind == OutcomePassed
}

// Passed returns a pass outcome after the given number of attempts.
func Passed(attempts int) Outcome {
	return Outcome{Kind: OutcomePassed, Attempts: attempts}
}

// Failed returns a fail outcome after the given number of attempts.
func Failed(attempts int) Outcome {
	return Outcome{Kind: OutcomeFailed, Attempts: attempts}
}

// TimedOut returns the deadline outcome.
func TimedOut() Outcome {
	return Outcome{Kind: OutcomeTimedOut}
}

// RunSummary is the machine-readable record of one run, written to the
// job outputs.
type RunSummary struct {
	RunID       string           `json:"run_id"`
	PullRequest string           `json:"pull_request"`
	Outcome     OutcomeKind      `json:"outcome"`
	Attempts    int              `json:"attempts"`
	Questions   int              `json:"questions"`
	Submissions int              `json:"submissions"`
	Elapsed     time.Duration    `json:"elapsed_ns"`
	Sessions    []SessionSummary `json:"sessions,omitempty"`
}

// SessionSummary is one reviewer session's share of a run.
type SessionSummary struct {
	Session  string `json:"session"`
	Attempts int    `json:"attempts"`
	Result   string `json:"result"`
}

type tokenCtxKey struct{}

// ContextWithSessionToken stores the quiz session token in the request context.
func ContextWithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// SessionTokenFromContext retrieves the session token, or "" if unset.
func SessionTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenCtxKey{}).(string)
	return t
}

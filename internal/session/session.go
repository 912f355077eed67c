// Package session tracks one reviewer's progress through a quiz.
package session

import (
	"maps"
	"math"
	"strconv"
	"time"

	"github.com/pavelanni/prquiz/internal/quiz"
)

// Unlimited is returned by Remaining when there is no attempt cap.
const Unlimited = math.MaxInt

// State is the lifecycle position of a session.
type State string

const (
	StateUnstarted  State = "unstarted"
	StateInProgress State = "in_progress"
	StatePassed     State = "passed"
	StateFailed     State = "failed"
)

// Terminal reports whether no further submissions are graded.
func (s State) Terminal() bool {
	return s == StatePassed || s == StateFailed
}

// Result is the outcome of grading one submission.
type Result int

const (
	ResultRetry Result = iota
	ResultPass
	ResultFail
)

func (r Result) String() string {
	switch r {
	case ResultPass:
		return "pass"
	case ResultFail:
		return "fail"
	default:
		return "retry"
	}
}

// Session is the grading state bound to one browser cookie.
type Session struct {
	Token       string
	Attempts    int
	LastAnswers map[string]string
	MaxAttempts int // 0 or less means unlimited
	State       State
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// New returns an unstarted session.
func New(token string, maxAttempts int, now time.Time, ttl time.Duration) *Session {
	return &Session{
		Token:       token,
		MaxAttempts: maxAttempts,
		State:       StateUnstarted,
		LastAnswers: map[string]string{},
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// RecordAnswers stores a copy of answers and counts the attempt.
func (s *Session) RecordAnswers(answers map[string]string) {
	s.LastAnswers = maps.Clone(answers)
	if s.LastAnswers == nil {
		s.LastAnswers = map[string]string{}
	}
	s.Attempts++
	s.State = StateInProgress
}

// Grade reports whether the last recorded answers match every question.
// Answers are keyed by the zero-based question index.
func (s *Session) Grade(q *quiz.Quiz) Result {
	if Correct(s.LastAnswers, q) {
		return ResultPass
	}
	return ResultRetry
}

// Correct reports whether answers matches the quiz key exactly.
func Correct(answers map[string]string, q *quiz.Quiz) bool {
	for i, question := range q.Questions {
		if answers[strconv.Itoa(i)] != string(question.Answer) {
			return false
		}
	}
	return true
}

// Remaining returns the attempts left, or Unlimited.
func (s *Session) Remaining() int {
	if s.MaxAttempts <= 0 {
		return Unlimited
	}
	return s.MaxAttempts - s.Attempts
}

// Submit records and grades answers, then moves the session to its next
// state. A session already in a terminal state is left unchanged and its
// final result is returned again.
func (s *Session) Submit(answers map[string]string, q *quiz.Quiz) Result {
	switch s.State {
	case StatePassed:
		return ResultPass
	case StateFailed:
		return ResultFail
	}

	s.RecordAnswers(answers)
	if s.Grade(q) == ResultPass {
		s.State = StatePassed
		return ResultPass
	}
	if s.Remaining() <= 0 {
		s.State = StateFailed
		return ResultFail
	}
	return ResultRetry
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/prquiz/internal/session"
)

// Submission is one graded form post.
type Submission struct {
	ID        int64
	Token     string
	Attempt   int
	Result    string
	Answers   map[string]string
	CreatedAt time.Time
}

// AddSubmission logs a graded attempt for sess.
func (s *Store) AddSubmission(sess *session.Session, result session.Result) (int64, error) {
	answers, err := json.Marshal(sess.LastAnswers)
	if err != nil {
		return 0, fmt.Errorf("encode answers: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO submissions (token, attempt, result, answers, created_at) VALUES (?, ?, ?, ?, ?)`,
		sess.Token, sess.Attempts, result.String(), string(answers), s.now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSubmissions returns every submission of the run in the order they
// were graded.
func (s *Store) ListSubmissions() ([]Submission, error) {
	rows, err := s.db.Query(
		`SELECT id, token, attempt, result, answers, created_at FROM submissions ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []Submission
	for rows.Next() {
		var (
			sub     Submission
			answers string
		)
		if err := rows.Scan(&sub.ID, &sub.Token, &sub.Attempt, &sub.Result, &answers, &sub.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// SubmissionCount returns the number of graded submissions across all
// sessions.
func (s *Store) SubmissionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM submissions`).Scan(&count)
	return count, err
}

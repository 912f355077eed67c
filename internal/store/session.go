package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/prquiz/internal/session"
)

// SessionTTL bounds how long a quiz cookie stays valid.
const SessionTTL = 24 * time.Hour

// CreateSession stores a fresh unstarted session under a random token.
func (s *Store) CreateSession(maxAttempts int) (*session.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	sess := session.New(token, maxAttempts, s.now(), SessionTTL)
	_, err = s.db.Exec(
		`INSERT INTO quiz_sessions (token, attempts, max_attempts, state, last_answers, created_at, expires_at)
		 VALUES (?, ?, ?, ?, '{}', ?, ?)`,
		sess.Token, sess.Attempts, sess.MaxAttempts, sess.State, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// GetSession returns the session for token, or nil if not found/expired.
func (s *Store) GetSession(token string) (*session.Session, error) {
	var (
		sess    session.Session
		answers string
	)
	err := s.db.QueryRow(
		`SELECT token, attempts, max_attempts, state, last_answers, created_at, expires_at
		 FROM quiz_sessions WHERE token = ?`, token,
	).Scan(&sess.Token, &sess.Attempts, &sess.MaxAttempts, &sess.State, &answers, &sess.CreatedAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		_ = s.DeleteSession(token)
		return nil, nil
	}
	if err := json.Unmarshal([]byte(answers), &sess.LastAnswers); err != nil {
		return nil, fmt.Errorf("decode answers for session: %w", err)
	}
	return &sess, nil
}

// SaveSession writes the mutable fields of sess back.
func (s *Store) SaveSession(sess *session.Session) error {
	answers, err := json.Marshal(sess.LastAnswers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE quiz_sessions SET attempts = ?, state = ?, last_answers = ? WHERE token = ?`,
		sess.Attempts, sess.State, string(answers), sess.Token,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("save session %.8s: %w", sess.Token, sql.ErrNoRows)
	}
	return nil
}

// DeleteSession removes a session and its submissions.
func (s *Store) DeleteSession(token string) error {
	if _, err := s.db.Exec(`DELETE FROM submissions WHERE token = ?`, token); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM quiz_sessions WHERE token = ?`, token)
	return err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

package run

import (
	"github.com/pavelanni/prquiz/internal/model"
	"github.com/pavelanni/prquiz/internal/store"
)

// sessionIDLen is how much of a session token the summary shows.
const sessionIDLen = 8

// SummarizeSessions folds the submission log into one row per session,
// in the order sessions first submitted. Each row carries the highest
// attempt and the latest result.
func SummarizeSessions(subs []store.Submission) []model.SessionSummary {
	var out []model.SessionSummary
	index := make(map[string]int)
	for _, sub := range subs {
		i, ok := index[sub.Token]
		if !ok {
			i = len(out)
			index[sub.Token] = i
			out = append(out, model.SessionSummary{Session: shortID(sub.Token)})
		}
		if sub.Attempt > out[i].Attempts {
			out[i].Attempts = sub.Attempt
		}
		out[i].Result = sub.Result
	}
	return out
}

func shortID(token string) string {
	if len(token) > sessionIDLen {
		return token[:sessionIDLen]
	}
	return token
}

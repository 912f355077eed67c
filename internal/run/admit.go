package run

import (
	"errors"
	"fmt"

	"github.com/pavelanni/prquiz/internal/pullrequest"
)

// ErrBelowThreshold means the pull request is too small to quiz on.
var ErrBelowThreshold = errors.New("pull request below lines-changed threshold")

// Admit checks that snap changes at least threshold lines.
func Admit(snap *pullrequest.Snapshot, threshold int) error {
	if lines := snap.LinesChanged(); lines < threshold {
		return fmt.Errorf("%w: %d < %d", ErrBelowThreshold, lines, threshold)
	}
	return nil
}

package tunnel

import (
	"context"
	"errors"
	"testing"
)

func TestNgrokRequiresAuthtoken(t *testing.T) {
	_, err := Ngrok{}.Open(context.Background())
	if !errors.Is(err, ErrNoAuthtoken) {
		t.Fatalf("expected ErrNoAuthtoken, got %v", err)
	}
}

func TestNgrokSatisfiesOpener(t *testing.T) {
	var _ Opener = Ngrok{}
}

package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"pubcheck/internal/check"
)

// Stdout prints messages instead of sending them.
type Stdout struct {
	mu sync.Mutex
	w  io.Writer
}

func NewStdout(w io.Writer) *Stdout { return &Stdout{w: w} }

func (s *Stdout) Send(ctx context.Context, msg check.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "Subject: %s\n\n%s\n", msg.Subject, msg.Body); err != nil {
		return "", fmt.Errorf("stdout: %w", err)
	}
	return "dry-run-" + uuid.NewString(), nil
}

var _ check.Mailer = (*Stdout)(nil)

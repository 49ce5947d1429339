package llm

import (
	"context"
	"fmt"
	"sync"
)

// Reply is one canned answer of a Scripted completer.
type Reply struct {
	Text string
	Err  error
}

// Scripted replays canned replies in order and records the prompts it was
// given. Once the script is exhausted every call fails with ErrUnavailable.
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string
}

// NewScripted creates a completer that returns texts in order.
func NewScripted(texts ...string) *Scripted {
	s := &Scripted{}
	for _, t := range texts {
		s.replies = append(s.replies, Reply{Text: t})
	}
	return s
}

// Then appends a reply.
func (s *Scripted) Then(r Reply) *Scripted {
	s.mu.Lock()
	s.replies = append(s.replies, r)
	s.mu.Unlock()
	return s
}

func (s *Scripted) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.replies) == 0 {
		return "", fmt.Errorf("%w: script exhausted", ErrUnavailable)
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.Text, r.Err
}

// Prompts returns every prompt received so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Calls returns the number of Complete calls.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

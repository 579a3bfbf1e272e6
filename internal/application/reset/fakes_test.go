package reset

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ---- Fake Sender ----

type fakeSender struct {
	mu sync.Mutex

	calls int
	last  Message

	// scripted result
	nextID string
	err    error
}

func (s *fakeSender) Send(ctx context.Context, msg Message) (SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.last = msg
	if s.err != nil {
		return SendResult{}, s.err
	}
	id := s.nextID
	if id == "" {
		id = fmt.Sprintf("msg-%d", s.calls)
	}
	return SendResult{MessageID: id}, nil
}

func (s *fakeSender) Name() string { return "fake" }

func (s *fakeSender) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeSender) Last() Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *fakeSender) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// helper error for tests
var errBoom = errors.New("Email address is not verified. The following identities failed the check in region US-EAST-1: no-reply@example.com")

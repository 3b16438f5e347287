// Package session implements the research request lifecycle:
// Idle -> Loading -> (Success | Failure), and back to Loading on the next
// submission.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var (
	// ErrTopicRequired is returned when the topic is blank after trimming.
	ErrTopicRequired = errors.New("topic is required")
	// ErrInFlight is returned when a submission arrives while a request is loading.
	ErrInFlight = errors.New("a research request is already in flight")
)

// Sender performs one research request. *research.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, topic, format string) (string, error)
}

// Ticket identifies a request started by Begin.
type Ticket struct {
	Seq    uint64
	Topic  string
	Format string
}

// Session owns the research state for one UI session.
type Session struct {
	sender Sender
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	seq      uint64
	onChange func(State)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// OnChange registers a listener called after every transition, outside the lock.
func OnChange(fn func(State)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

func New(sender Sender, opts ...Option) *Session {
	s := &Session{
		sender: sender,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:  Idle{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Phase() Phase {
	return s.State().Phase()
}

// Result returns the result text when the session is in Success.
func (s *Session) Result() (string, bool) {
	if st, ok := s.State().(Success); ok {
		return st.Result, true
	}
	return "", false
}

// ErrorMessage returns the failure message when the session is in Failure.
func (s *Session) ErrorMessage() (string, bool) {
	if st, ok := s.State().(Failure); ok {
		return st.Message, true
	}
	return "", false
}

// Begin moves the session to Loading and returns the ticket the outcome must
// be completed with. It does not call the sender. A blank topic or a request
// already in flight leaves the state untouched.
func (s *Session) Begin(topic, format string) (Ticket, error) {
	if strings.TrimSpace(topic) == "" {
		return Ticket{}, ErrTopicRequired
	}

	s.mu.Lock()
	if _, loading := s.state.(Loading); loading {
		s.mu.Unlock()
		return Ticket{}, ErrInFlight
	}
	s.seq++
	t := Ticket{Seq: s.seq, Topic: topic, Format: format}
	s.state = Loading{Topic: topic, Format: format, Seq: t.Seq}
	st := s.state
	s.mu.Unlock()

	s.logger.Debug("Research submitted", "seq", t.Seq, "topic", topic, "format", format)
	s.notify(st)
	return t, nil
}

// Complete applies the outcome of the request identified by seq. Outcomes for
// any request other than the one currently loading are dropped and Complete
// reports false.
func (s *Session) Complete(seq uint64, result string, err error) bool {
	s.mu.Lock()
	loading, ok := s.state.(Loading)
	if !ok || loading.Seq != seq {
		s.mu.Unlock()
		s.logger.Debug("Discarding stale research response", "seq", seq)
		return false
	}
	if err != nil {
		s.state = Failure{Message: err.Error()}
	} else {
		s.state = Success{Result: result}
	}
	st := s.state
	s.mu.Unlock()

	if err != nil {
		s.logger.Info("Research failed", "seq", seq, "error", err)
	} else {
		s.logger.Info("Research succeeded", "seq", seq, "size", len(result))
	}
	s.notify(st)
	return true
}

// Submit runs a full request cycle: Begin, call the sender, Complete. It
// blocks until the sender returns and reports the resulting state.
func (s *Session) Submit(ctx context.Context, topic, format string) (State, error) {
	t, err := s.Begin(topic, format)
	if err != nil {
		return s.State(), err
	}

	result, sendErr := s.sender.Send(ctx, t.Topic, t.Format)
	s.Complete(t.Seq, result, sendErr)
	return s.State(), nil
}

// Run calls the sender for a ticket obtained from Begin. It is meant to be
// executed off the UI loop; the caller passes the outcome to Complete.
func (s *Session) Run(ctx context.Context, t Ticket) (string, error) {
	return s.sender.Send(ctx, t.Topic, t.Format)
}

func (s *Session) notify(st State) {
	if s.onChange != nil {
		s.onChange(st)
	}
}

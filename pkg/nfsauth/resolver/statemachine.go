package resolver

import "fmt"

// State is one node of the per-peer mount state machine (spec §4.G):
//
//	none -> connected -> authorized -> resolving -> mounted -> unmounted
//
// Failure edges: a connect error returns to none; an authorizer denial
// replies to the client and returns to none; a resolver walk failure
// replies to the client but leaves the peer authorized (it may retry
// resolution without re-authorizing); a normal unmount or a revocation
// discovered by revalidation both land on the terminal unmounted state.
type State int

const (
	StateNone State = iota
	StateConnected
	StateAuthorized
	StateResolving
	StateMounted
	StateUnmounted
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateConnected:
		return "connected"
	case StateAuthorized:
		return "authorized"
	case StateResolving:
		return "resolving"
	case StateMounted:
		return "mounted"
	case StateUnmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of the machine's two terminal
// states, none and unmounted. Connect still moves a session out of none.
func (s State) Terminal() bool {
	return s == StateNone || s == StateUnmounted
}

// Session tracks one peer's progress through the mount state machine.
// It holds no I/O of its own; its owner calls the transition methods.
// ResolveMount does not create or update a Session.
type Session struct {
	state State
}

// NewSession starts a session in StateNone.
func NewSession() *Session { return &Session{state: StateNone} }

// State returns the session's current state.
func (s *Session) State() State { return s.state }

// Connect transitions none -> connected. A transport-layer connect
// error keeps (or returns) the session to none.
func (s *Session) Connect(ok bool) {
	if ok {
		s.state = StateConnected
	} else {
		s.state = StateNone
	}
}

// Authorize transitions connected -> authorized on success, or
// connected -> none on an authorizer denial (the reply is the caller's
// responsibility; this only tracks the resulting state).
func (s *Session) Authorize(ok bool) {
	if ok {
		s.state = StateAuthorized
	} else {
		s.state = StateNone
	}
}

// BeginResolve transitions authorized -> resolving.
func (s *Session) BeginResolve() error {
	if s.state != StateAuthorized {
		return fmt.Errorf("resolver: cannot begin resolve from state %s", s.state)
	}
	s.state = StateResolving
	return nil
}

// ResolveSucceeded transitions resolving -> mounted.
func (s *Session) ResolveSucceeded() error {
	if s.state != StateResolving {
		return fmt.Errorf("resolver: cannot complete resolve from state %s", s.state)
	}
	s.state = StateMounted
	return nil
}

// ResolveFailed transitions resolving -> authorized: the walk failed
// (e.g. ESTALE after its one retry, ENOENT on a missing component) but
// the peer's authorization to mount still stands, so a later request
// can retry the walk without re-authorizing.
func (s *Session) ResolveFailed() error {
	if s.state != StateResolving {
		return fmt.Errorf("resolver: cannot fail resolve from state %s", s.state)
	}
	s.state = StateAuthorized
	return nil
}

// Unmount transitions mounted -> unmounted on an explicit client
// unmount request.
func (s *Session) Unmount() error {
	if s.state != StateMounted {
		return fmt.Errorf("resolver: cannot unmount from state %s", s.state)
	}
	s.state = StateUnmounted
	return nil
}

// Revoke forces the session straight to unmounted regardless of its
// current state — used when the periodic revalidation task finds the
// peer no longer authorized (spec §4.G "revocation via revalidation").
func (s *Session) Revoke() {
	s.state = StateUnmounted
}

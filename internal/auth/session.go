package auth

import "github.com/dmitrijs2005/gophaccounts/internal/models"

// State is the position of a Session in the login state machine.
type State int

const (
	Anonymous State = iota
	// PrimaryAuthenticated is held only while Login decides whether a second
	// factor is needed; callers never observe it on a returned session.
	PrimaryAuthenticated
	AwaitingSecondFactor
	FullyAuthenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case PrimaryAuthenticated:
		return "primary-authenticated"
	case AwaitingSecondFactor:
		return "awaiting-second-factor"
	case FullyAuthenticated:
		return "fully-authenticated"
	}
	return "unknown"
}

// Session tracks one caller's authentication progress. It replaces any
// process-wide notion of a current user: every operation that needs an
// identity takes the session explicitly. A Session is not safe for
// concurrent use.
type Session struct {
	state     State
	principal *models.Principal
}

// NewSession returns an anonymous session.
func NewSession() *Session {
	return &Session{}
}

func (s *Session) State() State {
	if s == nil {
		return Anonymous
	}
	return s.state
}

// Authenticated reports whether both factors (where enabled) are satisfied.
func (s *Session) Authenticated() bool {
	return s.State() == FullyAuthenticated
}

// Principal returns a copy of the principal bound to the session, or nil for
// an anonymous session.
func (s *Session) Principal() *models.Principal {
	if s == nil || s.principal == nil {
		return nil
	}
	c := *s.principal
	return &c
}

func (s *Session) PrincipalID() string {
	if s == nil || s.principal == nil {
		return ""
	}
	return s.principal.ID
}

func (s *Session) set(state State, p *models.Principal) {
	s.state = state
	if p == nil {
		s.principal = nil
		return
	}
	c := *p
	s.principal = &c
}

func (s *Session) clear() {
	s.set(Anonymous, nil)
}

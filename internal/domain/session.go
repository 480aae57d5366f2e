package domain

// Session identifies the authenticated attendee or operator for one request.
// It is passed explicitly into the core's constructors and methods; nothing
// in the workflow reads ambient global state.
type Session struct {
	UserID string
	Email  string
	Roles  []string
}

// HasRole reports whether the session carries the given role.
func (s *Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenParser turns a bearer token into an explicit Session.
type TokenParser interface {
	Parse(token string) (*Session, error)
}

package auth

import "github.com/google/uuid"

// Context identifies the acting user for a single operation. It is built by
// the HTTP middleware from the verified token and passed explicitly into the
// life-cycle layer, so the core stays testable without an HTTP session.
type Context struct {
	UserID  uuid.UUID
	IsAdmin bool
	Roles   []string
}

// HasRole reports whether the actor carries the named role.
func (c Context) HasRole(name string) bool {
	for _, r := range c.Roles {
		if r == name {
			return true
		}
	}
	return false
}

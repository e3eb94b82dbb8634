package models

// Actor identifies the caller of an operation. The zero value is anonymous.
type Actor struct {
	UserID   int64
	Username string
	Admin    bool
}

// Authenticated reports whether the actor is a signed-in user.
func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

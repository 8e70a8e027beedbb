package auth

// Role is the coarse permission class carried in the access token
// and the session snapshot.  Using a named type keeps authorization
// checks behind the In predicate instead of scattering free-form
// string comparisons around handlers.
type Role string

const (
    RoleUser  Role = "user"
    RoleAdmin Role = "admin"
)

// ParseRole maps an arbitrary string to a known Role.  Anything
// that is not exactly "admin" is treated as a regular user so a
// forged or corrupted claim can never widen permissions.
func ParseRole(s string) Role {
    if s == string(RoleAdmin) {
        return RoleAdmin
    }
    return RoleUser
}

// In reports whether the role is a member of the allowed set.
func (r Role) In(allowed ...Role) bool {
    for _, a := range allowed {
        if r == a {
            return true
        }
    }
    return false
}

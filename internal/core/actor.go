package core

import "fmt"

// Role is the closed set of trust levels an actor can hold. Role is read from
// the store per request and never cached across request boundaries; a role
// change takes effect on the next request.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// ParseRole converts a stored role string into a Role, rejecting anything
// outside the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleUser:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// CanApprove reports whether the role is allowed to act on pending expenses
// at all. Scope membership is checked separately per record.
func (r Role) CanApprove() bool {
	return r == RoleAdmin || r == RoleManager
}

// Actor is the authenticated principal attached to a request. The transport
// layer supplies a verified actor id; the core looks the record up and never
// fabricates or defaults one.
type Actor struct {
	ID   int64
	Name string
	Role Role
}

// Team groups users under exactly one manager. Membership is stored apart
// from expenses and budgets and is consulted, never mutated, by the
// visibility and analytics paths.
type Team struct {
	ID        int64
	Name      string
	ManagerID int64
	MemberIDs []int64
}

// HasMember reports whether userID appears in the team roster.
func (t Team) HasMember(userID int64) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Package access holds the dashboard's permission rules: member removal by
// role rank and the plan-based quotas on projects and members. Every rule is
// a pure function of its inputs.
package access

// Role is a project member's role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Rank orders roles: owner > admin > member. Unknown roles rank 0.
func Rank(r Role) int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return Rank(r) > 0
}

// Principal identifies a member for permission checks.
type Principal struct {
	UserID string
	Role   Role
}

// CanRemove reports whether requester may remove target from a project:
// never themselves, and only members of strictly lower rank.
func CanRemove(requester, target Principal) bool {
	if requester.UserID == "" || requester.UserID == target.UserID {
		return false
	}
	return Rank(requester.Role) > Rank(target.Role)
}

// RoleOf finds the role of userID among members.
func RoleOf(userID string, members []Principal) (Role, bool) {
	for _, m := range members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// Removable returns, for each member, whether the current user may remove
// it. A current user who is not a member can remove nobody.
func Removable(currentUserID string, members []Principal) []bool {
	out := make([]bool, len(members))
	role, ok := RoleOf(currentUserID, members)
	if !ok {
		return out
	}
	requester := Principal{UserID: currentUserID, Role: role}
	for i, m := range members {
		out[i] = CanRemove(requester, m)
	}
	return out
}

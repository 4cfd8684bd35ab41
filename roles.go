package auth

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role granted on registration
	RoleUser UserRole = "USER"
	// RoleAdmin is granted through admin registration or an update
	RoleAdmin UserRole = "ADMIN"
)

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleAdmin,
	}
}

// ParseRole accepts only the canonical role names. Matching is case
// sensitive, "admin" is not ADMIN.
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

// ParseRoles parses every entry of roles and fails with ErrInvalidRole
// on the first unknown value
func ParseRoles(roles []string) ([]UserRole, error) {
	out := make([]UserRole, 0, len(roles))
	for _, r := range roles {
		role, ok := ParseRole(r)
		if !ok {
			return nil, withCause(ErrInvalidRole, nil, map[string]any{"role": r})
		}
		out = append(out, role)
	}
	return out, nil
}

// mergeRoles returns the union of current and extra, preserving the
// order of first appearance
func mergeRoles(current, extra []UserRole) []UserRole {
	seen := make(map[UserRole]struct{}, len(current)+len(extra))
	out := make([]UserRole, 0, len(current)+len(extra))
	for _, group := range [][]UserRole{current, extra} {
		for _, r := range group {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

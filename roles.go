package auth

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleListener, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

var roleHierarchy = map[UserRole]int{
	RoleListener: 0,
	RoleStaff:    1,
	RoleAdmin:    2,
}

// RoleAtLeast checks if role meets the minimum required level.
// Unknown roles never satisfy any requirement.
func RoleAtLeast(role, minRole UserRole) bool {
	currentLevel, exists := roleHierarchy[role]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleListener,
		RoleStaff,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

package auth

// UserIdentity adapts a User into the Identity interface for token generation.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

// Email returns the user's email.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// DisplayName returns the user's display name.
func (u UserIdentity) DisplayName() string {
	if u.user == nil {
		return ""
	}
	return u.user.DisplayName
}

// Role returns the user's role.
func (u UserIdentity) Role() string {
	if u.user == nil {
		return ""
	}
	return u.user.Role
}

package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// EnsureRootAdmin creates the single protected root administrator if it
// does not exist yet and returns it. The account is marked with the
// is_protected flag at creation; nothing else in the system ever sets
// that flag, and every mutating service call checks it. Identification
// is by the flag, not by matching the email.
//
// The ID is derived from the email so re-provisioning against a fresh
// database yields the same account ID.
func EnsureRootAdmin(ctx context.Context, store UserStore, email, password, displayName string) (*User, error) {
	email = NormalizeEmail(email)

	existing, err := store.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !goerrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         RoleAdmin,
		IsActive:     true,
		IsProtected:  true,
	}

	if id, err := hashid.NewUUID(email); err == nil {
		user.ID = id
	}

	return store.Create(ctx, user)
}

package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultPageSize bounds GetAllUsers when the caller passes no limit.
const DefaultPageSize = 50

// Accounts registers users, verifies credentials, issues and verifies
// tokens, and mutates account fields under the root-admin guard.
type Accounts struct {
	store        UserStore
	tokenService TokenService
	logger       Logger
}

// NewAccounts returns the account service backed by the given store.
func NewAccounts(store UserStore, cfg Config) *Accounts {
	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	)

	return &Accounts{
		store:        store,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Accounts) WithLogger(logger Logger) *Accounts {
	s.logger = logger
	return s
}

// WithTokenService overrides the token service, primarily for tests
// that need a fixed clock or a foreign signing key.
func (s *Accounts) WithTokenService(ts TokenService) *Accounts {
	s.tokenService = ts
	return s
}

// TokenService returns the TokenService instance used by this service
func (s *Accounts) TokenService() TokenService {
	return s.tokenService
}

// Register creates an account with the default listener role, an empty
// profile, and an issued token. The plaintext password exists only long
// enough to hash; it is never stored or logged.
func (s *Accounts) Register(ctx context.Context, email, password, displayName string) (*User, string, error) {
	hash, err := HashPassword(password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, "", richErr
		}
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         RoleListener,
		IsActive:     true,
	}

	created, err := s.store.Create(ctx, user)
	if err != nil {
		s.logger.Error("Register create user", "email", user.Email, "error", err)
		return nil, "", err
	}

	token, err := s.tokenService.Generate(NewIdentityFromUser(created))
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("Registered account", "user_id", created.ID.String())

	return created, token, nil
}

// Login verifies credentials and issues a token. Unknown email,
// deactivated account, and wrong password all return the identical
// ErrInvalidCredentials so the failure paths cannot be told apart.
func (s *Accounts) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.store.GetActiveByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			// Burn a comparison so an unknown email costs the same as
			// a wrong password.
			_ = ComparePasswordAndHash(password, RandomPasswordHash())
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Warn("Login password mismatch", "user_id", user.ID.String())
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(NewIdentityFromUser(user))
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// VerifyToken returns the claims for a valid token and nil otherwise.
// See TokenService.Verify for the contract.
func (s *Accounts) VerifyToken(token string) AuthClaims {
	return s.tokenService.Verify(token)
}

// GetUserByID is a plain read.
func (s *Accounts) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// GetAllUsers lists users with a bounded page size; limit <= 0 falls
// back to DefaultPageSize so no call can trigger an unbounded scan.
func (s *Accounts) GetAllUsers(ctx context.Context, limit, offset int) ([]*User, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}

// UpdateUser applies only the recognized fields. When the update
// carries none, the stored record is returned as is and nothing is
// written, leaving updated_at untouched.
func (s *Accounts) UpdateUser(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error) {
	if update.IsEmpty() {
		return s.store.GetByID(ctx, id)
	}

	return s.store.Update(ctx, id, update)
}

// UpdateUserRole changes a user's role. The protected root
// administrator is resolved and rejected before any write.
func (s *Accounts) UpdateUserRole(ctx context.Context, id uuid.UUID, role UserRole) (*User, error) {
	if !IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.IsProtected {
		s.logger.Warn("Blocked role change on protected account", "user_id", id.String())
		return nil, ErrProtectedAccount
	}

	return s.store.UpdateRole(ctx, id, role)
}

// DeleteUser removes an account. The protected root administrator is
// resolved and rejected before any write.
func (s *Accounts) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if user.IsProtected {
		s.logger.Warn("Blocked delete of protected account", "user_id", id.String())
		return ErrProtectedAccount
	}

	return s.store.Delete(ctx, id)
}

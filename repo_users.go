package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserUpdate carries the optional profile fields UpdateUser may touch.
// Nil pointers mean "leave as is"; a fully nil update performs no write.
type UserUpdate struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
	Phone       *string
	IsActive    *bool
}

// IsEmpty reports whether the update carries no recognized field.
func (u UserUpdate) IsEmpty() bool {
	return u.DisplayName == nil && u.Bio == nil && u.AvatarURL == nil &&
		u.Phone == nil && u.IsActive == nil
}

// UserStore persists user and profile records. Services receive it at
// construction so tests can substitute an in-memory implementation.
type UserStore interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetActiveByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)
	Search(ctx context.Context, term string, limit, offset int) ([]*User, int, error)
	Update(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role UserRole) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (total int, active int, err error)
	CountByRole(ctx context.Context) (map[string]int, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ UserStore = (*users)(nil)

// NewUsersRepository returns the bun-backed UserStore.
func NewUsersRepository(db *bun.DB) UserStore {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

// Create stores the user and its empty profile row as one transaction.
// The email is normalized before the uniqueness check so addresses that
// differ only by case conflict.
func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	prepareUserDefaults(user)

	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*User)(nil)).
			Where("?TableAlias.email = ?", user.Email).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailTaken
		}

		if user, err = a.Repository.CreateTx(ctx, tx, user); err != nil {
			return err
		}

		profile := &Profile{
			ID:     uuid.New(),
			UserID: user.ID,
		}
		if _, err := tx.NewInsert().Model(profile).Exec(ctx); err != nil {
			return err
		}
		user.Profile = profile

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Profile").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return record, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getByEmail(ctx, email, false)
}

// GetActiveByEmail restricts the lookup to is_active accounts in the
// same query. A deactivated account is indistinguishable from an
// unknown one, which is what login relies on.
func (a *users) GetActiveByEmail(ctx context.Context, email string) (*User, error) {
	return a.getByEmail(ctx, email, true)
}

func (a *users) getByEmail(ctx context.Context, email string, activeOnly bool) (*User, error) {
	record := &User{}
	q := a.db.NewSelect().
		Model(record).
		Relation("Profile").
		Where("?TableAlias.email = ?", NormalizeEmail(email))

	if activeOnly {
		q = q.Where("?TableAlias.is_active = ?", true)
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return record, nil
}

func (a *users) List(ctx context.Context, limit, offset int) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().
		Model(&records).
		Relation("Profile").
		Order("usr.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Search matches the term as a case-insensitive substring of email or
// display name and returns the page plus the total match count.
func (a *users) Search(ctx context.Context, term string, limit, offset int) ([]*User, int, error) {
	var records []*User
	q := a.db.NewSelect().
		Model(&records).
		Relation("Profile")

	if term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("lower(?TableAlias.email) LIKE ?", pattern).
				WhereOr("lower(?TableAlias.display_name) LIKE ?", pattern)
		})
	}

	total, err := q.
		Order("usr.created_at DESC").
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Update applies the recognized fields and bumps updated_at. Callers
// are expected to skip the call entirely for an empty update; this
// method always writes.
func (a *users) Update(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error) {
	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &User{}
		err := tx.NewSelect().
			Model(record).
			Where("?TableAlias.id = ?", id).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}

		if update.DisplayName != nil || update.IsActive != nil {
			// Explicit Set so zero values like is_active=false are
			// written instead of omitted.
			q := tx.NewUpdate().
				Model((*User)(nil)).
				Set("updated_at = current_timestamp").
				Where("id = ?", id)
			if update.DisplayName != nil {
				q = q.Set("display_name = ?", *update.DisplayName)
			}
			if update.IsActive != nil {
				q = q.Set("is_active = ?", *update.IsActive)
			}
			if _, err := q.Exec(ctx); err != nil {
				return err
			}
		}

		if update.Bio != nil || update.AvatarURL != nil || update.Phone != nil {
			q := tx.NewUpdate().
				Model((*Profile)(nil)).
				Set("updated_at = current_timestamp").
				Where("user_id = ?", id)
			if update.Bio != nil {
				q = q.Set("bio = ?", *update.Bio)
			}
			if update.AvatarURL != nil {
				q = q.Set("avatar_url = ?", *update.AvatarURL)
			}
			if update.Phone != nil {
				q = q.Set("phone_number = ?", *update.Phone)
			}
			if _, err := q.Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return a.GetByID(ctx, id)
}

func (a *users) UpdateRole(ctx context.Context, id uuid.UUID, role UserRole) (*User, error) {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("user_role = ?", role).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrUserNotFound
	}

	return a.GetByID(ctx, id)
}

func (a *users) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (a *users) Count(ctx context.Context) (int, int, error) {
	total, err := a.db.NewSelect().Model((*User)(nil)).Count(ctx)
	if err != nil {
		return 0, 0, err
	}

	active, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.is_active = ?", true).
		Count(ctx)
	if err != nil {
		return 0, 0, err
	}

	return total, active, nil
}

func (a *users) CountByRole(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Role  string `bun:"user_role"`
		Count int    `bun:"count"`
	}

	err := a.db.NewSelect().
		Model((*User)(nil)).
		ColumnExpr("?TableAlias.user_role AS user_role").
		ColumnExpr("count(*) AS count").
		GroupExpr("?TableAlias.user_role").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.Role == "" {
		record.Role = RoleListener
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

package auth_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	auth "github.com/aprog93/radio-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := auth.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, auth.RunMigrations(context.Background(), db))
	return db
}

func TestUsersRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create persists the user with an empty profile", func(t *testing.T) {
		repo := auth.NewUsersRepository(setupDB(t))

		user, err := repo.Create(ctx, &auth.User{
			Email:        "DJ@Station.FM",
			PasswordHash: "hash",
			DisplayName:  "DJ Morning",
			IsActive:     true,
		})
		require.NoError(t, err)
		assert.Equal(t, "dj@station.fm", user.Email)
		assert.Equal(t, auth.RoleListener, user.Role)
		require.NotNil(t, user.Profile)
		assert.Equal(t, user.ID, user.Profile.UserID)

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
		require.NotNil(t, got.Profile)
	})

	t.Run("duplicate email rolls the whole insert back", func(t *testing.T) {
		repo := auth.NewUsersRepository(setupDB(t))

		_, err := repo.Create(ctx, &auth.User{
			Email: "dj@station.fm", PasswordHash: "hash", DisplayName: "First", IsActive: true,
		})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &auth.User{
			Email: "DJ@STATION.FM", PasswordHash: "hash", DisplayName: "Second", IsActive: true,
		})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, auth.TextCodeEmailTaken, richErr.TextCode)

		total, _, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("active-only lookup skips deactivated accounts", func(t *testing.T) {
		repo := auth.NewUsersRepository(setupDB(t))

		user, err := repo.Create(ctx, &auth.User{
			Email: "dj@station.fm", PasswordHash: "hash", DisplayName: "DJ", IsActive: true,
		})
		require.NoError(t, err)

		_, err = repo.GetActiveByEmail(ctx, "dj@station.fm")
		require.NoError(t, err)

		inactive := false
		_, err = repo.Update(ctx, user.ID, auth.UserUpdate{IsActive: &inactive})
		require.NoError(t, err)

		_, err = repo.GetActiveByEmail(ctx, "dj@station.fm")
		assert.True(t, goerrors.IsNotFound(err))

		// The plain lookup still finds it.
		_, err = repo.GetByEmail(ctx, "dj@station.fm")
		assert.NoError(t, err)
	})

	t.Run("update touches user and profile fields", func(t *testing.T) {
		repo := auth.NewUsersRepository(setupDB(t))

		user, err := repo.Create(ctx, &auth.User{
			Email: "dj@station.fm", PasswordHash: "hash", DisplayName: "DJ", IsActive: true,
		})
		require.NoError(t, err)

		name := "DJ Evening"
		bio := "Late night show"
		phone := "+12025550123"
		got, err := repo.Update(ctx, user.ID, auth.UserUpdate{
			DisplayName: &name,
			Bio:         &bio,
			Phone:       &phone,
		})
		require.NoError(t, err)
		assert.Equal(t, "DJ Evening", got.DisplayName)
		require.NotNil(t, got.Profile)
		assert.Equal(t, "Late night show", got.Profile.Bio)
		assert.Equal(t, "+12025550123", got.Profile.Phone)
	})

	t.Run("search matches email and display name", func(t *testing.T) {
		repo := auth.NewUsersRepository(setupDB(t))

		_, err := repo.Create(ctx, &auth.User{
			Email: "dj.morning@station.fm", PasswordHash: "hash", DisplayName: "DJ Morning", IsActive: true,
		})
		require.NoError(t, err)
		_, err = repo.Create(ctx, &auth.User{
			Email: "host@station.fm", PasswordHash: "hash", DisplayName: "Evening Host", IsActive: true,
		})
		require.NoError(t, err)

		records, total, err := repo.Search(ctx, "MORNING", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, records, 1)
		assert.Equal(t, "dj.morning@station.fm", records[0].Email)
	})

	t.Run("update role and delete", func(t *testing.T) {
		repo := auth.NewUsersRepository(setupDB(t))

		user, err := repo.Create(ctx, &auth.User{
			Email: "dj@station.fm", PasswordHash: "hash", DisplayName: "DJ", IsActive: true,
		})
		require.NoError(t, err)

		got, err := repo.UpdateRole(ctx, user.ID, auth.RoleStaff)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleStaff, got.Role)

		require.NoError(t, repo.Delete(ctx, user.ID))
		assert.True(t, goerrors.IsNotFound(repo.Delete(ctx, user.ID)))
	})

	t.Run("count by role", func(t *testing.T) {
		repo := auth.NewUsersRepository(setupDB(t))

		for _, u := range []*auth.User{
			{Email: "a@station.fm", PasswordHash: "h", DisplayName: "A", Role: auth.RoleListener, IsActive: true},
			{Email: "b@station.fm", PasswordHash: "h", DisplayName: "B", Role: auth.RoleListener, IsActive: true},
			{Email: "c@station.fm", PasswordHash: "h", DisplayName: "C", Role: auth.RoleAdmin, IsActive: true},
		} {
			_, err := repo.Create(ctx, u)
			require.NoError(t, err)
		}

		counts, err := repo.CountByRole(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, counts["listener"])
		assert.Equal(t, 1, counts["admin"])
	})
}

func TestEventsRepository(t *testing.T) {
	ctx := context.Background()

	createEvent := func(t *testing.T, repo auth.EventStore, capacity *int) *auth.Event {
		t.Helper()
		event, err := repo.CreateEvent(ctx, &auth.Event{Title: "Live session", Capacity: capacity})
		require.NoError(t, err)
		return event
	}

	// Registrations reference the users table, so every attendee has
	// to exist as a real row.
	createUser := func(t *testing.T, repo auth.UserStore, email string) uuid.UUID {
		t.Helper()
		user, err := repo.Create(ctx, &auth.User{
			Email: email, PasswordHash: "h", DisplayName: "Listener", IsActive: true,
		})
		require.NoError(t, err)
		return user.ID
	}

	t.Run("register and unregister keep the counter honest", func(t *testing.T) {
		db := setupDB(t)
		repo := auth.NewEventsRepository(db)
		event := createEvent(t, repo, intPtr(3))
		userID := createUser(t, auth.NewUsersRepository(db), "one@station.fm")

		require.NoError(t, repo.Register(ctx, event.ID, userID))

		count, err := repo.RegistrationCount(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		registered, err := repo.IsRegistered(ctx, event.ID, userID)
		require.NoError(t, err)
		assert.True(t, registered)

		require.NoError(t, repo.Unregister(ctx, event.ID, userID))

		count, err = repo.RegistrationCount(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("duplicate registration rolls back", func(t *testing.T) {
		db := setupDB(t)
		repo := auth.NewEventsRepository(db)
		event := createEvent(t, repo, intPtr(3))
		userID := createUser(t, auth.NewUsersRepository(db), "dup@station.fm")

		require.NoError(t, repo.Register(ctx, event.ID, userID))

		err := repo.Register(ctx, event.ID, userID)
		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, auth.TextCodeAlreadyRegistered, richErr.TextCode)

		count, err := repo.RegistrationCount(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("capacity guard rejects the overflow attempt", func(t *testing.T) {
		db := setupDB(t)
		repo := auth.NewEventsRepository(db)
		users := auth.NewUsersRepository(db)
		event := createEvent(t, repo, intPtr(1))

		require.NoError(t, repo.Register(ctx, event.ID, createUser(t, users, "first@station.fm")))

		err := repo.Register(ctx, event.ID, createUser(t, users, "second@station.fm"))
		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, auth.TextCodeEventFull, richErr.TextCode)

		// The losing transaction must not leave a registration row.
		total, err := repo.CountRegistrations(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("nil capacity is unlimited", func(t *testing.T) {
		db := setupDB(t)
		repo := auth.NewEventsRepository(db)
		users := auth.NewUsersRepository(db)
		event := createEvent(t, repo, nil)

		for i := 0; i < 20; i++ {
			userID := createUser(t, users, fmt.Sprintf("listener%d@station.fm", i))
			require.NoError(t, repo.Register(ctx, event.ID, userID))
		}

		count, err := repo.RegistrationCount(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, count)
	})

	t.Run("concurrent registrations for one seat yield one winner", func(t *testing.T) {
		db := setupDB(t)
		repo := auth.NewEventsRepository(db)
		users := auth.NewUsersRepository(db)
		event := createEvent(t, repo, intPtr(1))

		const attempts = 8

		attendees := make([]uuid.UUID, attempts)
		for i := range attendees {
			attendees[i] = createUser(t, users, fmt.Sprintf("seat%d@station.fm", i))
		}

		var wg sync.WaitGroup
		results := make(chan error, attempts)
		for _, userID := range attendees {
			wg.Add(1)
			go func(userID uuid.UUID) {
				defer wg.Done()
				results <- repo.Register(ctx, event.ID, userID)
			}(userID)
		}
		wg.Wait()
		close(results)

		wins := 0
		for err := range results {
			if err == nil {
				wins++
			}
		}
		assert.Equal(t, 1, wins)

		count, err := repo.RegistrationCount(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

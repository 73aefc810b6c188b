package auth_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	auth "github.com/aprog93/radio-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockConfig implements auth.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetSigningMethod() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetTokenLookup() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAudience() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func newTestConfig() auth.SimpleConfig {
	return auth.SimpleConfig{
		SigningKey: "test-signing-key",
		Issuer:     "test-issuer",
		Audience:   []string{"test:audience"},
	}
}

// memoryUserStore is an in-memory auth.UserStore used across the
// service tests. It reproduces the store contract the bun
// implementation provides: normalized-email uniqueness, active-only
// lookups, and the not-found sentinels.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*auth.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[uuid.UUID]*auth.User{}}
}

func (s *memoryUserStore) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = auth.NormalizeEmail(user.Email)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = auth.RoleListener
	}

	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, auth.ErrEmailTaken
		}
	}

	cp := *user
	cp.Profile = &auth.Profile{ID: uuid.New(), UserID: cp.ID}
	s.users[cp.ID] = &cp

	return &cp, nil
}

func (s *memoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memoryUserStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.getByEmail(email, false)
}

func (s *memoryUserStore) GetActiveByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.getByEmail(email, true)
}

func (s *memoryUserStore) getByEmail(email string, activeOnly bool) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = auth.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email != email {
			continue
		}
		if activeOnly && !u.IsActive {
			break
		}
		cp := *u
		return &cp, nil
	}
	return nil, auth.ErrUserNotFound
}

func (s *memoryUserStore) List(ctx context.Context, limit, offset int) ([]*auth.User, error) {
	records, _ := s.page("", limit, offset)
	return records, nil
}

func (s *memoryUserStore) Search(ctx context.Context, term string, limit, offset int) ([]*auth.User, int, error) {
	records, total := s.page(term, limit, offset)
	return records, total, nil
}

func (s *memoryUserStore) page(term string, limit, offset int) ([]*auth.User, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	term = strings.ToLower(term)
	matches := make([]*auth.User, 0, len(s.users))
	for _, u := range s.users {
		if term != "" &&
			!strings.Contains(strings.ToLower(u.Email), term) &&
			!strings.Contains(strings.ToLower(u.DisplayName), term) {
			continue
		}
		cp := *u
		matches = append(matches, &cp)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Email < matches[j].Email
	})

	total := len(matches)
	if offset >= total {
		return []*auth.User{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matches[offset:end], total
}

func (s *memoryUserStore) Update(ctx context.Context, id uuid.UUID, update auth.UserUpdate) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}

	if update.DisplayName != nil {
		u.DisplayName = *update.DisplayName
	}
	if update.IsActive != nil {
		u.IsActive = *update.IsActive
	}
	if u.Profile != nil {
		if update.Bio != nil {
			u.Profile.Bio = *update.Bio
		}
		if update.AvatarURL != nil {
			u.Profile.AvatarURL = *update.AvatarURL
		}
		if update.Phone != nil {
			u.Profile.Phone = *update.Phone
		}
	}

	cp := *u
	return &cp, nil
}

func (s *memoryUserStore) UpdateRole(ctx context.Context, id uuid.UUID, role auth.UserRole) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (s *memoryUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return auth.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memoryUserStore) Count(ctx context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, u := range s.users {
		if u.IsActive {
			active++
		}
	}
	return len(s.users), active, nil
}

func (s *memoryUserStore) CountByRole(ctx context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[string]int{}
	for _, u := range s.users {
		counts[string(u.Role)]++
	}
	return counts, nil
}

type registrationKey struct {
	eventID uuid.UUID
	userID  uuid.UUID
}

// memoryEventStore is an in-memory auth.EventStore. Register and
// Unregister hold the lock across the whole check-claim-insert
// sequence, matching the transactional contract of the bun store.
type memoryEventStore struct {
	mu            sync.Mutex
	events        map[uuid.UUID]*auth.Event
	registrations map[registrationKey]bool
}

func newMemoryEventStore() *memoryEventStore {
	return &memoryEventStore{
		events:        map[uuid.UUID]*auth.Event{},
		registrations: map[registrationKey]bool{},
	}
}

func (s *memoryEventStore) CreateEvent(ctx context.Context, event *auth.Event) (*auth.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	cp := *event
	s.events[cp.ID] = &cp
	return &cp, nil
}

func (s *memoryEventStore) GetEvent(ctx context.Context, id uuid.UUID) (*auth.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return nil, auth.ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

func (s *memoryEventStore) Register(ctx context.Context, eventID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return auth.ErrEventNotFound
	}

	key := registrationKey{eventID: eventID, userID: userID}
	if s.registrations[key] {
		return auth.ErrAlreadyRegistered
	}

	if ev.Capacity != nil && ev.RegisteredCount >= *ev.Capacity {
		return auth.ErrEventFull
	}

	ev.RegisteredCount++
	s.registrations[key] = true
	return nil
}

func (s *memoryEventStore) Unregister(ctx context.Context, eventID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := registrationKey{eventID: eventID, userID: userID}
	if !s.registrations[key] {
		return auth.ErrNotRegistered
	}

	delete(s.registrations, key)
	if ev, ok := s.events[eventID]; ok && ev.RegisteredCount > 0 {
		ev.RegisteredCount--
	}
	return nil
}

func (s *memoryEventStore) IsRegistered(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registrations[registrationKey{eventID: eventID, userID: userID}], nil
}

func (s *memoryEventStore) RegistrationCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return 0, auth.ErrEventNotFound
	}
	return ev.RegisteredCount, nil
}

func (s *memoryEventStore) CountEvents(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events), nil
}

func (s *memoryEventStore) CountRegistrations(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registrations), nil
}

package auth

import (
	"context"

	"github.com/google/uuid"
)

// Registrations joins and removes users from events under the capacity
// invariant. The state per (event, user) pair is binary: a registration
// row either exists or it does not.
//
// The check-then-act sequence lives inside the store's transaction, so
// this service stays a thin validation and logging layer; see
// EventStore.Register for the atomicity discussion.
type Registrations struct {
	store  EventStore
	logger Logger
}

// NewRegistrations returns the event registration service.
func NewRegistrations(store EventStore) *Registrations {
	return &Registrations{
		store:  store,
		logger: defLogger{},
	}
}

func (s *Registrations) WithLogger(logger Logger) *Registrations {
	s.logger = logger
	return s
}

// Register joins userID to eventID. Fails with ErrEventNotFound,
// ErrAlreadyRegistered, or ErrEventFull; with capacity = 1 and N
// concurrent calls, exactly one succeeds.
func (s *Registrations) Register(ctx context.Context, eventID, userID uuid.UUID) error {
	if err := s.store.Register(ctx, eventID, userID); err != nil {
		return err
	}

	s.logger.Info("Event registration", "event_id", eventID.String(), "user_id", userID.String())
	return nil
}

// Unregister removes the pair's registration. Fails with
// ErrNotRegistered when no row exists; the pair can register again
// afterwards and the count returns to its prior value.
func (s *Registrations) Unregister(ctx context.Context, eventID, userID uuid.UUID) error {
	if err := s.store.Unregister(ctx, eventID, userID); err != nil {
		return err
	}

	s.logger.Info("Event unregistration", "event_id", eventID.String(), "user_id", userID.String())
	return nil
}

// IsRegistered is a plain read for display purposes.
func (s *Registrations) IsRegistered(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	return s.store.IsRegistered(ctx, eventID, userID)
}

// RegistrationCount is a plain read; it is not part of the
// invariant-bearing path.
func (s *Registrations) RegistrationCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	return s.store.RegistrationCount(ctx, eventID)
}

package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EventStore persists events and registrations. Register and
// Unregister are the invariant-bearing operations: the registration
// row and the denormalized counter move together in one transaction,
// never as two writes visible separately.
type EventStore interface {
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	Register(ctx context.Context, eventID, userID uuid.UUID) error
	Unregister(ctx context.Context, eventID, userID uuid.UUID) error
	IsRegistered(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	RegistrationCount(ctx context.Context, eventID uuid.UUID) (int, error)
	CountEvents(ctx context.Context) (int, error)
	CountRegistrations(ctx context.Context) (int, error)
}

type events struct {
	db *bun.DB
}

var _ EventStore = (*events)(nil)

// NewEventsRepository returns the bun-backed EventStore.
func NewEventsRepository(db *bun.DB) EventStore {
	return &events{db: db}
}

func (r *events) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	if _, err := r.db.NewInsert().Model(event).Exec(ctx); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *events) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	record := &Event{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return record, nil
}

// Register inserts the registration row and increments the counter as
// one atomic unit. The increment is a conditional update guarded by
// the capacity check itself, so two concurrent calls racing for the
// last slot cannot both succeed: the loser's UPDATE matches zero rows
// and the whole transaction rolls back with ErrEventFull.
func (r *events) Register(ctx context.Context, eventID, userID uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*Event)(nil)).
			Where("?TableAlias.id = ?", eventID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return ErrEventNotFound
		}

		registered, err := tx.NewSelect().
			Model((*EventRegistration)(nil)).
			Where("?TableAlias.event_id = ? AND ?TableAlias.user_id = ?", eventID, userID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if registered {
			return ErrAlreadyRegistered
		}

		res, err := tx.NewUpdate().
			Model((*Event)(nil)).
			Set("registered_count = registered_count + 1").
			Set("updated_at = current_timestamp").
			Where("id = ?", eventID).
			Where("capacity IS NULL OR registered_count < capacity").
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrEventFull
		}

		reg := &EventRegistration{
			ID:      uuid.New(),
			EventID: eventID,
			UserID:  userID,
		}
		if _, err := tx.NewInsert().Model(reg).Exec(ctx); err != nil {
			return err
		}

		return nil
	})
}

// Unregister deletes the registration row and decrements the counter in
// the same transaction. The decrement is guarded so the counter never
// goes below zero even if the two ever drift.
func (r *events) Unregister(ctx context.Context, eventID, userID uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*EventRegistration)(nil)).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotRegistered
		}

		_, err = tx.NewUpdate().
			Model((*Event)(nil)).
			Set("registered_count = registered_count - 1").
			Set("updated_at = current_timestamp").
			Where("id = ?", eventID).
			Where("registered_count > 0").
			Exec(ctx)
		return err
	})
}

func (r *events) IsRegistered(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	return r.db.NewSelect().
		Model((*EventRegistration)(nil)).
		Where("?TableAlias.event_id = ? AND ?TableAlias.user_id = ?", eventID, userID).
		Exists(ctx)
}

func (r *events) RegistrationCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	event, err := r.GetEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return event.RegisteredCount, nil
}

func (r *events) CountEvents(ctx context.Context) (int, error) {
	return r.db.NewSelect().Model((*Event)(nil)).Count(ctx)
}

func (r *events) CountRegistrations(ctx context.Context) (int, error) {
	return r.db.NewSelect().Model((*EventRegistration)(nil)).Count(ctx)
}

package auth

import (
	"context"
)

// MaxDirectoryPageSize caps admin directory pages.
const MaxDirectoryPageSize = 100

// Directory is the read-only projection over users and aggregate
// counts consumed by the admin dashboard. It carries no invariants of
// its own; mutations go through Accounts, which owns the root-admin
// protection.
type Directory struct {
	users  UserStore
	events EventStore
	logger Logger
}

// NewDirectory returns the admin directory projection.
func NewDirectory(users UserStore, events EventStore) *Directory {
	return &Directory{
		users:  users,
		events: events,
		logger: defLogger{},
	}
}

func (d *Directory) WithLogger(logger Logger) *Directory {
	d.logger = logger
	return d
}

// ListUsers returns one page of users, optionally filtered by a
// case-insensitive substring match on email or display name. Pages are
// 1-based; limit is clamped to MaxDirectoryPageSize.
func (d *Directory) ListUsers(ctx context.Context, page, limit int, searchTerm string) (*DirectoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxDirectoryPageSize {
		limit = MaxDirectoryPageSize
	}

	offset := (page - 1) * limit

	records, total, err := d.users.Search(ctx, searchTerm, limit, offset)
	if err != nil {
		return nil, err
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	return &DirectoryPage{
		Users:      records,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Stats aggregates dashboard counts. Pure aggregation over the stores,
// no invariants.
func (d *Directory) Stats(ctx context.Context) (*DirectoryStats, error) {
	total, active, err := d.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	byRole, err := d.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	eventCount, err := d.events.CountEvents(ctx)
	if err != nil {
		return nil, err
	}

	registrationCount, err := d.events.CountRegistrations(ctx)
	if err != nil {
		return nil, err
	}

	return &DirectoryStats{
		TotalUsers:         total,
		ActiveUsers:        active,
		UsersByRole:        byRole,
		TotalEvents:        eventCount,
		TotalRegistrations: registrationCount,
	}, nil
}

// Package store provides the persistence implementations behind the
// allocation engine: an in-memory store for development and tests, and the
// Postgres store used in production.
package store

import (
	"context"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/allocation"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
)

// BookingFilter narrows the browse queries used by the web layer.
// Zero values mean "any".
type BookingFilter struct {
	Kind       booking.ResourceKind
	ResourceID int64
	Status     booking.Status
}

// Store is the full surface the application wires together: the engine's
// collaborator interfaces plus the browse and admin queries the web layer
// and CLI need.
type Store interface {
	allocation.Store
	allocation.Registry

	ListBookings(ctx context.Context, f BookingFilter) ([]booking.Booking, error)
	CreateResource(ctx context.Context, r *booking.Resource) error
	SetResourceActive(ctx context.Context, kind booking.ResourceKind, id int64, active bool) error
	ListResources(ctx context.Context, kind booking.ResourceKind) ([]booking.Resource, error)

	Ping(ctx context.Context) error
	Close()
}

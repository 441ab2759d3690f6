package infraction

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("infraction not found")

// Store persists infractions. Aggregation for the statistics office happens
// store-side so the SQL variant can group in the database.
type Store interface {
	Create(ctx context.Context, in *Infraction) error
	Get(ctx context.Context, id string) (*Infraction, error)
	List(ctx context.Context) ([]*Infraction, error)
	Update(ctx context.Context, in *Infraction) error
	Delete(ctx context.Context, id string) error
	AggregateByYear(ctx context.Context, year int) ([]DuiBucket, error)
}

package citizen

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("citizen not found")
	ErrDuplicate = errors.New("citizen already exists")
)

// Store persists citizen records. JMBG is unique across the registry.
type Store interface {
	Create(ctx context.Context, c *Citizen) error
	Get(ctx context.Context, id string) (*Citizen, error)
	GetByJMBG(ctx context.Context, jmbg string) (*Citizen, error)
	List(ctx context.Context) ([]*Citizen, error)
	Update(ctx context.Context, c *Citizen) error
	Delete(ctx context.Context, id string) error
}

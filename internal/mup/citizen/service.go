package citizen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	jwttoken "egov/internal/jwt_token"
	"egov/pkg/faults"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service implements citizen registry operations.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// Create registers a citizen. The password is hashed with bcrypt before it
// touches storage; the plaintext is never logged or persisted.
func (s *Service) Create(ctx context.Context, dto CreateDTO) (*Citizen, error) {
	if len(dto.JMBG) != 13 {
		return nil, faults.New(faults.KindBadRequest, "jmbg must be 13 digits")
	}
	if dto.FirstName == "" || dto.LastName == "" {
		return nil, faults.New(faults.KindBadRequest, "first and last name are required")
	}
	if dto.Email == "" {
		return nil, faults.New(faults.KindBadRequest, "email is required")
	}
	if len(dto.Password) < 8 {
		return nil, faults.New(faults.KindBadRequest, "password must be at least 8 characters")
	}
	role := dto.Role
	if role == "" {
		role = jwttoken.RoleCitizen
	}
	if role != jwttoken.RoleCitizen && role != jwttoken.RoleAdmin {
		return nil, faults.New(faults.KindBadRequest, fmt.Sprintf("unknown role %q", dto.Role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	c := &Citizen{
		ID:           uuid.NewString(),
		JMBG:         dto.JMBG,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Email:        dto.Email,
		Phone:        dto.Phone,
		Role:         role,
		CreatedAt:    s.now(),
		PasswordHash: string(hash),
	}
	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, faults.Wrap(err, faults.KindConflict, "citizen with this jmbg already exists")
		}
		return nil, fmt.Errorf("create citizen: %w", err)
	}

	s.log.Info("citizen registered", "citizen_id", c.ID, "role", c.Role)
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Citizen, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return c, nil
}

func (s *Service) GetByJMBG(ctx context.Context, jmbg string) (*Citizen, error) {
	c, err := s.store.GetByJMBG(ctx, jmbg)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return c, nil
}

// CredentialsByJMBG supports the gateway login flow.
func (s *Service) CredentialsByJMBG(ctx context.Context, jmbg string) (*Credentials, error) {
	c, err := s.GetByJMBG(ctx, jmbg)
	if err != nil {
		return nil, err
	}
	return &Credentials{
		ID:           c.ID,
		JMBG:         c.JMBG,
		Role:         c.Role,
		PasswordHash: c.PasswordHash,
	}, nil
}

func (s *Service) List(ctx context.Context) ([]*Citizen, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list citizens: %w", err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateDTO) (*Citizen, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.FirstName != "" {
		c.FirstName = dto.FirstName
	}
	if dto.LastName != "" {
		c.LastName = dto.LastName
	}
	if dto.Email != "" {
		c.Email = dto.Email
	}
	if dto.Phone != "" {
		c.Phone = dto.Phone
	}
	if err := s.store.Update(ctx, c); err != nil {
		return nil, mapStoreError(err)
	}
	return c, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return mapStoreError(err)
	}
	s.log.Info("citizen removed", "citizen_id", id)
	return nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return faults.Wrap(err, faults.KindNotFound, "citizen not found")
	case errors.Is(err, ErrDuplicate):
		return faults.Wrap(err, faults.KindConflict, "citizen already exists")
	}
	return err
}

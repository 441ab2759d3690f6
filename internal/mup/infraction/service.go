package infraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"egov/pkg/faults"

	"github.com/google/uuid"
)

// Service implements infraction CRUD and the yearly aggregate.
type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) Create(ctx context.Context, dto CreateDTO) (*Infraction, error) {
	if !ValidType(dto.Type) {
		return nil, faults.New(faults.KindBadRequest, fmt.Sprintf("unknown infraction type %q", dto.Type))
	}
	if dto.Municipality == "" {
		return nil, faults.New(faults.KindBadRequest, "municipality is required")
	}
	if dto.DateTime.IsZero() {
		return nil, faults.New(faults.KindBadRequest, "infraction date is required")
	}

	in := &Infraction{
		ID:            uuid.NewString(),
		DateTime:      dto.DateTime,
		Municipality:  dto.Municipality,
		Description:   dto.Description,
		PenaltyPoints: dto.PenaltyPoints,
		Fine:          dto.Fine,
		Type:          dto.Type,
	}
	if err := s.store.Create(ctx, in); err != nil {
		return nil, fmt.Errorf("create infraction: %w", err)
	}
	s.log.Info("infraction recorded", "infraction_id", in.ID, "type", in.Type, "municipality", in.Municipality)
	return in, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Infraction, error) {
	in, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, faults.Wrap(err, faults.KindNotFound, "infraction not found")
		}
		return nil, fmt.Errorf("get infraction: %w", err)
	}
	return in, nil
}

func (s *Service) List(ctx context.Context) ([]*Infraction, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list infractions: %w", err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateDTO) (*Infraction, error) {
	in, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !dto.DateTime.IsZero() {
		in.DateTime = dto.DateTime
	}
	if dto.Municipality != "" {
		in.Municipality = dto.Municipality
	}
	if dto.Description != "" {
		in.Description = dto.Description
	}
	if dto.PenaltyPoints != 0 {
		in.PenaltyPoints = dto.PenaltyPoints
	}
	if dto.Fine != 0 {
		in.Fine = dto.Fine
	}
	if dto.Type != "" {
		if !ValidType(dto.Type) {
			return nil, faults.New(faults.KindBadRequest, fmt.Sprintf("unknown infraction type %q", dto.Type))
		}
		in.Type = dto.Type
	}
	if err := s.store.Update(ctx, in); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, faults.Wrap(err, faults.KindNotFound, "infraction not found")
		}
		return nil, fmt.Errorf("update infraction: %w", err)
	}
	return in, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return faults.Wrap(err, faults.KindNotFound, "infraction not found")
		}
		return fmt.Errorf("remove infraction: %w", err)
	}
	return nil
}

// DuiStatistics aggregates the year's infractions into one bucket per
// observed (municipality, type) pair. Bucket counts sum to the yearly total.
func (s *Service) DuiStatistics(ctx context.Context, year int) (*DuiStatistics, error) {
	if year < 1900 || year > time.Now().Year()+1 {
		return nil, faults.New(faults.KindBadRequest, fmt.Sprintf("year %d is out of range", year))
	}
	buckets, err := s.store.AggregateByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("aggregate infractions: %w", err)
	}
	stats := &DuiStatistics{Year: year, Buckets: buckets}
	for _, b := range buckets {
		stats.Total += b.Count
	}
	return stats, nil
}

package infraction

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"egov/pkg/faults"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = NewService(NewMemoryStore(), slog.New(slog.DiscardHandler))
}

func (s *ServiceSuite) record(year int, municipality string, typ Type, fine float64, points int) {
	_, err := s.service.Create(context.Background(), CreateDTO{
		DateTime:      time.Date(year, 5, 12, 22, 15, 0, 0, time.UTC),
		Municipality:  municipality,
		Type:          typ,
		Fine:          fine,
		PenaltyPoints: points,
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestCreateValidation() {
	ctx := context.Background()

	s.Run("unknown type is rejected", func() {
		_, err := s.service.Create(ctx, CreateDTO{
			DateTime:     time.Now(),
			Municipality: "Belgrade",
			Type:         "JAYWALKING",
		})
		s.True(faults.Is(err, faults.KindBadRequest))
	})

	s.Run("municipality is required", func() {
		_, err := s.service.Create(ctx, CreateDTO{DateTime: time.Now(), Type: TypeSpeeding})
		s.True(faults.Is(err, faults.KindBadRequest))
	})
}

func (s *ServiceSuite) TestDuiStatistics() {
	ctx := context.Background()

	s.record(2024, "Belgrade", TypeDrunkDriving, 50000, 8)
	s.record(2024, "Belgrade", TypeDrunkDriving, 30000, 6)
	s.record(2024, "Belgrade", TypeSpeeding, 10000, 2)
	s.record(2024, "Novi Sad", TypeDrunkDriving, 45000, 8)
	s.record(2023, "Belgrade", TypeDrunkDriving, 20000, 4)

	s.Run("one bucket per observed pair, counts sum to the total", func() {
		stats, err := s.service.DuiStatistics(ctx, 2024)
		s.Require().NoError(err)
		s.Equal(4, stats.Total)
		s.Require().Len(stats.Buckets, 3)

		sum := 0
		for _, b := range stats.Buckets {
			sum += b.Count
		}
		s.Equal(stats.Total, sum)

		// Ordered by municipality then type.
		s.Equal("Belgrade", stats.Buckets[0].Municipality)
		s.Equal(TypeDrunkDriving, stats.Buckets[0].Type)
		s.Equal(2, stats.Buckets[0].Count)
		s.Equal(80000.0, stats.Buckets[0].TotalFine)
		s.Equal(14, stats.Buckets[0].TotalPoints)
		s.Equal(TypeSpeeding, stats.Buckets[1].Type)
		s.Equal("Novi Sad", stats.Buckets[2].Municipality)
	})

	s.Run("a year with no infractions yields an empty aggregate", func() {
		stats, err := s.service.DuiStatistics(ctx, 2020)
		s.Require().NoError(err)
		s.Zero(stats.Total)
		s.Empty(stats.Buckets)
	})

	s.Run("nonsense year is rejected", func() {
		_, err := s.service.DuiStatistics(ctx, 123)
		s.True(faults.Is(err, faults.KindBadRequest))
	})
}

func (s *ServiceSuite) TestUpdateAndRemove() {
	ctx := context.Background()
	in, err := s.service.Create(ctx, CreateDTO{
		DateTime:     time.Now(),
		Municipality: "Nis",
		Type:         TypeRedLight,
		Fine:         5000,
	})
	s.Require().NoError(err)

	got, err := s.service.Update(ctx, in.ID, UpdateDTO{Fine: 7500, Description: "repeat offender"})
	s.Require().NoError(err)
	s.Equal(7500.0, got.Fine)
	s.Equal("Nis", got.Municipality)

	s.Require().NoError(s.service.Remove(ctx, in.ID))
	_, err = s.service.Get(ctx, in.ID)
	s.True(faults.Is(err, faults.KindNotFound))
}

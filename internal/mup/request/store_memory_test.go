package request

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
}

func (s *MemoryStoreSuite) newRequest(id, caseNumber, citizenID string, submitted time.Time) *Request {
	return &Request{
		ID:             id,
		CaseNumber:     caseNumber,
		Type:           TypeIDCard,
		Status:         StatusCreated,
		SubmissionDate: submitted,
		CitizenID:      citizenID,
	}
}

func (s *MemoryStoreSuite) TestCreate() {
	ctx := context.Background()

	s.Run("duplicate id is rejected", func() {
		req := s.newRequest("r1", "CASE-1", "c1", time.Now())
		s.Require().NoError(s.store.Create(ctx, req))

		dup := s.newRequest("r1", "CASE-2", "c1", time.Now())
		s.ErrorIs(s.store.Create(ctx, dup), ErrDuplicate)
	})

	s.Run("duplicate case number is rejected", func() {
		dup := s.newRequest("r2", "CASE-1", "c1", time.Now())
		s.ErrorIs(s.store.Create(ctx, dup), ErrDuplicate)
	})

	s.Run("failing sub-resource leaves no request behind", func() {
		first := s.newRequest("r3", "CASE-3", "c1", time.Now())
		first.Appointment = &Appointment{ID: "a1", DateTime: time.Now(), Location: "Belgrade", RequestID: "r3"}
		s.Require().NoError(s.store.Create(ctx, first))

		// Colliding appointment id makes the last insert of the aggregate fail.
		second := s.newRequest("r4", "CASE-4", "c2", time.Now())
		second.Payment = &Payment{ID: "p1", Amount: 1200, Currency: "RSD", RequestID: "r4"}
		second.Appointment = &Appointment{ID: "a1", DateTime: time.Now(), Location: "Novi Sad", RequestID: "r4"}
		s.ErrorIs(s.store.Create(ctx, second), ErrSubDuplicate)

		_, err := s.store.Get(ctx, "r4")
		s.ErrorIs(err, ErrNotFound)
		_, err = s.store.GetPayment(ctx, "p1")
		s.ErrorIs(err, ErrSubNotFound)
	})
}

func (s *MemoryStoreSuite) TestListOrderingAndFilters() {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	oldest := s.newRequest("r1", "CASE-1", "c1", base)
	middle := s.newRequest("r2", "CASE-2", "c2", base.Add(24*time.Hour))
	middle.Type = TypePassport
	newest := s.newRequest("r3", "CASE-3", "c1", base.Add(48*time.Hour))
	newest.Status = StatusInProcess

	for _, r := range []*Request{oldest, middle, newest} {
		s.Require().NoError(s.store.Create(ctx, r))
	}

	s.Run("unfiltered list is newest first", func() {
		out, err := s.store.List(ctx, Filter{})
		s.Require().NoError(err)
		s.Require().Len(out, 3)
		s.Equal("r3", out[0].ID)
		s.Equal("r2", out[1].ID)
		s.Equal("r1", out[2].ID)
	})

	s.Run("citizen filter keeps ordering", func() {
		out, err := s.store.List(ctx, Filter{CitizenID: "c1"})
		s.Require().NoError(err)
		s.Require().Len(out, 2)
		s.Equal("r3", out[0].ID)
		s.Equal("r1", out[1].ID)
	})

	s.Run("status and type filters combine", func() {
		out, err := s.store.List(ctx, Filter{Status: StatusCreated, Type: TypePassport})
		s.Require().NoError(err)
		s.Require().Len(out, 1)
		s.Equal("r2", out[0].ID)
	})
}

func (s *MemoryStoreSuite) TestSubResources() {
	ctx := context.Background()
	req := s.newRequest("r1", "CASE-1", "c1", time.Now())
	s.Require().NoError(s.store.Create(ctx, req))

	s.Run("second appointment for the same request conflicts", func() {
		a := &Appointment{ID: "a1", DateTime: time.Now(), Location: "Belgrade", RequestID: "r1"}
		s.Require().NoError(s.store.AddAppointment(ctx, a))

		again := &Appointment{ID: "a2", DateTime: time.Now(), Location: "Belgrade", RequestID: "r1"}
		s.ErrorIs(s.store.AddAppointment(ctx, again), ErrSubDuplicate)
	})

	s.Run("sub-resource for a missing request is rejected", func() {
		p := &Payment{ID: "p1", Amount: 500, Currency: "RSD", RequestID: "missing"}
		s.ErrorIs(s.store.AddPayment(ctx, p), ErrParentMissing)
	})

	s.Run("aggregate get includes attached sub-resources", func() {
		got, err := s.store.Get(ctx, "r1")
		s.Require().NoError(err)
		s.Require().NotNil(got.Appointment)
		s.Equal("a1", got.Appointment.ID)
		s.Nil(got.Payment)
	})

	s.Run("deleting the request cascades", func() {
		s.Require().NoError(s.store.Delete(ctx, "r1"))
		_, err := s.store.GetAppointment(ctx, "a1")
		s.ErrorIs(err, ErrSubNotFound)
	})
}

func (s *MemoryStoreSuite) TestDocumentByFileKey() {
	ctx := context.Background()
	req := s.newRequest("r1", "CASE-1", "c1", time.Now())
	s.Require().NoError(s.store.Create(ctx, req))

	d := &Document{
		ID: "d1", Name: "passport", Type: "PASSPORT", IssuedDate: time.Now(),
		FileKey: "key-1.pdf", FileName: "passport.pdf", FileSize: 17,
		MimeType: "application/pdf", RequestID: "r1",
	}
	s.Require().NoError(s.store.AddDocument(ctx, d))

	got, err := s.store.GetDocumentByFileKey(ctx, "key-1.pdf")
	s.Require().NoError(err)
	s.Equal("d1", got.ID)
	s.Equal("passport.pdf", got.FileName)

	_, err = s.store.GetDocumentByFileKey(ctx, "unknown")
	s.ErrorIs(err, ErrSubNotFound)

	// Rows without a stored file never match an empty key.
	_, err = s.store.GetDocumentByFileKey(ctx, "")
	s.ErrorIs(err, ErrSubNotFound)
}

func (s *MemoryStoreSuite) TestGetReturnsCopy() {
	ctx := context.Background()
	req := s.newRequest("r1", "CASE-1", "c1", time.Now())
	s.Require().NoError(s.store.Create(ctx, req))

	got, err := s.store.Get(ctx, "r1")
	s.Require().NoError(err)
	got.Status = StatusCompleted

	again, err := s.store.Get(ctx, "r1")
	s.Require().NoError(err)
	s.Equal(StatusCreated, again.Status)
}

package purchase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameshop/internal/dependencies/mocks"
	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock)
	s.ctx = context.Background()

	s.Require().NoError(s.storage.CreateIdentity(s.ctx, &model.Identity{
		ID: "u-1", Username: "alice", Secret: "s-1", Profile: model.Profile{},
	}))
}

func (s *ServiceSuite) TestRecordDefaultsToNow() {
	p, err := s.service.Record(s.ctx, "u-1", "Sword", time.Time{})
	s.Require().NoError(err)
	s.Equal(s.clock.Now(), p.PurchaseDate)
	s.NotZero(p.ID)
}

func (s *ServiceSuite) TestRecordKeepsGivenTimestamp() {
	at := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	p, err := s.service.Record(s.ctx, "u-1", "Sword", at)
	s.Require().NoError(err)
	s.Equal(at, p.PurchaseDate)
}

func (s *ServiceSuite) TestRecordUnknownIdentity() {
	_, err := s.service.Record(s.ctx, "missing", "Sword", time.Time{})
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *ServiceSuite) TestListForInsertionOrderAndRestartable() {
	for _, name := range []string{"Sword", "Shield", "Sword"} {
		_, err := s.service.Record(s.ctx, "u-1", name, time.Time{})
		s.Require().NoError(err)
		s.clock.Advance(time.Minute)
	}

	first, err := s.service.ListFor(s.ctx, "u-1")
	s.Require().NoError(err)
	s.Require().Len(first, 3)
	s.Equal([]string{"Sword", "Shield", "Sword"}, []string{first[0].ProductName, first[1].ProductName, first[2].ProductName})
	s.True(first[0].PurchaseDate.Before(first[1].PurchaseDate))

	second, err := s.service.ListFor(s.ctx, "u-1")
	s.Require().NoError(err)
	s.Equal(first, second)
}

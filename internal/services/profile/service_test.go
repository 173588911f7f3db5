package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, DefaultConfig())
	s.ctx = context.Background()

	s.Require().NoError(s.storage.CreateIdentity(s.ctx, &model.Identity{
		ID: "u-1", Username: "alice", Secret: "s-1", Profile: model.Profile{},
	}))
}

func (s *ServiceSuite) TestAllowedKeysDefault() {
	s.Equal([]string{"level", "preferences", "score"}, s.service.AllowedKeys())
}

func (s *ServiceSuite) TestAllowedKeysConfigured() {
	svc := New(s.storage, Config{AllowedKeys: []string{"xp", "avatar"}})
	s.Equal([]string{"avatar", "xp"}, svc.AllowedKeys())
	s.NoError(svc.Validate(model.Profile{"xp": 1}))
	s.Error(svc.Validate(model.Profile{"level": 1}))
}

func (s *ServiceSuite) TestWriteMergesKeys() {
	updated, err := s.service.Write(s.ctx, "u-1", model.Profile{"level": 3})
	s.Require().NoError(err)
	s.Equal(model.Profile{"level": 3}, updated)

	updated, err = s.service.Write(s.ctx, "u-1", model.Profile{"score": 10})
	s.Require().NoError(err)
	s.Equal(model.Profile{"level": 3, "score": 10}, updated)

	read, err := s.service.Read(s.ctx, "u-1")
	s.Require().NoError(err)
	s.Equal(updated, read)
}

func (s *ServiceSuite) TestWriteOverwritesOnlySuppliedKeys() {
	_, _ = s.service.Write(s.ctx, "u-1", model.Profile{"level": 3, "score": 10})

	updated, err := s.service.Write(s.ctx, "u-1", model.Profile{"level": 4})
	s.Require().NoError(err)
	s.Equal(model.Profile{"level": 4, "score": 10}, updated)
}

func (s *ServiceSuite) TestWriteRejectsWholesale() {
	_, _ = s.service.Write(s.ctx, "u-1", model.Profile{"level": 3})

	_, err := s.service.Write(s.ctx, "u-1", model.Profile{"level": 9, "gold": 1, "admin": true})
	s.Require().ErrorIs(err, model.ErrRejectedKeys)

	var rejected *model.RejectedKeysError
	s.Require().True(errors.As(err, &rejected))
	s.Equal([]string{"admin", "gold"}, rejected.Keys)

	read, err := s.service.Read(s.ctx, "u-1")
	s.Require().NoError(err)
	s.Equal(model.Profile{"level": 3}, read)
}

func (s *ServiceSuite) TestWriteEmptyPatchReturnsDocument() {
	_, _ = s.service.Write(s.ctx, "u-1", model.Profile{"level": 3})

	updated, err := s.service.Write(s.ctx, "u-1", model.Profile{})
	s.Require().NoError(err)
	s.Equal(model.Profile{"level": 3}, updated)
}

func (s *ServiceSuite) TestUnknownIdentity() {
	_, err := s.service.Read(s.ctx, "missing")
	s.ErrorIs(err, model.ErrIdentityNotFound)

	_, err = s.service.Write(s.ctx, "missing", model.Profile{"level": 1})
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

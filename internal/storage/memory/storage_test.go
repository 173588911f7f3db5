package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.Init(s.storage)
}

func (s *StorageSuite) TestMergeProfileResultIsDetached() {
	identity := &model.Identity{ID: "id-1", Username: "alice", Secret: "s1"}
	s.Require().NoError(s.storage.CreateIdentity(s.Ctx, identity))

	merged, err := s.storage.MergeProfile(s.Ctx, "id-1", model.Profile{"level": 1})
	s.Require().NoError(err)
	merged["score"] = 99

	stored, err := s.storage.GetIdentity(s.Ctx, "id-1")
	s.Require().NoError(err)
	s.NotContains(stored.Profile, "score")
}

func (s *StorageSuite) TestCreateIdentityDoesNotAliasCaller() {
	identity := &model.Identity{ID: "id-1", Username: "alice", Secret: "s1", Profile: model.Profile{}}
	s.Require().NoError(s.storage.CreateIdentity(s.Ctx, identity))
	identity.Profile["level"] = 5

	stored, err := s.storage.GetIdentity(s.Ctx, "id-1")
	s.Require().NoError(err)
	s.Empty(stored.Profile)
}

// Package storagetest holds behavioural tests shared by every storage backend.
package storagetest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage"
)

// Suite runs the storage contract against the backend returned by NewStorage.
// Backends embed it in their own test suite and set NewStorage in SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

// Init must be called from the embedding suite's SetupTest
func (s *Suite) Init(st storage.Storage) {
	s.Storage = st
	s.Ctx = context.Background()
}

func (s *Suite) newIdentity(username string) *model.Identity {
	return &model.Identity{
		ID:           model.IdentityID("id-" + username),
		Username:     username,
		PasswordHash: "hash-" + username,
		Secret:       "secret-" + username,
		Profile:      model.Profile{},
		CreatedAt:    time.UnixMilli(1700000000000).UTC(),
	}
}

func (s *Suite) create(username string) *model.Identity {
	identity := s.newIdentity(username)
	s.Require().NoError(s.Storage.CreateIdentity(s.Ctx, identity))
	return identity
}

// Identity tests

func (s *Suite) TestCreateAndGetIdentity() {
	created := s.create("alice")

	byID, err := s.Storage.GetIdentity(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Username, byID.Username)
	s.Equal(created.PasswordHash, byID.PasswordHash)
	s.Equal(created.Secret, byID.Secret)
	s.Equal(int64(0), byID.Coins)
	s.Empty(byID.Profile)
	s.True(created.CreatedAt.Equal(byID.CreatedAt))

	byName, err := s.Storage.GetIdentityByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(created.ID, byName.ID)
}

func (s *Suite) TestGetIdentityNotFound() {
	_, err := s.Storage.GetIdentity(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrIdentityNotFound)

	_, err = s.Storage.GetIdentityByUsername(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestCreateIdentityDuplicateUsername() {
	s.create("alice")

	dup := s.newIdentity("alice")
	dup.ID = "other-id"
	dup.Secret = "other-secret"
	err := s.Storage.CreateIdentity(s.Ctx, dup)
	s.ErrorIs(err, model.ErrDuplicateUsername)

	_, err = s.Storage.GetIdentity(s.Ctx, "other-id")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestCreateIdentityDuplicateSecret() {
	s.create("alice")

	dup := s.newIdentity("bob")
	dup.Secret = "secret-alice"
	err := s.Storage.CreateIdentity(s.Ctx, dup)
	s.ErrorIs(err, model.ErrDuplicateSecret)

	_, err = s.Storage.GetIdentityByUsername(s.Ctx, "bob")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestGetIdentityReturnsCopy() {
	created := s.create("alice")

	first, err := s.Storage.GetIdentity(s.Ctx, created.ID)
	s.Require().NoError(err)
	first.Coins = 999
	first.Profile["level"] = 10

	second, err := s.Storage.GetIdentity(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), second.Coins)
	s.Empty(second.Profile)
}

func (s *Suite) TestGetIdentityReturnsCopyOfNestedValues() {
	created := s.create("alice")
	_, err := s.Storage.MergeProfile(s.Ctx, created.ID, model.Profile{
		"preferences": map[string]any{"theme": "dark", "tags": []any{"a"}},
	})
	s.Require().NoError(err)

	first, err := s.Storage.GetIdentity(s.Ctx, created.ID)
	s.Require().NoError(err)
	prefs := first.Profile["preferences"].(map[string]any)
	prefs["theme"] = "light"
	prefs["tags"].([]any)[0] = "b"

	second, err := s.Storage.GetIdentity(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(map[string]any{"theme": "dark", "tags": []any{"a"}}, second.Profile["preferences"])
}

// Ledger tests

func (s *Suite) TestApplyCoins() {
	identity := s.create("alice")

	balance, err := s.Storage.ApplyCoins(s.Ctx, identity.ID, 50)
	s.Require().NoError(err)
	s.Equal(int64(50), balance)

	balance, err = s.Storage.ApplyCoins(s.Ctx, identity.ID, -20)
	s.Require().NoError(err)
	s.Equal(int64(30), balance)

	stored, err := s.Storage.GetIdentity(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal(int64(30), stored.Coins)
}

func (s *Suite) TestApplyCoinsDeductToZero() {
	identity := s.create("alice")
	_, err := s.Storage.ApplyCoins(s.Ctx, identity.ID, 10)
	s.Require().NoError(err)

	balance, err := s.Storage.ApplyCoins(s.Ctx, identity.ID, -10)
	s.Require().NoError(err)
	s.Equal(int64(0), balance)
}

func (s *Suite) TestApplyCoinsInsufficientFundsLeavesBalance() {
	identity := s.create("alice")
	_, err := s.Storage.ApplyCoins(s.Ctx, identity.ID, 50)
	s.Require().NoError(err)

	_, err = s.Storage.ApplyCoins(s.Ctx, identity.ID, -100)
	s.ErrorIs(err, model.ErrInsufficientFunds)

	stored, err := s.Storage.GetIdentity(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal(int64(50), stored.Coins)
}

func (s *Suite) TestApplyCoinsOverflow() {
	identity := s.create("alice")
	_, err := s.Storage.ApplyCoins(s.Ctx, identity.ID, math.MaxInt64)
	s.Require().NoError(err)

	_, err = s.Storage.ApplyCoins(s.Ctx, identity.ID, 1)
	s.ErrorIs(err, model.ErrBalanceOverflow)

	stored, err := s.Storage.GetIdentity(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal(int64(math.MaxInt64), stored.Coins)
}

func (s *Suite) TestApplyCoinsNotFound() {
	_, err := s.Storage.ApplyCoins(s.Ctx, "missing", 10)
	s.ErrorIs(err, model.ErrIdentityNotFound)

	_, err = s.Storage.ApplyCoins(s.Ctx, "missing", -10)
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestApplyCoinsConcurrentAdds() {
	identity := s.create("alice")
	const workers = 20
	const amount = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Storage.ApplyCoins(s.Ctx, identity.ID, amount); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	stored, err := s.Storage.GetIdentity(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal(int64(workers*amount), stored.Coins)
}

func (s *Suite) TestApplyCoinsConcurrentDeductsNeverNegative() {
	identity := s.create("alice")
	_, err := s.Storage.ApplyCoins(s.Ctx, identity.ID, 50)
	s.Require().NoError(err)

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Storage.ApplyCoins(s.Ctx, identity.ID, -10)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(5, succeeded)
	stored, err := s.Storage.GetIdentity(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), stored.Coins)
}

// Profile tests

func (s *Suite) TestMergeProfile() {
	identity := s.create("alice")

	merged, err := s.Storage.MergeProfile(s.Ctx, identity.ID, model.Profile{"level": json.Number("3")})
	s.Require().NoError(err)
	s.Equal(json.Number("3"), merged["level"])

	merged, err = s.Storage.MergeProfile(s.Ctx, identity.ID, model.Profile{"score": json.Number("10")})
	s.Require().NoError(err)
	s.Equal(model.Profile{"level": json.Number("3"), "score": json.Number("10")}, merged)

	merged, err = s.Storage.MergeProfile(s.Ctx, identity.ID, model.Profile{"level": json.Number("4")})
	s.Require().NoError(err)
	s.Equal(model.Profile{"level": json.Number("4"), "score": json.Number("10")}, merged)

	stored, err := s.Storage.GetIdentity(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal(model.Profile{"level": json.Number("4"), "score": json.Number("10")}, stored.Profile)
}

func (s *Suite) TestMergeProfileNestedValue() {
	identity := s.create("alice")

	prefs := map[string]any{"theme": "dark"}
	merged, err := s.Storage.MergeProfile(s.Ctx, identity.ID, model.Profile{"preferences": prefs})
	s.Require().NoError(err)

	got, ok := merged["preferences"].(map[string]any)
	s.Require().True(ok)
	s.Equal("dark", got["theme"])

	// the caller's patch is not retained
	prefs["theme"] = "light"
	stored, err := s.Storage.GetIdentity(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal(map[string]any{"theme": "dark"}, stored.Profile["preferences"])
}

func (s *Suite) TestMergeProfileKeepsLargeIntegersExact() {
	identity := s.create("alice")

	_, err := s.Storage.MergeProfile(s.Ctx, identity.ID, model.Profile{
		"score":       json.Number("9007199254740993"),
		"preferences": map[string]any{"seed": json.Number("-9223372036854775808")},
	})
	s.Require().NoError(err)

	stored, err := s.Storage.GetIdentity(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal(json.Number("9007199254740993"), stored.Profile["score"])
	s.Equal(map[string]any{"seed": json.Number("-9223372036854775808")}, stored.Profile["preferences"])
}

func (s *Suite) TestMergeProfileNotFound() {
	_, err := s.Storage.MergeProfile(s.Ctx, "missing", model.Profile{"level": 1})
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestMergeProfileConcurrentDisjointKeys() {
	identity := s.create("alice")
	const workers = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			if _, err := s.Storage.MergeProfile(s.Ctx, identity.ID, model.Profile{key: i}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	stored, err := s.Storage.GetIdentity(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Len(stored.Profile, workers)
}

// Purchase tests

func (s *Suite) TestAppendAndListPurchases() {
	identity := s.create("alice")
	at := time.UnixMilli(1700000001000).UTC()

	first := &model.Purchase{IdentityID: identity.ID, ProductName: "Sword", PurchaseDate: at}
	s.Require().NoError(s.Storage.AppendPurchase(s.Ctx, first))
	second := &model.Purchase{IdentityID: identity.ID, ProductName: "Shield", PurchaseDate: at.Add(time.Second)}
	s.Require().NoError(s.Storage.AppendPurchase(s.Ctx, second))
	s.Greater(second.ID, first.ID)

	purchases, err := s.Storage.ListPurchases(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Require().Len(purchases, 2)
	s.Equal("Sword", purchases[0].ProductName)
	s.Equal("Shield", purchases[1].ProductName)
	s.Equal(first.ID, purchases[0].ID)
	s.True(at.Equal(purchases[0].PurchaseDate))

	again, err := s.Storage.ListPurchases(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal(purchases, again)
}

func (s *Suite) TestListPurchasesEmpty() {
	identity := s.create("alice")

	purchases, err := s.Storage.ListPurchases(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Empty(purchases)
}

func (s *Suite) TestListPurchasesIsolatedPerIdentity() {
	alice := s.create("alice")
	bob := s.create("bob")
	s.Require().NoError(s.Storage.AppendPurchase(s.Ctx, &model.Purchase{
		IdentityID: alice.ID, ProductName: "Sword", PurchaseDate: time.Now(),
	}))

	purchases, err := s.Storage.ListPurchases(s.Ctx, bob.ID)
	s.Require().NoError(err)
	s.Empty(purchases)
}

func (s *Suite) TestAppendPurchaseUnknownIdentity() {
	err := s.Storage.AppendPurchase(s.Ctx, &model.Purchase{
		IdentityID: "missing", ProductName: "Sword", PurchaseDate: time.Now(),
	})
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestPing() {
	s.NoError(s.Storage.Ping(s.Ctx))
}

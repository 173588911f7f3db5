package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/storage"
)

// applyCoinsScript checks and applies a balance change in one server-side step.
// Balances are compared as decimal strings so values near the int64 limits stay exact.
// ARGV: delta, "add" or "sub", bound (max balance before add, min balance before sub).
var applyCoinsScript = redis.NewScript(`
local coins = redis.call('HGET', KEYS[1], 'coins')
if not coins then
  return {'not_found', '0'}
end
local function less(a, b)
  if #a ~= #b then
    return #a < #b
  end
  return a < b
end
if ARGV[2] == 'add' then
  if less(ARGV[3], coins) then
    return {'overflow', coins}
  end
elseif less(coins, ARGV[3]) then
  return {'insufficient', coins}
end
redis.call('HINCRBY', KEYS[1], 'coins', ARGV[1])
return {'ok', redis.call('HGET', KEYS[1], 'coins')}
`)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the server is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// watch runs fn in an optimistic transaction over keys, retrying when a watched key changes
func (s *Storage) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for range s.cfg.MaxRetries {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return model.ErrConflict
}

// Identity operations

func (s *Storage) CreateIdentity(ctx context.Context, identity *model.Identity) error {
	profile, err := json.Marshal(profileOrEmpty(identity.Profile))
	if err != nil {
		return err
	}

	usernameKey := usernameIndexKey(identity.Username)
	secretKey := secretIndexKey(identity.Secret)

	return s.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, usernameKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return model.ErrDuplicateUsername
		}
		n, err = tx.Exists(ctx, secretKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return model.ErrDuplicateSecret
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, identityKey(identity.ID), map[string]any{
				fieldID:           string(identity.ID),
				fieldUsername:     identity.Username,
				fieldPasswordHash: identity.PasswordHash,
				fieldSecret:       identity.Secret,
				fieldCoins:        strconv.FormatInt(identity.Coins, 10),
				fieldProfile:      string(profile),
				fieldCreatedAt:    strconv.FormatInt(identity.CreatedAt.UnixMilli(), 10),
			})
			pipe.Set(ctx, usernameKey, string(identity.ID), 0)
			pipe.Set(ctx, secretKey, string(identity.ID), 0)
			return nil
		})
		return err
	}, usernameKey, secretKey)
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	fields, err := s.client.HGetAll(ctx, identityKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrIdentityNotFound
	}
	return decodeIdentity(fields)
}

func (s *Storage) GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error) {
	// Look up identity ID from username index
	id, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}
	return s.GetIdentity(ctx, model.IdentityID(id))
}

// Ledger operations

func (s *Storage) ApplyCoins(ctx context.Context, id model.IdentityID, delta int64) (int64, error) {
	mode := "add"
	var bound string
	if delta >= 0 {
		bound = strconv.FormatInt(math.MaxInt64-delta, 10)
	} else {
		mode = "sub"
		// -delta without overflowing on math.MinInt64
		bound = strconv.FormatUint(uint64(-(delta+1))+1, 10)
	}

	res, err := applyCoinsScript.Run(ctx, s.client,
		[]string{identityKey(id)},
		strconv.FormatInt(delta, 10), mode, bound,
	).StringSlice()
	if err != nil {
		return 0, fmt.Errorf("apply coins: %w", err)
	}
	if len(res) != 2 {
		return 0, fmt.Errorf("apply coins: unexpected script reply %v", res)
	}

	coins, err := strconv.ParseInt(res[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("apply coins: parse balance: %w", err)
	}

	switch res[0] {
	case "ok":
		return coins, nil
	case "not_found":
		return 0, model.ErrIdentityNotFound
	case "insufficient":
		return coins, model.ErrInsufficientFunds
	case "overflow":
		return coins, model.ErrBalanceOverflow
	default:
		return 0, fmt.Errorf("apply coins: unexpected script status %q", res[0])
	}
}

// Profile operations

func (s *Storage) MergeProfile(ctx context.Context, id model.IdentityID, patch model.Profile) (model.Profile, error) {
	key := identityKey(id)
	var merged model.Profile

	err := s.watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, fieldProfile).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrIdentityNotFound
			}
			return err
		}

		current, err := model.DecodeProfile([]byte(raw))
		if err != nil {
			return fmt.Errorf("decode profile: %w", err)
		}
		merged = current.Merge(patch)

		data, err := json.Marshal(merged)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldProfile, string(data))
			return nil
		})
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Purchase operations

// purchaseRecord is the JSON shape of a purchase list entry
type purchaseRecord struct {
	ID           int64  `json:"id"`
	IdentityID   string `json:"identity_id"`
	ProductName  string `json:"product_name"`
	PurchaseDate int64  `json:"purchase_date"`
}

func (s *Storage) AppendPurchase(ctx context.Context, purchase *model.Purchase) error {
	n, err := s.client.Exists(ctx, identityKey(purchase.IdentityID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrIdentityNotFound
	}

	seq, err := s.client.Incr(ctx, purchaseSeqKey()).Result()
	if err != nil {
		return err
	}

	data, err := json.Marshal(purchaseRecord{
		ID:           seq,
		IdentityID:   string(purchase.IdentityID),
		ProductName:  purchase.ProductName,
		PurchaseDate: purchase.PurchaseDate.UnixMilli(),
	})
	if err != nil {
		return err
	}

	if err := s.client.RPush(ctx, purchasesKey(purchase.IdentityID), data).Err(); err != nil {
		return err
	}
	purchase.ID = model.PurchaseID(seq)
	return nil
}

func (s *Storage) ListPurchases(ctx context.Context, id model.IdentityID) ([]*model.Purchase, error) {
	n, err := s.client.Exists(ctx, identityKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, model.ErrIdentityNotFound
	}

	entries, err := s.client.LRange(ctx, purchasesKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	purchases := make([]*model.Purchase, 0, len(entries))
	for _, entry := range entries {
		var rec purchaseRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			return nil, fmt.Errorf("decode purchase: %w", err)
		}
		purchases = append(purchases, &model.Purchase{
			ID:           model.PurchaseID(rec.ID),
			IdentityID:   model.IdentityID(rec.IdentityID),
			ProductName:  rec.ProductName,
			PurchaseDate: time.UnixMilli(rec.PurchaseDate).UTC(),
		})
	}
	return purchases, nil
}

func decodeIdentity(fields map[string]string) (*model.Identity, error) {
	coins, err := strconv.ParseInt(fields[fieldCoins], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode coins: %w", err)
	}
	createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	profile := model.Profile{}
	if raw := fields[fieldProfile]; raw != "" {
		if profile, err = model.DecodeProfile([]byte(raw)); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}

	return &model.Identity{
		ID:           model.IdentityID(fields[fieldID]),
		Username:     fields[fieldUsername],
		PasswordHash: fields[fieldPasswordHash],
		Secret:       fields[fieldSecret],
		Coins:        coins,
		Profile:      profile,
		CreatedAt:    time.UnixMilli(createdAt).UTC(),
	}, nil
}

func profileOrEmpty(p model.Profile) model.Profile {
	if p == nil {
		return model.Profile{}
	}
	return p
}

package redis

import (
	"fmt"

	"github.com/mcoot/gameshop/internal/model"
)

// Key prefix for all shop data
const keyPrefix = "gameshop"

// Hash fields of an identity record
const (
	fieldID           = "id"
	fieldUsername     = "username"
	fieldPasswordHash = "password_hash"
	fieldSecret       = "secret"
	fieldCoins        = "coins"
	fieldProfile      = "profile"
	fieldCreatedAt    = "created_at"
)

// identityKey returns the Redis key for the identity HASH
func identityKey(id model.IdentityID) string {
	return fmt.Sprintf("%s:identity:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> identity_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// secretIndexKey returns the Redis key for the secret -> identity_id index
func secretIndexKey(secret string) string {
	return fmt.Sprintf("%s:idx:secret:%s", keyPrefix, secret)
}

// purchasesKey returns the Redis key for the LIST of an identity's purchases
func purchasesKey(id model.IdentityID) string {
	return fmt.Sprintf("%s:purchases:%s", keyPrefix, id)
}

// purchaseSeqKey returns the Redis key of the global purchase id counter
func purchaseSeqKey() string {
	return fmt.Sprintf("%s:seq:purchase", keyPrefix)
}

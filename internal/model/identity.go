package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// IdentityID uniquely identifies a registered account
type IdentityID string

// Identity is a registered account with its credentials, coin balance and profile
type Identity struct {
	ID           IdentityID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	Secret       string // capability token, equivalent in privilege to the password
	Coins        int64
	Profile      Profile
	CreatedAt    time.Time
}

// Clone returns a copy that shares no mutable state with the receiver
func (i *Identity) Clone() *Identity {
	c := *i
	c.Profile = i.Profile.Clone()
	return &c
}

// Profile is the free-form per-identity document, restricted to allow-listed top-level keys
type Profile map[string]any

// Clone returns a deep copy of the profile; a nil profile clones to an empty one
func (p Profile) Clone() Profile {
	c := make(Profile, len(p))
	for k, v := range p {
		c[k] = cloneValue(v)
	}
	return c
}

// cloneValue copies the containers a decoded JSON document can hold
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = cloneValue(e)
		}
		return c
	case Profile:
		return t.Clone()
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	default:
		return v
	}
}

// DecodeProfile parses a stored profile document. Numbers are kept as json.Number
// so integers beyond float64 precision survive a round trip.
func DecodeProfile(data []byte) (Profile, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if p == nil {
		p = Profile{}
	}
	return p, nil
}

// Merge returns a new profile with the patch's keys overwriting the receiver's.
// Keys not present in the patch keep their previous values.
func (p Profile) Merge(patch Profile) Profile {
	merged := p.Clone()
	for k, v := range patch {
		merged[k] = cloneValue(v)
	}
	return merged
}

// Keys returns the top-level keys of the profile
func (p Profile) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	return keys
}

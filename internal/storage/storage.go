package storage

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEventNotFound = errors.New("event not found")
	ErrCacheMiss     = errors.New("cache entry not found")
	ErrDuplicate     = errors.New("record already exists")
)

// Cache key conventions. Anything inspecting the cache directly relies on
// these prefixes, so they are part of the storage contract.
const (
	RefreshKeyPrefix      = "refresh:"
	VerificationKeyPrefix = "verification:"
)

func RefreshKey(userID string) string {
	return RefreshKeyPrefix + userID
}

func VerificationKey(token string) string {
	return VerificationKeyPrefix + token
}

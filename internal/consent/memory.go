// Package consent implements the consent gate the pipeline checks
// before touching any user's financial data.
package consent

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/calluna/finsight/internal/common"
)

// MemoryStore is an in-process TTL-backed consent store. It is the
// default backend and the one used by tests.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a consent store whose entries expire after ttl.
// A non-positive ttl means entries never expire.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryStore{
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// HasConsent reports the user's recorded consent decision.
func (s *MemoryStore) HasConsent(_ context.Context, userID string) (bool, error) {
	v, ok := s.cache.Get(userID)
	if !ok {
		return false, fmt.Errorf("%w for user %s", common.ErrNoConsentRecord, userID)
	}
	granted, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w for user %s", common.ErrNoConsentRecord, userID)
	}
	return granted, nil
}

// SetConsent records a consent decision.
func (s *MemoryStore) SetConsent(_ context.Context, userID string, granted bool) error {
	s.cache.Set(userID, granted, gocache.DefaultExpiration)
	return nil
}

// RevokeConsent records an explicit denial. A revocation is a decision,
// not an absence of one.
func (s *MemoryStore) RevokeConsent(ctx context.Context, userID string) error {
	return s.SetConsent(ctx, userID, false)
}

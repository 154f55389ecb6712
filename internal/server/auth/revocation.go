package auth

import (
	"context"
	"sync"
	"time"
)

// Revoker records revoked token ids until the tokens would have expired
// anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevoker is a process-local Revoker. Entries past their token's
// expiry are dropped by Cleanup.
type MemoryRevoker struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *MemoryRevoker) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[jti] = expiresAt
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[jti]
	return ok, nil
}

// Cleanup removes entries whose expiry is not after now and reports how many
// were removed.
func (r *MemoryRevoker) Cleanup(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for jti, expiresAt := range r.entries {
		if !now.Before(expiresAt) {
			delete(r.entries, jti)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked ids.
func (r *MemoryRevoker) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (r *MemoryRevoker) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Cleanup(r.now())
		}
	}
}

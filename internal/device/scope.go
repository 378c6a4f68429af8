package device

import (
	"context"
	"sync"
)

// ScopeResolver answers whether a device has more than one published
// firmware version, which controls whether the dashboard offers a
// version picker or pushes the only version directly.
//
// Counts are cached per codename on first lookup and served from the
// cache until invalidated. Every mutation of a device's firmware
// versions must call Invalidate for that codename.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type ScopeResolver struct {
	repo Repository

	mu     sync.Mutex
	counts map[string]int
}

// NewScopeResolver creates a resolver backed by the given registry.
func NewScopeResolver(repo Repository) *ScopeResolver {
	return &ScopeResolver{
		repo:   repo,
		counts: map[string]int{},
	}
}

// VersionCount returns the number of firmware versions published for
// the device, from cache when possible.
func (s *ScopeResolver) VersionCount(ctx context.Context, codename string) (int, error) {
	s.mu.Lock()
	if count, ok := s.counts[codename]; ok {
		s.mu.Unlock()
		return count, nil
	}
	s.mu.Unlock()

	count, err := s.repo.VersionCount(ctx, codename)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.counts[codename] = count
	s.mu.Unlock()

	return count, nil
}

// HasMultipleVersions reports whether the device has more than one
// published firmware version.
func (s *ScopeResolver) HasMultipleVersions(ctx context.Context, codename string) (bool, error) {
	count, err := s.VersionCount(ctx, codename)
	if err != nil {
		return false, err
	}
	return count > 1, nil
}

// Invalidate drops the cached count for a device. Called after a
// firmware version is added or the device is deleted.
func (s *ScopeResolver) Invalidate(codename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, codename)
}

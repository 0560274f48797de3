// Package token owns the live credential pair: two named string slots for
// the access and refresh tokens, with helpers to test expiry and
// refresh-eligibility from a JWT payload.
package token

import "sync"

// Slot names the two credential slots. The values double as the persisted
// keys.
type Slot string

const (
	SlotAccess  Slot = "access_token"
	SlotRefresh Slot = "refresh_token"
)

// Store persists the credential pair. Tokens are opaque strings; the store
// never inspects their contents. Implementations are safe for concurrent
// use, and SetPair replaces both values as one atomic write.
type Store interface {
	Get(slot Slot) (string, bool)
	Set(slot Slot, value string) error
	// Pair returns both slots in one read.
	Pair() (access, refresh string)
	// SetPair stores a freshly issued pair. An empty refresh keeps the
	// existing refresh token (the server rotated only the access token).
	SetPair(access, refresh string) error
	Clear() error
}

// MemoryStore is the in-process Store. It does not survive a restart; use
// BunStore when the pair must outlive the process.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[Slot]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[Slot]string, 2)}
}

func (s *MemoryStore) Get(slot Slot) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.slots[slot]
	return v, ok && v != ""
}

func (s *MemoryStore) Set(slot Slot, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = value
	return nil
}

func (s *MemoryStore) Pair() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[SlotAccess], s.slots[SlotRefresh]
}

func (s *MemoryStore) SetPair(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[SlotAccess] = access
	if refresh != "" {
		s.slots[SlotRefresh] = refresh
	}
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[Slot]string, 2)
	return nil
}

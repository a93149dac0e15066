package session

import "sync"

// MemoryStore keeps the credential in process memory only.
type MemoryStore struct {
	cred *Credential
	mu   sync.Mutex
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored credential if still usable.
func (s *MemoryStore) Load() (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return Credential{}, ErrNoCredential
	}
	if !s.cred.Usable() {
		s.cred = nil
		return Credential{}, ErrNoCredential
	}
	return *s.cred, nil
}

// Save replaces the stored credential.
func (s *MemoryStore) Save(cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = &cred
	return nil
}

// Clear drops the stored credential.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}

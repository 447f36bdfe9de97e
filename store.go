package session

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultStorageKey is the fixed name the metadata record persists under.
const DefaultStorageKey = "app:session-metadata"

// lastLoginKeySuffix extends the storage key for the minimal "last known
// login name" record, which intentionally survives a full logout.
const lastLoginKeySuffix = ":last-login-name"

// SessionMetadata is the persisted session state. AccessExpiresAt is expected
// to be at or before RefreshExpiresAt; a violation is treated as "already
// expired" rather than rejected.
type SessionMetadata struct {
	Identity         Identity  `json:"identity"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AccessValidAt reports whether the access credential is still valid at the
// given instant, with a safety margin before the recorded expiry.
func (m SessionMetadata) AccessValidAt(now time.Time, margin time.Duration) bool {
	if m.AccessExpiresAt.IsZero() {
		return false
	}
	return m.AccessExpiresAt.After(now.Add(margin))
}

// RefreshValidAt reports whether the refresh credential window is still open.
func (m SessionMetadata) RefreshValidAt(now time.Time) bool {
	if m.RefreshExpiresAt.IsZero() {
		return false
	}
	return m.RefreshExpiresAt.After(now)
}

// Locked reports whether the session is paused: identity retained while both
// expiry fields are cleared.
func (m SessionMetadata) Locked() bool {
	return !m.Identity.IsZero() && m.AccessExpiresAt.IsZero() && m.RefreshExpiresAt.IsZero()
}

// Store holds current identity and token expiries. The in-memory copy is the
// fast path; every mutation writes through to the durable KeyValue record so
// the session survives a reload, and the persisted copy is only read back
// once, at boot.
type Store struct {
	mu     sync.RWMutex
	kv     KeyValue
	key    string
	logger Logger

	loaded  bool
	current *SessionMetadata
}

// StoreOption customizes store construction.
type StoreOption func(*Store)

// WithStoreLogger sets the logger persistence anomalies are reported through.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStorageKey overrides the fixed record name.
func WithStorageKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// NewStore returns a Store persisting through kv.
func NewStore(kv KeyValue, opts ...StoreOption) *Store {
	s := &Store{
		kv:     kv,
		key:    DefaultStorageKey,
		logger: defLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the current metadata, or nil when none is known.
// The first call recovers the persisted record; a corrupt record reads as
// absent and is logged, never returned as an error.
func (s *Store) Get() *SessionMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.current = s.recover()
		s.loaded = true
	}

	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Set replaces the metadata wholesale and writes it through.
func (s *Store) Set(meta SessionMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = &meta
	s.loaded = true
	s.persist()
}

// MergeExpiry updates only the expiry fields, keeping the identity constant.
// Used by a successful silent refresh.
func (s *Store) MergeExpiry(accessExpiresAt, refreshExpiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.current = s.recover()
		s.loaded = true
	}
	if s.current == nil {
		return
	}

	s.current.AccessExpiresAt = accessExpiresAt
	s.current.RefreshExpiresAt = refreshExpiresAt
	s.persist()
}

// LockTokens zeroes both expiry fields while retaining the identity, so a
// paused session still remembers who was using the screen.
func (s *Store) LockTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.current = s.recover()
		s.loaded = true
	}
	if s.current == nil {
		return
	}

	s.current.AccessExpiresAt = time.Time{}
	s.current.RefreshExpiresAt = time.Time{}
	s.persist()
}

// Clear removes everything, including the persisted copy. The last known
// login name record is left behind on purpose.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.loaded = true
	if err := s.kv.Delete(s.key); err != nil {
		s.logger.Error("failed to delete persisted session metadata", "error", err)
	}
}

// RememberLoginName records the last login name used successfully.
func (s *Store) RememberLoginName(name string) {
	if name == "" {
		return
	}
	if err := s.kv.Put(s.key+lastLoginKeySuffix, []byte(name)); err != nil {
		s.logger.Error("failed to persist last login name", "error", err)
	}
}

// LastLoginName returns the last login name seen, or "".
func (s *Store) LastLoginName() string {
	raw, err := s.kv.Get(s.key + lastLoginKeySuffix)
	if err != nil {
		s.logger.Error("failed to read last login name", "error", err)
		return ""
	}
	return string(raw)
}

// recover reads the persisted record. Callers hold s.mu.
func (s *Store) recover() *SessionMetadata {
	raw, err := s.kv.Get(s.key)
	if err != nil {
		s.logger.Error("failed to read persisted session metadata", "error", err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	var meta SessionMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		// Fail soft: a corrupt record reads as absence.
		s.logger.Warn("corrupt persisted session metadata, treating as absent",
			"error", err, "cause", ErrCorruptLocalState.Message)
		return nil
	}
	return &meta
}

// persist writes the current record through. Callers hold s.mu.
func (s *Store) persist() {
	raw, err := json.Marshal(s.current)
	if err != nil {
		s.logger.Error("failed to encode session metadata", "error", err)
		return
	}
	if err := s.kv.Put(s.key, raw); err != nil {
		s.logger.Error("failed to persist session metadata", "error", err)
	}
}

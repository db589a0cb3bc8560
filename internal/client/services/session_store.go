package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophstash/internal/client/models"
	"github.com/dmitrijs2005/gophstash/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophstash/internal/common"
	"github.com/dmitrijs2005/gophstash/internal/cryptox"
	"github.com/dmitrijs2005/gophstash/internal/logging"
)

// SessionStore persists the current session in the metadata table. With a
// passphrase the value is sealed with a key derived from it and a random
// salt stored next to the session.
type SessionStore struct {
	repo       metadata.Repository
	passphrase []byte
	logger     logging.Logger

	mu  sync.Mutex
	key []byte
}

func NewSessionStore(repo metadata.Repository, passphrase string, l logging.Logger) *SessionStore {
	s := &SessionStore{repo: repo, logger: l.With("module", "session_store")}
	if passphrase != "" {
		s.passphrase = []byte(passphrase)
	}
	return s
}

// Encrypted reports whether sessions are sealed at rest.
func (s *SessionStore) Encrypted() bool {
	return len(s.passphrase) > 0
}

// Load returns the stored session, or nil when there is none. A value that
// cannot be decoded (wrong passphrase, encryption toggled) reads as no
// session.
func (s *SessionStore) Load(ctx context.Context) (*models.Session, error) {
	raw, err := s.repo.Get(ctx, metadata.KeySession)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var sess models.Session
	if s.Encrypted() {
		key, err := s.deriveKey(ctx)
		if err != nil {
			return nil, err
		}
		if key == nil {
			s.logger.Warn(ctx, "Stored session has no salt, ignoring it")
			return nil, nil
		}
		if err := cryptox.Open(raw, key, &sess); err != nil {
			s.logger.Warn(ctx, "Cannot decrypt stored session, ignoring it", "error", err)
			return nil, nil
		}
	} else if err := json.Unmarshal(raw, &sess); err != nil {
		s.logger.Warn(ctx, "Cannot decode stored session, ignoring it", "error", err)
		return nil, nil
	}

	if !sess.Valid() {
		return nil, nil
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *models.Session) error {
	if sess == nil {
		return s.Clear(ctx)
	}

	if !s.Encrypted() {
		raw, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		return s.repo.Set(ctx, metadata.KeySession, raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, salt, err := s.keyLocked(ctx, true)
	if err != nil {
		return err
	}
	raw, err := cryptox.Seal(sess, key)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if salt == nil {
		return s.repo.Set(ctx, metadata.KeySession, raw)
	}

	// A fresh salt is stored together with the first session sealed by it.
	if err := s.repo.SetMany(ctx, map[string][]byte{
		metadata.KeySessionSalt: salt,
		metadata.KeySession:     raw,
	}); err != nil {
		return err
	}
	s.key = key
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, metadata.KeySession)
}

// deriveKey returns the key derived from the stored salt, or nil when no
// salt is stored yet.
func (s *SessionStore) deriveKey(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, _, err := s.keyLocked(ctx, false)
	return key, err
}

// keyLocked returns the cached or derived key. With create set and no salt
// stored, it derives a key from a new salt and returns that salt for the
// caller to persist; the key is cached only once the salt is stored.
func (s *SessionStore) keyLocked(ctx context.Context, create bool) ([]byte, []byte, error) {
	if s.key != nil {
		return s.key, nil, nil
	}

	salt, err := s.repo.Get(ctx, metadata.KeySessionSalt)
	if err != nil {
		return nil, nil, err
	}
	if len(salt) > 0 {
		s.key = cryptox.DeriveKey(s.passphrase, salt)
		return s.key, nil, nil
	}
	if !create {
		return nil, nil, nil
	}

	salt = common.GenerateRandByteArray(cryptox.SaltSize)
	return cryptox.DeriveKey(s.passphrase, salt), salt, nil
}

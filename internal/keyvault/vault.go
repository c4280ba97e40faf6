// Package keyvault caches caller-supplied provider keys per session, sealed
// with AES-256-GCM, so a browser session does not resend keys on every call.
// Keys live only in process memory.
package keyvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/abhisek/tutorgate/internal/llm"
	"github.com/abhisek/tutorgate/internal/logging"
)

const (
	DefaultTTL         = 30 * time.Minute
	DefaultMaxFailures = 3
)

// ErrNoSession is returned when an operation needs a session id and got none.
var ErrNoSession = errors.New("session id is required")

// Config configures a Vault.
type Config struct {
	// Secret is the process master secret. A random one is generated when
	// empty, which makes cached keys unreadable after a restart.
	Secret []byte

	// TTL is how long an idle session's keys are kept.
	TTL time.Duration

	// MaxFailures is the number of consecutive failed calls after which a
	// key is dropped.
	MaxFailures int
}

// Vault is a session-scoped, encrypted key cache. It is safe for
// concurrent use.
type Vault struct {
	secret      []byte
	ttl         time.Duration
	maxFailures int
	log         *logging.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	keys     []*sealedKey
	lastUsed time.Time
}

type sealedKey struct {
	provider llm.ProviderID
	sealed   []byte // nonce || ciphertext
	failures int
}

// New creates a Vault.
func New(cfg Config, log *logging.Logger) (*Vault, error) {
	secret := cfg.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, secret); err != nil {
			return nil, fmt.Errorf("generate vault secret: %w", err)
		}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Vault{
		secret:      secret,
		ttl:         cfg.TTL,
		maxFailures: cfg.MaxFailures,
		log:         log,
		now:         time.Now,
		sessions:    make(map[string]*session),
	}, nil
}

// Put replaces the session's cached keys with the well-formed subset of
// creds and returns how many were stored.
func (v *Vault) Put(sessionID string, creds []llm.Credential) (int, error) {
	if sessionID == "" {
		return 0, ErrNoSession
	}
	aead, err := v.sessionCipher(sessionID)
	if err != nil {
		return 0, err
	}

	var keys []*sealedKey
	for _, c := range creds {
		c = c.Resolve()
		if !c.Valid() {
			continue
		}
		nonce := make([]byte, aead.NonceSize())
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return 0, fmt.Errorf("generate nonce: %w", err)
		}
		keys = append(keys, &sealedKey{
			provider: c.Provider,
			sealed:   aead.Seal(nonce, nonce, []byte(c.Key), []byte(c.Provider)),
		})
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if len(keys) == 0 {
		delete(v.sessions, sessionID)
		return 0, nil
	}
	v.sessions[sessionID] = &session{keys: keys, lastUsed: v.now()}
	return len(keys), nil
}

// Keys returns the session's cached credentials in the order they were
// stored. An unknown or expired session yields no credentials.
func (v *Vault) Keys(sessionID string) ([]llm.Credential, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.live(sessionID)
	if !ok {
		return nil, nil
	}
	s.lastUsed = v.now()

	aead, err := v.sessionCipher(sessionID)
	if err != nil {
		return nil, err
	}
	creds := make([]llm.Credential, 0, len(s.keys))
	for _, k := range s.keys {
		key, err := open(aead, k)
		if err != nil {
			return nil, err
		}
		creds = append(creds, llm.Credential{Key: key, Provider: k.provider})
	}
	return creds, nil
}

// Report feeds gateway attempt outcomes back into the failure counters.
// creds must be the slice that was passed to the gateway call.
func (v *Vault) Report(sessionID string, creds []llm.Credential, attempts []llm.Attempt) {
	for _, a := range attempts {
		if a.KeyIndex < 0 || a.KeyIndex >= len(creds) {
			continue
		}
		key := creds[a.KeyIndex].Key
		if a.Succeeded() {
			v.RecordSuccess(sessionID, key)
		} else {
			v.RecordFailure(sessionID, key)
		}
	}
}

// RecordFailure counts a failed call for key. The key is dropped once it
// reaches the failure limit. It reports whether the key was dropped.
func (v *Vault) RecordFailure(sessionID, key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, idx := v.find(sessionID, key)
	if idx < 0 {
		return false
	}
	k := s.keys[idx]
	k.failures++
	if k.failures < v.maxFailures {
		return false
	}

	s.keys = append(s.keys[:idx], s.keys[idx+1:]...)
	if len(s.keys) == 0 {
		delete(v.sessions, sessionID)
	}
	v.log.Info("vault key invalidated", "session_id", sessionID, "provider", k.provider, "failures", k.failures)
	return true
}

// RecordSuccess resets the failure counter for key.
func (v *Vault) RecordSuccess(sessionID, key string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, idx := v.find(sessionID, key); idx >= 0 {
		s.keys[idx].failures = 0
	}
}

// Clear forgets all keys of a session.
func (v *Vault) Clear(sessionID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.sessions, sessionID)
}

// Sweep drops every session idle for longer than the TTL and returns the
// number dropped.
func (v *Vault) Sweep(now time.Time) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := 0
	for id, s := range v.sessions {
		if now.Sub(s.lastUsed) > v.ttl {
			delete(v.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of sessions holding keys.
func (v *Vault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.sessions)
}

// live returns the session if it exists and has not expired. Expired
// sessions are removed. Callers hold v.mu.
func (v *Vault) live(sessionID string) (*session, bool) {
	s, ok := v.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if v.now().Sub(s.lastUsed) > v.ttl {
		delete(v.sessions, sessionID)
		return nil, false
	}
	return s, true
}

// find locates key within a live session. Callers hold v.mu.
func (v *Vault) find(sessionID, key string) (*session, int) {
	s, ok := v.live(sessionID)
	if !ok {
		return nil, -1
	}
	aead, err := v.sessionCipher(sessionID)
	if err != nil {
		return nil, -1
	}
	for i, k := range s.keys {
		if plain, err := open(aead, k); err == nil && plain == key {
			return s, i
		}
	}
	return nil, -1
}

// sessionCipher derives the per-session AES-256-GCM cipher from the master
// secret with HKDF-SHA256.
func (v *Vault) sessionCipher(sessionID string) (cipher.AEAD, error) {
	kdf := hkdf.New(sha256.New, v.secret, nil, []byte("tutorgate keyvault v1:"+sessionID))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return aead, nil
}

func open(aead cipher.AEAD, k *sealedKey) (string, error) {
	n := aead.NonceSize()
	if len(k.sealed) < n {
		return "", errors.New("sealed key too short")
	}
	plain, err := aead.Open(nil, k.sealed[:n], k.sealed[n:], []byte(k.provider))
	if err != nil {
		return "", fmt.Errorf("open sealed key: %w", err)
	}
	return string(plain), nil
}

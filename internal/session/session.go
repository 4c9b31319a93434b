package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/geocoder89/fintrack/internal/observability"
)

var ErrNoSession = errors.New("no active session")

const tokenBytes = 32

// Backend stores session keys mapped to a user id until they expire.
type Backend interface {
	Save(ctx context.Context, key string, userID int64, ttl time.Duration) error
	Load(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
}

// Manager issues opaque session tokens. Only an HMAC of each token reaches
// the backend, so a leaked backend cannot be replayed as cookies.
type Manager struct {
	backend Backend
	secret  []byte
	ttl     time.Duration
	prom    *observability.Prom
	now     func() time.Time
}

func NewManager(backend Backend, secret string, ttl time.Duration, prom *observability.Prom) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Manager{
		backend: backend,
		secret:  []byte(secret),
		ttl:     ttl,
		prom:    prom,
		now:     time.Now,
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Start opens a session for userID and returns the raw token for the cookie.
func (m *Manager) Start(ctx context.Context, userID int64) (token string, expiresAt time.Time, err error) {
	token, err = newToken()
	if err != nil {
		return "", time.Time{}, err
	}

	if err = m.backend.Save(ctx, m.key(token), userID, m.ttl); err != nil {
		return "", time.Time{}, err
	}

	m.prom.SessionStarted()
	return token, m.now().UTC().Add(m.ttl), nil
}

// Resolve returns the user the token belongs to, or ErrNoSession.
func (m *Manager) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrNoSession
	}

	return m.backend.Load(ctx, m.key(token))
}

// End forgets the token. Ending an unknown token is not an error.
func (m *Manager) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	err := m.backend.Delete(ctx, m.key(token))

	if errors.Is(err, ErrNoSession) {
		return nil
	}

	if err == nil {
		m.prom.SessionEnded()
	}

	return err
}

func (m *Manager) key(token string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)

	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

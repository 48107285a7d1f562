// Package auth scopes API requests to a note owner, either from a server-side
// session or from a fixed development owner.
//
// Session keys should be 32 or 64 bytes for HMAC authentication,
// and 16, 24, or 32 bytes for AES encryption. Production deployments
// must use cryptographically random keys generated with:
//
//	openssl rand -base64 32
package auth

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "notekeeper:session:"
	sessionMaxAge    = 7 * 24 * time.Hour
)

// errSessionMissing is returned by a backend when the key does not exist.
var errSessionMissing = errors.New("session not found")

// sessionBackend is the key-value subset of Redis the store needs.
type sessionBackend interface {
	get(ctx context.Context, key string) ([]byte, error)
	set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	del(ctx context.Context, key string) error
}

type redisBackend struct{ client *redis.Client }

func (b redisBackend) get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errSessionMissing
	}
	return data, err
}

func (b redisBackend) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b redisBackend) del(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

// SessionStore is a sessions.Store whose data lives server-side. Only an
// encrypted, authenticated session ID travels in the cookie.
//
// Keys: "notekeeper:session:<id>" with TTL equal to the session MaxAge.
// Values are gob-encoded.
type SessionStore struct {
	backend sessionBackend
	codecs  []securecookie.Codec
	options *sessions.Options
}

// NewSessionStore returns a Redis-backed SessionStore. Cookies are HttpOnly,
// SameSite Lax, expire after 7 days, and are Secure when secureCookie is set.
func NewSessionStore(client *redis.Client, authKey, encryptionKey []byte, secureCookie bool) *SessionStore {
	return newSessionStore(redisBackend{client: client}, authKey, encryptionKey, secureCookie)
}

func newSessionStore(backend sessionBackend, authKey, encryptionKey []byte, secureCookie bool) *SessionStore {
	return &SessionStore{
		backend: backend,
		codecs:  securecookie.CodecsFromPairs(authKey, encryptionKey),
		options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(sessionMaxAge / time.Second),
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Get returns the named session, cached per request.
func (s *SessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, tampered or
// expired cookie yields a fresh session and no error.
func (s *SessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := s.fresh(name)

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return session, nil
	}

	session.ID = id
	if err := s.load(r.Context(), session); err != nil {
		session.ID = ""
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

// Save persists the session and writes the cookie. MaxAge < 0 deletes both.
func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			_ = s.backend.del(r.Context(), sessionKeyPrefix+session.ID)
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	encoded, err := s.persist(r.Context(), session)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// IssueOwnerSession creates a session for ownerID and returns the cookie
// value that RequireAuth accepts under SessionName. The notes CLI sends it
// as NOTES_SESSION_COOKIE.
func (s *SessionStore) IssueOwnerSession(ctx context.Context, ownerID uuid.UUID) (string, error) {
	if ownerID == uuid.Nil {
		return "", fmt.Errorf("issue session: %w", ErrOwnerIDNotFound)
	}
	session := s.fresh(SessionName)
	session.Values[sessionOwnerIDKey] = ownerID.String()
	return s.persist(ctx, session)
}

func (s *SessionStore) fresh(name string) *sessions.Session {
	session := sessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true
	return session
}

// persist assigns an ID if needed, stores the values and returns the encoded cookie value.
func (s *SessionStore) persist(ctx context.Context, session *sessions.Session) (string, error) {
	if session.ID == "" {
		session.ID = strings.TrimRight(
			base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)),
			"=",
		)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return "", fmt.Errorf("encode session values: %w", err)
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.backend.set(ctx, sessionKeyPrefix+session.ID, buf.Bytes(), ttl); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return "", fmt.Errorf("encode session cookie: %w", err)
	}
	return encoded, nil
}

func (s *SessionStore) load(ctx context.Context, session *sessions.Session) error {
	data, err := s.backend.get(ctx, sessionKeyPrefix+session.ID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(&session.Values)
}

// Package auth resolves a caller's client identity and granted
// permissions from a presented API key. Key issuance endpoints are out
// of scope; CreateKey exists for seeding and operational tooling.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pulse/app/internal/cache"
	"pulse/app/internal/database"
	"pulse/app/internal/httperr"
)

// Caller is a resolved identity with its permissions.
type Caller struct {
	ClientID string
	CanRead  bool
	CanWrite bool
}

// Authority verifies API keys against the store. Verified keys are
// cached briefly because bcrypt is far too slow to run per request.
type Authority struct {
	verified *cache.Cache
}

// NewAuthority creates an Authority with a 60-second verification cache.
func NewAuthority() *Authority {
	return &Authority{verified: cache.New(60 * time.Second)}
}

// CreateKey issues a new API key for a client and returns the one-time
// presentable token. Only the bcrypt hash of the secret is stored.
func (a *Authority) CreateKey(clientID string, canRead, canWrite bool) (string, error) {
	keyID := uuid.NewString()
	secret := uuid.NewString()

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	readInt, writeInt := 0, 0
	if canRead {
		readInt = 1
	}
	if canWrite {
		writeInt = 1
	}
	_, err = database.DB.Exec(`
		INSERT INTO api_keys (key_id, client_id, secret_hash, can_read, can_write, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		keyID, clientID, string(hash), readInt, writeInt, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", database.Classify(err)
	}
	return "pk_" + keyID + "_" + secret, nil
}

// Verify resolves a presented token to a Caller, or nil when the token
// is missing, malformed, unknown or wrong.
func (a *Authority) Verify(token string) *Caller {
	if token == "" {
		return nil
	}
	if c, ok := a.verified.Get(token); ok {
		caller := c.(Caller)
		return &caller
	}

	parts := strings.SplitN(token, "_", 3)
	if len(parts) != 3 || parts[0] != "pk" {
		return nil
	}

	var clientID, secretHash string
	var canRead, canWrite int
	err := database.DB.QueryRow(`
		SELECT client_id, secret_hash, can_read, can_write FROM api_keys WHERE key_id = ?`,
		parts[1]).Scan(&clientID, &secretHash, &canRead, &canWrite)
	if err != nil {
		return nil
	}
	if bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(parts[2])) != nil {
		return nil
	}

	caller := Caller{ClientID: clientID, CanRead: canRead != 0, CanWrite: canWrite != 0}
	a.verified.Set(token, caller)
	return &caller
}

type ctxKey struct{}

// CallerFrom returns the Caller attached to the request context, or nil.
func CallerFrom(ctx context.Context) *Caller {
	c, _ := ctx.Value(ctxKey{}).(*Caller)
	return c
}

// RequireWrite is middleware admitting only callers with write permission.
func (a *Authority) RequireWrite(next http.HandlerFunc) http.HandlerFunc {
	return a.require(next, func(c *Caller) bool { return c.CanWrite })
}

// RequireRead is middleware admitting only callers with read permission.
func (a *Authority) RequireRead(next http.HandlerFunc) http.HandlerFunc {
	return a.require(next, func(c *Caller) bool { return c.CanRead })
}

func (a *Authority) require(next http.HandlerFunc, allowed func(*Caller) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := a.Verify(bearerToken(r))
		if caller == nil || !allowed(caller) {
			httperr.Write(w, httperr.Unauthorized("missing or invalid credentials"))
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, caller)))
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

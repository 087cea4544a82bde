// Package draftmode keeps the per-browser content-state marker set by the
// preview gate. The marker is a short-lived HS256 token in an HttpOnly
// cookie, signed with a key derived from the preview secret.
package draftmode

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// CookieName is the name of the draft-mode cookie.
const CookieName = "__preview_draft"

const (
	subject   = "draft"
	keyInfo   = "draft-mode-cookie"
	keyLength = 32
	// DefaultTTL is how long an enabled marker stays valid.
	DefaultTTL = time.Hour
)

// ErrEmptySecret is returned when no secret is available to derive the signing key.
var ErrEmptySecret = errors.New("draftmode: empty secret")

// Manager issues, clears and verifies the draft-mode cookie.
type Manager struct {
	key    []byte
	secure bool
	ttl    time.Duration
	now    func() time.Time
}

// NewManager derives the signing key from secret.
func NewManager(secret string, secure bool) (*Manager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive draft-mode key: %w", err)
	}
	return &Manager{key: key, secure: secure, ttl: DefaultTTL, now: time.Now}, nil
}

// Enable writes a fresh marker cookie.
func (m *Manager) Enable(w http.ResponseWriter) error {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})
	signed, err := token.SignedString(m.key)
	if err != nil {
		return fmt.Errorf("sign draft-mode token: %w", err)
	}
	http.SetCookie(w, m.cookie(signed, int(m.ttl.Seconds())))
	return nil
}

// Disable expires the marker cookie.
func (m *Manager) Disable(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1))
}

// IsEnabled reports whether r carries a valid, unexpired marker.
func (m *Manager) IsEnabled(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false
	}
	_, err = jwt.ParseWithClaims(c.Value, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	return err == nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

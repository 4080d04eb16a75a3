package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errBadToken = errors.New("invalid session token")

type claims struct {
	Slot string `json:"slot"`
	jwt.RegisteredClaims
}

// CookieCodec signs and verifies session cookies. One codec is shared by the
// whole server; per-request stores are derived from it with Store.
type CookieCodec struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewCookieCodec builds a codec. secure sets the cookie Secure flag.
func NewCookieCodec(secret string, ttl time.Duration, secure bool) *CookieCodec {
	return &CookieCodec{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// Store returns a session Store bound to one request/response pair.
func (c *CookieCodec) Store(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{codec: c, w: w, r: r, pending: make(map[string]*string)}
}

func (c *CookieCodec) sign(slot, name string) (string, error) {
	now := c.now()
	cl := claims{
		Slot: slot,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
}

func (c *CookieCodec) parse(raw, slot string) (string, error) {
	tok, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errBadToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return "", err
	}
	cl, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid || cl.Slot != slot || cl.Subject == "" {
		return "", errBadToken
	}
	return cl.Subject, nil
}

// CookieStore keeps each session slot in its own signed cookie. Writes made
// during the request are visible to later reads in the same request.
type CookieStore struct {
	codec   *CookieCodec
	w       http.ResponseWriter
	r       *http.Request
	pending map[string]*string
}

// Load reads the slot from the request cookie. A missing, expired or
// tampered cookie reads as no session.
func (s *CookieStore) Load(_ context.Context, key string) (string, bool, error) {
	if v, ok := s.pending[key]; ok {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}
	ck, err := s.r.Cookie(key)
	if err != nil || strings.TrimSpace(ck.Value) == "" {
		return "", false, nil
	}
	name, err := s.codec.parse(ck.Value, key)
	if err != nil {
		return "", false, nil
	}
	return name, true, nil
}

func (s *CookieStore) Save(_ context.Context, key, value string) error {
	token, err := s.codec.sign(key, value)
	if err != nil {
		return err
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    token,
		Path:     "/",
		Expires:  s.codec.now().Add(s.codec.ttl),
		HttpOnly: true,
		Secure:   s.codec.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.pending[key] = &value
	return nil
}

func (s *CookieStore) Remove(_ context.Context, key string) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.codec.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.pending[key] = nil
	return nil
}

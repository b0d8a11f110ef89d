// internal/auth/tokens.go
//
// JWT and cookie handling.
//
// Tokens are HS256 with "id" and "username" claims. They are read from an
// "Authorization: Bearer" header first, then from the auth cookie.
// Guests get a long-lived anonymous id cookie instead.

package auth

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// AnonCookieName holds the id of a guest who has not signed in.
const AnonCookieName = "geoquest_anon"

// Claims is the identity carried by a token.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Tokens signs and verifies JWTs and writes the matching cookies.
type Tokens struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

func NewTokens(secret string, ttl time.Duration, cookieName string, secure bool) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, cookieName: cookieName, secure: secure}
}

// TokensFromEnv reads JWT_SECRET, JWT_EXPIRES_DAYS (default 14), COOKIE_NAME and APP_ENV.
func TokensFromEnv() *Tokens {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev_secret_change_me"
	}
	days := 14
	if v := os.Getenv("JWT_EXPIRES_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	name := os.Getenv("COOKIE_NAME")
	if name == "" {
		name = "geoquest_token"
	}
	return NewTokens(secret, time.Duration(days)*24*time.Hour, name, os.Getenv("APP_ENV") == "production")
}

// Sign creates a token for the player and returns its expiry.
func (t *Tokens) Sign(id, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := tok.SignedString(t.secret)
	return ss, exp, err
}

// Parse verifies a token and extracts its claims.
func (t *Tokens) Parse(tokenStr string) (Claims, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{ID: id, Username: username}, nil
}

func (t *Tokens) sameSite() http.SameSite {
	if t.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetCookie writes the auth token cookie.
func (t *Tokens) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: t.sameSite(),
		Expires:  exp,
	})
}

// ClearCookie deletes the auth token cookie.
func (t *Tokens) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: t.sameSite(),
		MaxAge:   -1,
	})
}

// FromRequest extracts a bearer token from the Authorization header or the auth cookie.
func (t *Tokens) FromRequest(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(t.cookieName); err == nil {
		return c.Value
	}
	return ""
}

// EnsureAnonID returns an existing anonymous id cookie or sets a new one.
func (t *Tokens) EnsureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(AnonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := GenID()
	http.SetCookie(w, &http.Cookie{
		Name:     AnonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: t.sameSite(),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

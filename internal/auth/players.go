// internal/auth/players.go
//
// Player accounts.
// Responsibilities:
//   - Validating signup input (username charset/length, password length).
//   - Hashing and verifying passwords with bcrypt.
//   - Creating and loading rows of the players table.
//   - Generating opaque ids for players and anonymous visitors.

package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("player not found")
)

// Player matches the players table shape.
type Player struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Players reads and writes player accounts.
type Players struct {
	db *sql.DB
}

func NewPlayers(db *sql.DB) *Players { return &Players{db: db} }

// Create validates input, checks uniqueness, hashes the password, and inserts a new player.
func (p *Players) Create(ctx context.Context, username, pw string) (*Player, error) {
	username = normalizeUsername(username)
	if err := ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	err := p.db.QueryRowContext(ctx, `SELECT 1 FROM players WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	id := GenID()
	if _, err := p.db.ExecContext(ctx, `INSERT INTO players (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, username, string(h), now); err != nil {
		return nil, err
	}
	return &Player{ID: id, Username: username, PasswordHash: string(h), CreatedAt: mustParse(now)}, nil
}

// Authenticate loads a player by username and verifies the password.
func (p *Players) Authenticate(ctx context.Context, username, pw string) (*Player, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at
	                                  FROM players WHERE lower(username)=lower(?)`, normalizeUsername(username))
	u, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// ByID loads a player or returns ErrNotFound.
func (p *Players) ByID(ctx context.Context, id string) (*Player, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at
	                                  FROM players WHERE id=?`, id)
	return scanPlayer(row)
}

func scanPlayer(row *sql.Row) (*Player, error) {
	var u Player
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = mustParse(created)
	return &u, nil
}

// mustParse parses RFC3339 timestamps; on error returns zero time.
func mustParse(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}

// GenID creates a 22-char URL-safe, crypto-random identifier (no padding).
func GenID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

package auth // package auth implements token issuing, verification and password hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClass selects which signing secret a token belongs to.  Access and
// refresh tokens are signed with independent secrets so that leaking one
// never allows minting tokens of the other class.
type TokenClass int

const (
	ClassAccess TokenClass = iota
	ClassRefresh
)

var (
	// ErrInvalidToken is returned when a token fails signature or claim
	// validation for any reason other than expiry.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token's exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Codec creates and verifies signed, time-bounded HS256 tokens carrying a
// user identifier in the `sub` claim.  Secrets and lifetimes are injected at
// construction; nothing here reads process-wide state.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewCodec builds a Codec from the two signing secrets and the lifetimes of
// each token class.
func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccess signs a short-lived access token for the given user.
func (c *Codec) IssueAccess(userID uint64) (string, time.Time, error) {
	return c.issue(userID, c.accessSecret, c.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the given user.
func (c *Codec) IssueRefresh(userID uint64) (string, time.Time, error) {
	return c.issue(userID, c.refreshSecret, c.refreshTTL)
}

func (c *Codec) issue(userID uint64, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	// The jti nonce keeps two tokens minted for the same user within the
	// same second from colliding; refresh rotation depends on the new token
	// value differing from the old one.
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
		"jti": uuid.NewString(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the token's signature against the secret selected by class
// and its exp claim against the current time.  It returns the user ID from
// the sub claim on success, ErrTokenExpired when the token has expired, and
// ErrInvalidToken on any other failure (bad signature, wrong algorithm,
// missing or malformed claims).
func (c *Codec) Verify(token string, class TokenClass) (uint64, error) {
	secret := c.accessSecret
	if class == ClassRefresh {
		secret = c.refreshSecret
	}
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrInvalidToken
	}
	if !tok.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	// Numeric JSON claims decode as float64.
	sub, ok := claims["sub"].(float64)
	if !ok || sub < 0 {
		return 0, ErrInvalidToken
	}
	return uint64(sub), nil
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Parse for tokens that are malformed,
// expired, or signed with the wrong key or method.
var ErrInvalidToken = errors.New("invalid or expired session token")

// SessionClaims are the claims embedded in a session token. The subject of
// the registered claims carries the identity-provider user id.
type SessionClaims struct {
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies HS256 session tokens. Tokens stand in for the
// provider session after the login callback; the only state they carry is the
// identity snapshot taken at login.
type Sessions struct {
	// Secret is the HMAC signing key. Must be non-empty in production.
	Secret []byte
	// TTL is the token lifetime, e.g. 168h.
	TTL time.Duration
}

// Issue signs a session token for the given identity.
func (s Sessions) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email:     id.Email,
		Name:      id.Name,
		AvatarURL: id.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.Secret)
}

// Parse verifies a session token and returns the identity it carries.
// All verification failures collapse into ErrInvalidToken; callers do not
// distinguish why a token was rejected.
func (s Sessions) Parse(token string) (Identity, error) {
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.Secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		AvatarURL: claims.AvatarURL,
	}, nil
}

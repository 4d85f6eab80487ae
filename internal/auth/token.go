package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Claims carried in the signed session token.
type Claims struct {
	UserID  string   `json:"uid"`
	IsAdmin bool     `json:"adm"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a manager with the shared signing secret and token
// lifetime.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the user.
func (m *TokenManager) Issue(userID uuid.UUID, isAdmin bool, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  userID.String(),
		IsAdmin: isAdmin,
		Roles:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	return signed, errors.WithStack(err)
}

// Verify parses the token and reconstructs the actor context.
func (m *TokenManager) Verify(tokenString string) (Context, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Context{}, errors.WithStack(err)
	}
	if !token.Valid {
		return Context{}, errors.New("invalid token")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Context{}, errors.Wrap(err, "invalid uid claim")
	}
	return Context{UserID: userID, IsAdmin: claims.IsAdmin, Roles: claims.Roles}, nil
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/anthonyjo217/catalyst-transactions-service/pkg/utils"
)

// UserSession represents the user data stored in a token
type UserSession struct {
	ID    int64  `json:"id"`
	Stage string `json:"stage"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// IsEmployee reports whether the session belongs to a sales representative.
func (u UserSession) IsEmployee() bool {
	return u.Stage == "EMPLOYEE"
}

// Claims represents JWT claims
type Claims struct {
	User UserSession `json:"user"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a login or a refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenIssuer signs access and refresh tokens with separate secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer creates a TokenIssuer
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Issue creates a new access/refresh pair for a session
func (i *TokenIssuer) Issue(session UserSession) (TokenPair, error) {
	access, err := i.sign(session, i.accessSecret, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(session, i.refreshSecret, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAccess validates and parses an access token
func (i *TokenIssuer) ValidateAccess(tokenString string) (*Claims, error) {
	return i.validate(tokenString, i.accessSecret)
}

// ValidateRefresh validates and parses a refresh token
func (i *TokenIssuer) ValidateRefresh(tokenString string) (*Claims, error) {
	return i.validate(tokenString, i.refreshSecret)
}

func (i *TokenIssuer) sign(session UserSession, secret []byte, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		User: session,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        utils.GenerateID(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (i *TokenIssuer) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(i.now))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

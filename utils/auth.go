package utils

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/hkdf"
)

// ClientTokenTTL is how long a browser keeps its client cookie
const ClientTokenTTL = 365 * 24 * time.Hour

// ErrInvalidClientToken is returned for cookies that fail verification
var ErrInvalidClientToken = errors.New("invalid client token")

// Claims represents the claims of the client cookie. The subject is the
// client id that keys the browser's storage.
type Claims struct {
	jwt.StandardClaims
}

// ClientSigner signs and verifies client cookies
type ClientSigner struct {
	key []byte
	now func() time.Time
}

// NewClientSigner derives the cookie signing key from the storefront secret
func NewClientSigner(secret string) (*ClientSigner, error) {
	if secret == "" {
		return nil, errors.New("storefront secret is empty")
	}
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("coffeelink client cookie v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive client cookie key: %w", err)
	}
	return &ClientSigner{key: key, now: time.Now}, nil
}

// GenerateJWT generates the cookie value for a client id
func (s *ClientSigner) GenerateJWT(clientID string) (string, error) {
	now := s.now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   clientID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ClientTokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ParseClientID verifies a cookie value and returns its client id
func (s *ClientSigner) ParseClientID(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidClientToken
	}
	return claims.Subject, nil
}

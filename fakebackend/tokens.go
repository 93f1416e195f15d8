package fakebackend

import (
	"errors"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-blog-auth/users"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

var errTokenInvalid = errors.New("Given token not valid for any token type")

type tokenClaims struct {
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwtlib.RegisteredClaims
}

type tokenPair struct {
	Access  string
	Refresh string
}

// tokenIssuer signs HS256 access and refresh tokens shaped like simplejwt's.
type tokenIssuer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowTime    func() time.Time
	revoked    *revocationList
}

func newTokenIssuer(key []byte, nowTime func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		key:        key,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		nowTime:    nowTime,
		revoked:    newRevocationList(nowTime),
	}
}

func (ti *tokenIssuer) issue(account *users.Account) (tokenPair, error) {
	access, err := ti.sign(account, tokenTypeAccess, ti.accessTTL)
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := ti.sign(account, tokenTypeRefresh, ti.refreshTTL)
	if err != nil {
		return tokenPair{}, err
	}
	return tokenPair{Access: access, Refresh: refresh}, nil
}

func (ti *tokenIssuer) sign(account *users.Account, tokenType string, ttl time.Duration) (string, error) {
	now := ti.nowTime()
	claims := tokenClaims{
		Email:     account.Identity.Email,
		TokenType: tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(), // Unique token ID for revocation
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(ti.key)
	if err != nil {
		return "", fmt.Errorf("[tokenIssuer.sign] %s token: %w", tokenType, err)
	}
	return signed, nil
}

// parse validates raw as a live, unrevoked token of tokenType.
func (ti *tokenIssuer) parse(raw, tokenType string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(*jwtlib.Token) (any, error) {
		return ti.key, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(ti.nowTime))
	if err != nil {
		return nil, errTokenInvalid
	}
	if claims.TokenType != tokenType || ti.revoked.IsRevoked(claims.ID) {
		return nil, errTokenInvalid
	}
	return claims, nil
}

func (ti *tokenIssuer) revoke(claims *tokenClaims) {
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	ti.revoked.Add(claims.ID, exp)
}

// revocationList holds the jti of revoked tokens until they would have expired anyway.
type revocationList struct {
	revoked map[string]time.Time
	nowTime func() time.Time
	mu      sync.RWMutex
}

func newRevocationList(nowTime func() time.Time) *revocationList {
	return &revocationList{
		revoked: make(map[string]time.Time),
		nowTime: nowTime,
	}
}

func (c *revocationList) Add(jti string, exp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked()
	c.revoked[jti] = exp
}

func (c *revocationList) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.revoked[jti]
	return exists
}

func (c *revocationList) cleanupLocked() {
	now := c.nowTime()
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
		}
	}
}

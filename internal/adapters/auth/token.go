// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/model"
)

const issuer = "fieldscout"

// ErrInvalidToken covers malformed, expired and forged tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the token payload: the user id lives in Subject.
type Claims struct {
	RealmID int64       `json:"fieldscoutRealm"`
	Roles   model.Roles `json:"fieldscoutRoles"`
	jwt.StandardClaims
}

// Tokens signs and verifies HS256 tokens.
type Tokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokens returns a Tokens signing with key; tokens live for ttl.
func NewTokens(key []byte, ttl time.Duration) *Tokens {
	return &Tokens{key: key, ttl: ttl, now: time.Now}
}

// Issue returns a signed token for user.
func (t *Tokens) Issue(user model.User) (string, error) {
	now := t.now()
	claims := Claims{
		RealmID: user.RealmID,
		Roles:   user.Roles,
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(t.ttl).Unix(),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// Verify parses bearer and returns the actor it names.
func (t *Tokens) Verify(bearer string) (access.Actor, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(bearer, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil {
		return access.Actor{}, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}
	if !token.Valid || claims.Issuer != issuer {
		return access.Actor{}, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return access.Actor{}, ErrInvalidToken
	}
	return access.Actor{
		ID:           id,
		RealmID:      claims.RealmID,
		IsVerified:   claims.Roles.IsVerified,
		IsAdmin:      claims.Roles.IsAdmin,
		IsSuperAdmin: claims.Roles.IsSuperAdmin,
	}, nil
}

// Package visitor gives each browser a stable anonymous identity carried in a
// signed token. It identifies visitors for the visit counter and protects
// nothing.
package visitor

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid visitor token")

type Claims struct {
	VisitorID string `json:"visitor_id"`
	jwt.RegisteredClaims
}

// DefaultTTL keeps a visitor recognisable for a year.
const DefaultTTL = 365 * 24 * time.Hour

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewVisitor mints a fresh visitor id and its token.
func (i *Issuer) NewVisitor() (id, token string, err error) {
	id = uuid.NewString()
	token, err = i.Issue(id)
	if err != nil {
		return "", "", err
	}
	return id, token, nil
}

func (i *Issuer) Issue(visitorID string) (string, error) {
	now := i.now()
	claims := &Claims{
		VisitorID: visitorID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.VisitorID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

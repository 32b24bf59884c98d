package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var ErrWrongKind = errors.New("token kind mismatch")

// Claims binds a username (sub) and a unique token id (jti).
type Claims struct {
	Kind Kind `json:"type"`
	jwt.RegisteredClaims
}

func NewJTI() string { return uuid.NewString() }

func NewClaims(kind Kind, subject string, now time.Time, ttl time.Duration) Claims {
	return Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        NewJTI(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func Sign(claims Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Parse verifies signature and time claims against now. Errors wrap the
// jwt/v5 sentinels (jwt.ErrTokenExpired, jwt.ErrTokenSignatureInvalid, ...).
func Parse(tokenStr string, kind Kind, secret []byte, now func() time.Time) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if now != nil {
		opts = append(opts, jwt.WithTimeFunc(now))
	}
	return parse(tokenStr, kind, secret, opts...)
}

// ParseSignedOnly verifies the signature but not exp/nbf, so an expired
// token can still be identified for revocation.
func ParseSignedOnly(tokenStr string, kind Kind, secret []byte) (*Claims, error) {
	return parse(tokenStr, kind, secret,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
}

func parse(tokenStr string, kind Kind, secret []byte, opts ...jwt.ParserOption) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	if claims.Kind != kind {
		return nil, ErrWrongKind
	}
	return &claims, nil
}

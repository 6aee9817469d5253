package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "faircircle/pkg/domain-errors"
	id "faircircle/pkg/domain"
)

// Claims represents the JWT claims carried by member access tokens. The
// subject is the member principal; scores and roster state never live in
// the token.
type Claims struct {
	Principal string `json:"principal"`
	jwt.RegisteredClaims
}

// ResolvePrincipal returns the member principal the token was issued to,
// falling back to the registered subject when the principal claim is absent.
func (c *Claims) ResolvePrincipal() (id.Principal, error) {
	subject := c.Principal
	if subject == "" {
		subject = c.Subject
	}
	principal, err := id.ParsePrincipal(subject)
	if err != nil {
		return id.NilPrincipal, dErrors.New(dErrors.CodeUnauthorized, "token carries no valid principal")
	}
	return principal, nil
}

// JWTService validates member tokens issued by the identity provider and
// mints tokens in tests and development.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

func (s *JWTService) GenerateAccessToken(principal id.Principal, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Principal: principal.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// ExtractPrincipal validates the token and returns the member principal it
// was issued to.
func (s *JWTService) ExtractPrincipal(tokenString string) (id.Principal, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return id.NilPrincipal, err
	}

	return claims.ResolvePrincipal()
}

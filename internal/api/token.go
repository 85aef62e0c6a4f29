package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	jwt.RegisteredClaims

	Role string `json:"role,omitempty"`
	Name string `json:"name,omitempty"`
}

// VerifyToken validates an HS256 bearer token issued by the hosting
// application and extracts the caller identity. Subject carries the owner
// ref (email or account id), role is "visitor" or "staff".
func VerifyToken(tokenString, secret string, now time.Time) (*Identity, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing auth secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &tokenClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, fmt.Errorf("token expired")
	}
	if claims.NotBefore != nil && claims.NotBefore.Time.After(now) {
		return nil, fmt.Errorf("token not active yet")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject")
	}

	role := claims.Role
	switch role {
	case RoleVisitor, RoleStaff:
	case "":
		role = RoleVisitor
	default:
		return nil, fmt.Errorf("unknown role: %q", role)
	}

	return &Identity{Ref: claims.Subject, Name: claims.Name, Role: role}, nil
}

package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenExpiry extracts the exp claim from a JWT without verifying its
// signature. Backends that return raw tokens instead of explicit expiry
// fields are handled by the transport adapter through this helper; signature
// validation stays on the backend side.
func TokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()

	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse token claims").
			WithCode(goerrors.CodeBadRequest)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, goerrors.New("token carries no expiry claim", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	return claims.ExpiresAt.Time, nil
}

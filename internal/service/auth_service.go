package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/sma-score-api/internal/models"
	appErrors "github.com/noah-isme/sma-score-api/pkg/errors"
)

// AuthService validates access tokens issued by the school's identity service.
type AuthService struct {
	secret []byte
	issuer string
}

// NewAuthService constructs an AuthService. An empty issuer accepts tokens from any issuer.
func NewAuthService(secret, issuer string) *AuthService {
	return &AuthService{secret: []byte(secret), issuer: issuer}
}

// ValidateToken parses and validates an HS256 access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.Role == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no role")
	}

	return claims, nil
}

package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brandpulse/okrops/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// AuthService issues and verifies the bearer tokens that carry a caller's
// tenant/brand scope. Full session handling lives outside this system; the
// token is the only contract.
type AuthService struct {
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthService(jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

func (s *AuthService) GenerateToken(scope model.Scope) (string, error) {
	claims := jwt.MapClaims{
		"tenant_id": scope.TenantID,
		"brand_id":  scope.BrandID,
		"exp":       time.Now().Add(s.jwtExpiry).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken parses the bearer token and returns the scope it carries.
func (s *AuthService) VerifyToken(tokenString string) (model.Scope, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return model.Scope{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.Scope{}, ErrInvalidToken
	}

	tenantID, _ := claims["tenant_id"].(string)
	brandID, _ := claims["brand_id"].(string)

	scope := model.Scope{TenantID: tenantID, BrandID: brandID}
	if scope.Empty() {
		return model.Scope{}, ErrInvalidToken
	}

	return scope, nil
}

package services

import (
	"errors"
	"fmt"
	"time"

	"medgate/internal/auth/models"
	"medgate/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates the presented token failed verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// JWTService verifies bearer tokens issued by the platform's identity
// service. Tokens are verified here, never minted, except for the dev-mode
// helper below.
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService reads the signing secret from the environment.
func NewJWTService() *JWTService {
	return &JWTService{
		secret: []byte(config.MustGetEnv("JWT_SECRET")),
		issuer: config.GetEnv("JWT_ISSUER", "medgate"),
	}
}

// ValidateJWT verifies the token signature and claims and returns the
// authenticated identity.
func (s *JWTService) ValidateJWT(tokenString string) (*models.AuthenticatedUser, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return &models.AuthenticatedUser{
		UserID: sub,
		Email:  email,
		Name:   name,
	}, nil
}

// IssueDevToken mints a short-lived token for local development.
func (s *JWTService) IssueDevToken(userID, email, name string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"name":  name,
		"iss":   s.issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(8 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

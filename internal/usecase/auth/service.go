package auth

import (
	"fmt"
	"strings"
	"time"

	"example.com/food-ordering/internal/domain/failure"
)

var (
	ErrUnauthenticated = failure.New(failure.KindUnauthenticated, "Not Authorized, Login Again")
	ErrTokenInvalid    = failure.New(failure.KindTokenInvalid, "invalid access token")
)

type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

type TokenService interface {
	ParseToken(token string) (*Claims, error)
}

// Service is the access guard: it turns a presented credential into the
// identity that cart and order operations are scoped to.
type Service struct {
	tokens TokenService
}

func NewService(tokens TokenService) *Service {
	return &Service{tokens: tokens}
}

func (s *Service) Authenticate(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims == nil || strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

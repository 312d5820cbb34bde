package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authuc "example.com/food-ordering/internal/usecase/auth"
)

var errMissingSubject = errors.New("token has no user id")

const defaultExpiration = 24 * time.Hour

type JWTService struct {
	secret     []byte
	expiration time.Duration
}

// NewJWTService verifies tokens signed with secret. A non-positive expiration
// falls back to 24h for issued tokens.
func NewJWTService(secret string, expiration time.Duration) *JWTService {
	if expiration <= 0 {
		expiration = defaultExpiration
	}
	return &JWTService{
		secret:     []byte(secret),
		expiration: expiration,
	}
}

type jwtClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for userID. Accounts issue their own tokens;
// this mirrors the issuer's format.
func (s *JWTService) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ParseToken(token string) (*authuc.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID == "" {
		return nil, errMissingSubject
	}

	return &authuc.Claims{UserID: claims.UserID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

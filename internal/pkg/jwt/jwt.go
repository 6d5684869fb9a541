package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrInvalidClaims = errors.New("invalid token claims")

type Service interface {
	GenerateAccessToken(userID string, companyID string, role actor.Role) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// NewJWTService verifies tokens issued by the HRIS auth service, which shares the HS256 secret.
func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(userID string, companyID string, role actor.Role) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id":    userID,
		"company_id": companyID,
		"role":       string(role),
		"type":       "access",
		"exp":        expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ActorFromClaims builds the explicit actor from verified access-token claims.
func ActorFromClaims(claims map[string]interface{}) (actor.Actor, error) {
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return actor.Actor{}, fmt.Errorf("%w: not an access token", ErrInvalidClaims)
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return actor.Actor{}, fmt.Errorf("%w: user_id missing", ErrInvalidClaims)
	}

	companyID, _ := claims["company_id"].(string)
	role, _ := claims["role"].(string)

	a := actor.Actor{CompanyID: companyID, UserID: userID, Role: actor.Role(role)}
	if err := a.Validate(); err != nil {
		return actor.Actor{}, fmt.Errorf("%w: %w", ErrInvalidClaims, err)
	}
	return a, nil
}

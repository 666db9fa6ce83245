package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type Role string

const (
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// CanManagePayroll reports whether the role may run and read payroll for everyone.
func (r Role) CanManagePayroll() bool {
	return r == RoleOwner || r == RoleManager
}

const tokenTypeAccess = "access"

var ErrInvalidClaims = errors.New("invalid token claims")

// Claims is the subset of the access token the payroll API relies on.
type Claims struct {
	UserID     string
	EmployeeID string
	Role       Role
}

type Service interface {
	GenerateAccessToken(userID string, employeeID *string, role Role) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(userID string, employeeID *string, role Role) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id": userID,
		"role":    string(role),
		"type":    tokenTypeAccess,
		"exp":     expiresAt,
	}
	if employeeID != nil {
		claims["employee_id"] = *employeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// IsAccessToken reports whether decoded claims belong to an access token.
func IsAccessToken(claims map[string]interface{}) bool {
	tokenType, ok := claims["type"].(string)
	return ok && tokenType == tokenTypeAccess
}

// FromContext reads the claims placed on the request context by jwtauth.Verifier.
func FromContext(ctx context.Context) (*Claims, error) {
	_, raw, err := jwtauth.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	userID, ok := raw["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidClaims
	}
	role, ok := raw["role"].(string)
	if !ok {
		return nil, ErrInvalidClaims
	}
	employeeID, _ := raw["employee_id"].(string)

	return &Claims{
		UserID:     userID,
		EmployeeID: employeeID,
		Role:       Role(role),
	}, nil
}

package auth

import (
	"errors"
)

// ErrInvalidCredentials is returned when username/password don't match the
// configured operator credential.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Operator is the single configured credential allowed to use the read-side
// API. There is no user table: the service has exactly one operator login,
// provisioned through configuration.
type Operator struct {
	Username     string
	PasswordHash string // bcrypt
}

// Service provides authentication for the operator API.
type Service struct {
	operator  Operator
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(operator Operator, jwtConfig *JWTConfig) *Service {
	return &Service{
		operator:  operator,
		jwtConfig: jwtConfig,
	}
}

// Login validates the operator credential and returns a JWT token.
func (s *Service) Login(username, password string) (string, error) {
	if username != s.operator.Username {
		return "", ErrInvalidCredentials
	}
	if err := ComparePassword(s.operator.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return GenerateToken(s.jwtConfig, username)
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

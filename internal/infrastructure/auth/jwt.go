package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vehicle-loan-backend/internal/domain/actor"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carry the actor identity; Capabilities are extra grants on top of the role.
type Claims struct {
	jwt.RegisteredClaims
	Role         string   `json:"role"`
	Capabilities []string `json:"caps,omitempty"`
}

// Actor converts the claims into the domain actor.
func (c Claims) Actor() actor.Actor {
	extra := make([]actor.Capability, 0, len(c.Capabilities))
	for _, cp := range c.Capabilities {
		extra = append(extra, actor.Capability(cp))
	}
	return actor.ForRole(c.Subject, actor.Role(c.Role), extra...)
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// JWTService signs and validates HS256 tokens.
type JWTService struct {
	cfg JWTConfig
	now func() time.Time
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt configuration requires Secret")
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = 12 * time.Hour
	}
	return &JWTService{cfg: cfg, now: time.Now}, nil
}

func (s *JWTService) GenerateToken(userID string, role actor.Role, extra ...actor.Capability) (string, error) {
	if !actor.KnownRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := s.now()
	caps := make([]string, 0, len(extra))
	for _, c := range extra {
		caps = append(caps, string(c))
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Role:         string(role),
		Capabilities: caps,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) ValidateToken(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if !actor.KnownRole(actor.Role(claims.Role)) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}

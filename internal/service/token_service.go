package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"riskadvisor/internal/repository"
)

// GatewayTokenService emite y valida los bearer tokens del gateway local.
type GatewayTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	store  RevokedTokenStore
	now    func() time.Time
}

type GatewayToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// GatewayClaims llevan la identidad que el gateway reenvia al backend.
type GatewayClaims struct {
	UserID        string `json:"uid"`
	CompanyNumber string `json:"company_number"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
	ErrJWTRevoked = errors.New("jwt revoked")
)

func NewGatewayTokenService(secret string, ttl time.Duration, store RevokedTokenStore) *GatewayTokenService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if store == nil {
		store = NewMemoryRevokedTokenStore()
	}
	return &GatewayTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "riskadvisor-gateway",
		store:  store,
		now:    time.Now,
	}
}

// Enabled es false cuando no hay secreto: el gateway queda abierto en localhost.
func (s *GatewayTokenService) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

func (s *GatewayTokenService) Issue(identity repository.Identity) (GatewayToken, error) {
	if !s.Enabled() {
		return GatewayToken{}, ErrJWTInvalid
	}
	if strings.TrimSpace(identity.UserID) == "" {
		return GatewayToken{}, ErrJWTInvalid
	}
	now := s.now().UTC()
	claims := GatewayClaims{
		UserID:        identity.UserID,
		CompanyNumber: identity.CompanyNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return GatewayToken{}, err
	}
	return GatewayToken{AccessToken: signed, TokenType: "Bearer", ExpiresIn: int64(s.ttl.Seconds())}, nil
}

func (s *GatewayTokenService) Parse(ctx context.Context, token string) (GatewayClaims, error) {
	if !s.Enabled() || strings.TrimSpace(token) == "" {
		return GatewayClaims{}, ErrJWTInvalid
	}
	var claims GatewayClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(s.issuer))
	_, err := parser.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return GatewayClaims{}, ErrJWTExpired
		}
		return GatewayClaims{}, ErrJWTInvalid
	}
	if strings.TrimSpace(claims.UserID) == "" || claims.Subject != claims.UserID {
		return GatewayClaims{}, ErrJWTInvalid
	}
	revoked, err := s.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return GatewayClaims{}, err
	}
	if revoked {
		return GatewayClaims{}, ErrJWTRevoked
	}
	return claims, nil
}

// Revoke invalida el token hasta su expiracion.
func (s *GatewayTokenService) Revoke(ctx context.Context, token string) error {
	claims, err := s.Parse(ctx, token)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.store.Revoke(ctx, claims.ID, ttl)
}

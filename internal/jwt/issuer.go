package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
)

// MinKeyLength es el largo mínimo de la clave HS256.
const MinKeyLength = 32

var (
	ErrInvalidToken    = errors.New("invalid_jwt")
	ErrInvalidIssuer   = errors.New("invalid_issuer")
	ErrKeyTooShort     = errors.New("jwt key too short")
	ErrMissingIssuer   = errors.New("jwt issuer required")
	ErrMissingAudience = errors.New("jwt audience required")
)

// Issuer firma y valida access tokens HS256 con una clave simétrica.
// No tiene estado: iss/aud son fijos y vienen de config.
type Issuer struct {
	Iss       string
	Aud       string
	Key       []byte
	AccessTTL time.Duration
	ClockSkew time.Duration

	// Now se puede reemplazar en tests.
	Now func() time.Time
}

func NewIssuer(iss, aud string, key []byte, accessTTL, skew time.Duration) (*Issuer, error) {
	if len(key) < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	if iss == "" {
		return nil, ErrMissingIssuer
	}
	if aud == "" {
		return nil, ErrMissingAudience
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &Issuer{
		Iss:       iss,
		Aud:       aud,
		Key:       key,
		AccessTTL: accessTTL,
		ClockSkew: skew,
		Now:       time.Now,
	}, nil
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now().UTC()
	}
	return time.Now().UTC()
}

// CreateAccessToken emite el access token del usuario y devuelve su expiración.
func (i *Issuer) CreateAccessToken(u *repository.User) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.AccessTTL)

	claims := AccessClaims{
		Email:    u.Email,
		Role:     u.Role.String(),
		TenantID: u.TenantID,
		Scope:    ScopeFor(u.TenantID),
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   u.ID,
			Audience:  jwtv5.ClaimStrings{i.Aud},
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.Key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// Parse valida firma, iss, aud y exp/nbf con tolerancia ClockSkew.
func (i *Issuer) Parse(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	tok, err := jwtv5.ParseWithClaims(raw, claims,
		func(t *jwtv5.Token) (any, error) { return i.Key, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithAudience(i.Aud),
		jwtv5.WithLeeway(i.ClockSkew),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenInvalidIssuer) {
			return nil, ErrInvalidIssuer
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return claims, nil
}

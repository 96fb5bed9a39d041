// Package authn issues and verifies the signed session tokens carried by API
// clients in the Authorization header or the session cookie.
package authn

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/id"
	"github.com/louisbranch/lms/internal/services/lms/model"
)

// CookieName is the session cookie that carries the token for browsers.
const CookieName = "lms_session"

const minSecretLength = 16

// Config defines how tokens are signed.
type Config struct {
	Secret string        `env:"LMS_JWT_SECRET"`
	Issuer string        `env:"LMS_JWT_ISSUER" envDefault:"lms"`
	TTL    time.Duration `env:"LMS_TOKEN_TTL" envDefault:"24h"`
}

// Claims are the verified token claims.
type Claims struct {
	UserID    int64
	Role      model.Role
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string
}

// Token is a signed session token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	newID  id.Func
}

// NewIssuer validates cfg and returns an issuer.
func NewIssuer(cfg Config, now func() time.Time) (*Issuer, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("LMS_JWT_SECRET must be at least %d characters", minSecretLength)
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, fmt.Errorf("LMS_JWT_ISSUER is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("LMS_TOKEN_TTL must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    cfg.TTL,
		now:    now,
		newID:  id.NewID,
	}, nil
}

// Issue signs a token for user.
func (i *Issuer) Issue(user model.User) (Token, error) {
	if user.ID <= 0 {
		return Token{}, errors.New("user id is required")
	}
	tokenID, err := i.newID()
	if err != nil {
		return Token{}, fmt.Errorf("generate token id: %w", err)
	}
	now := i.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(i.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        tokenID,
		},
		Role: string(user.Role),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks the signature, issuer and expiry of value.
func (i *Issuer) Verify(value string) (Claims, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "authentication token is required")
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(value, &parsed, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer != i.issuer {
		return Claims{}, apperrors.WithMetadata(apperrors.CodeUnauthenticated, "token issuer mismatch",
			map[string]string{"Field": "iss"})
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token exp is required")
	}
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(i.now().UTC()) {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token is expired")
	}
	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token subject is invalid")
	}
	role, ok := model.ParseRole(parsed.Role)
	if !ok {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token role is invalid")
	}

	claims := Claims{
		UserID:    userID,
		Role:      role,
		Issuer:    parsed.Issuer,
		ExpiresAt: exp,
		TokenID:   parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return apperrors.New(apperrors.CodeUnauthenticated, "token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeUnauthenticated, "token alg is invalid")
	}
	return apperrors.New(apperrors.CodeUnauthenticated, "token is invalid")
}

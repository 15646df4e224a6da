package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultTokenExpiration is the identity token lifetime when none is configured
const DefaultTokenExpiration = time.Hour

// TokenService issues and validates identity tokens. It performs no I/O.
type TokenService struct {
	key        *SigningKey
	keyfunc    jwt.Keyfunc
	expiration time.Duration
	clockSkew  time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	decorator  ClaimsDecorator
	logger     Logger
	now        func() time.Time
}

var (
	_ TokenIssuer    = (*TokenService)(nil)
	_ TokenValidator = (*TokenService)(nil)
)

// NewTokenService creates a TokenService from configuration
func NewTokenService(cfg Config, logger Logger) (*TokenService, error) {
	key, err := ParseSigningKey(cfg.GetSigningMethod(), cfg.GetSigningKey(), cfg.GetSigningKeyID())
	if err != nil {
		return nil, err
	}

	return NewTokenServiceWithKey(key, cfg.GetTokenExpiration(), cfg.GetIssuer(), cfg.GetAudience(), logger).
		WithClockSkew(cfg.GetClockSkew()), nil
}

// NewTokenServiceWithKey creates a TokenService around an already parsed key
func NewTokenServiceWithKey(key *SigningKey, expiration time.Duration, issuer string, audience []string, logger Logger) *TokenService {
	if expiration <= 0 {
		expiration = DefaultTokenExpiration
	}

	var aud jwt.ClaimStrings
	if len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	return &TokenService{
		key:        key,
		keyfunc:    key.Keyfunc(),
		expiration: expiration,
		issuer:     issuer,
		audience:   aud,
		decorator:  noopClaimsDecorator{},
		logger:     normalizeLogger(logger),
		now:        time.Now,
	}
}

// WithClockSkew sets the leeway applied to time based claims
func (ts *TokenService) WithClockSkew(skew time.Duration) *TokenService {
	if skew < 0 {
		skew = 0
	}
	ts.clockSkew = skew
	return ts
}

// WithClaimsDecorator registers a decorator for extension claims
func (ts *TokenService) WithClaimsDecorator(d ClaimsDecorator) *TokenService {
	ts.decorator = normalizeClaimsDecorator(d)
	return ts
}

// WithClock overrides the time source
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		ts.now = now
	}
	return ts
}

// Issue mints a signed identity token for identity carrying one role claim
// entry per role held in roles.
func (ts *TokenService) Issue(identity Identity, roles RoleType) (string, time.Time, error) {
	if identity == nil {
		return "", time.Time{}, goerrors.New("identity must not be nil", goerrors.CategoryInternal)
	}

	now := ts.now()
	expiresAt := now.Add(ts.expiration)

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserEmail: identity.Email(),
		RoleNames: ToNames(roles),
	}

	if err := applyClaimsDecorator(ts.decorator, identity, claims); err != nil {
		ts.logger.Error("token service claims decorator rejected", "error", err)
		return "", time.Time{}, err
	}

	token, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, claims.ExpiresAt.Time, nil
}

// SignClaims signs arbitrary claims with the configured key
func (ts *TokenService) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(ts.key.Method, claims)
	token.Header["kid"] = ts.key.ID

	signed, err := token.SignedString(ts.key.signKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Validate verifies signature, issuer, audience and lifetime. Every
// failure collapses into ErrInvalidToken.
func (ts *TokenService) Validate(tokenString string) (AuthClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{ts.key.Method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(ts.clockSkew),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, ts.keyfunc, parserOptions...)
	if err != nil {
		ts.logger.Debug("token service rejected token", "error", err)
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Debug("token service could not decode claims")
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Expiration returns the configured token lifetime
func (ts *TokenService) Expiration() time.Duration {
	return ts.expiration
}

package roleguard

import (
	"context"
	"errors"
	"net/http"
	"strings"

	auth "github.com/goliatone/go-event-auth"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "header:Authorization"
	// ErrMissingToken is returned by extractors that find nothing
	ErrMissingToken = errors.New("missing or malformed bearer token")
)

// Authorizer is implemented by *auth.Guard
type Authorizer interface {
	Authorize(token string, required auth.RoleType) (auth.AuthClaims, error)
}

// ValidationListener runs after authorization succeeds and before the handler
type ValidationListener func(ctx router.Context, claims auth.AuthClaims) error

// ErrorHandler writes the response for a denied request
type ErrorHandler func(ctx router.Context, err error) error

type Config struct {
	// Guard performs token validation and the role check. Required.
	Guard Authorizer
	// Required is the set of roles of which the caller must hold at least one
	Required auth.RoleType

	// Filter skips the guard when it returns true
	Filter       func(router.Context) bool
	ErrorHandler ErrorHandler

	ContextKey  string
	TokenLookup string
	AuthScheme  string

	// ContextEnricher propagates claims to the standard context.
	// Defaults to auth.WithClaimsContext.
	ContextEnricher     func(c context.Context, claims auth.AuthClaims) context.Context
	ValidationListeners []ValidationListener
}

// New returns middleware that lets a request through only when its
// bearer token is valid and carries one of cfg.Required.
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return hf(ctx)
			}

			// a missing token goes through the guard like any other denial
			token, _ := ExtractRawTokenFromContext(ctx, cfg.getExtractors())

			claims, err := cfg.Guard.Authorize(token, cfg.Required)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if err := cfg.runValidationListeners(ctx, claims); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Set(cfg.ContextKey, claims)
			ctx.SetContext(cfg.ContextEnricher(ctx.Context(), claims))

			return hf(ctx)
		}
	}
}

// RequireRoles is New with only the guard and required roles set
func RequireRoles(guard Authorizer, required ...auth.RoleType) router.MiddlewareFunc {
	var mask auth.RoleType
	for _, r := range required {
		mask = mask.Add(r)
	}
	return New(Config{Guard: guard, Required: mask})
}

// Forbidden is the default ErrorHandler. Every failure gets the same answer.
func Forbidden(c router.Context, _ error) error {
	return c.Status(http.StatusForbidden).Send([]byte(http.StatusText(http.StatusForbidden)))
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Guard == nil {
		panic("AUTH: role guard middleware configuration: Guard is required.")
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = Forbidden
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = auth.DefaultContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ContextEnricher == nil {
		cfg.ContextEnricher = auth.WithClaimsContext
	}

	return cfg
}

func (cfg *Config) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func (cfg *Config) runValidationListeners(ctx router.Context, claims auth.AuthClaims) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(ctx, claims); err != nil {
			return err
		}
	}
	return nil
}

// TokenExtractor pulls a raw token out of a request
type TokenExtractor func(c router.Context) (string, error)

// ExtractRawTokenFromContext returns the first token any extractor finds
func ExtractRawTokenFromContext(ctx router.Context, extractors []TokenExtractor) (string, error) {
	err := ErrMissingToken
	for _, extractor := range extractors {
		raw, e := extractor(ctx)
		if raw != "" && e == nil {
			return raw, nil
		}
		if e != nil {
			err = e
		}
	}
	return "", err
}

// GetExtractors parses a lookup such as "header:Authorization,cookie:jwt,query:token"
func GetExtractors(tokenLookup string, authSchemes ...string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 && strings.TrimSpace(authSchemes[0]) != "" {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}
		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, tokenFromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(name))
		case "param":
			extractors = append(extractors, tokenFromParam(name))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(name))
		}
	}

	return extractors
}

func tokenFromHeader(header, authScheme string) TokenExtractor {
	return func(c router.Context) (string, error) {
		a := strings.TrimSpace(c.Header(header))
		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrMissingToken
	}
}

func tokenFromQuery(param string) TokenExtractor {
	return func(c router.Context) (string, error) {
		if token := c.Query(param, ""); token != "" {
			return token, nil
		}
		return "", ErrMissingToken
	}
}

func tokenFromParam(param string) TokenExtractor {
	return func(c router.Context) (string, error) {
		if token := c.Param(param, ""); token != "" {
			return token, nil
		}
		return "", ErrMissingToken
	}
}

func tokenFromCookie(name string) TokenExtractor {
	return func(c router.Context) (string, error) {
		cookies, err := http.ParseCookie(c.Header("Cookie"))
		if err != nil {
			return "", ErrMissingToken
		}
		for _, cookie := range cookies {
			if cookie.Name == name && cookie.Value != "" {
				return cookie.Value, nil
			}
		}
		return "", ErrMissingToken
	}
}

package auth

import "context"

// Guard authorizes a caller presenting an identity token against a set of
// required roles. Every denial looks the same to the caller.
type Guard struct {
	validator TokenValidator
	logger    Logger
	activity  ActivitySink
}

// NewGuard creates a Guard backed by validator
func NewGuard(validator TokenValidator, logger Logger) *Guard {
	return &Guard{
		validator: validator,
		logger:    normalizeLogger(logger),
		activity:  noopActivitySink{},
	}
}

// WithActivitySink records denials on sink
func (g *Guard) WithActivitySink(sink ActivitySink) *Guard {
	g.activity = normalizeActivitySink(sink)
	return g
}

// Authorize validates token and checks the caller holds at least one of
// required. It returns ErrForbidden for any failure.
func (g *Guard) Authorize(token string, required RoleType) (AuthClaims, error) {
	claims, reason := g.check(token, required)
	if reason != "" {
		g.logger.Debug("guard denied access", "reason", reason, "required", required.String())
		_ = g.activity.Record(context.Background(), ActivityEvent{
			EventType: ActivityEventAccessDenied,
			Metadata:  map[string]any{"reason": reason, "required": ToNames(required)},
		})
		return nil, ErrForbidden
	}
	return claims, nil
}

// Allowed is the boolean form of Authorize
func (g *Guard) Allowed(token string, required RoleType) bool {
	_, err := g.Authorize(token, required)
	return err == nil
}

// AuthorizeNames is Authorize with required roles given by name
func (g *Guard) AuthorizeNames(token string, required ...string) (AuthClaims, error) {
	return g.Authorize(token, FromNames(required))
}

func (g *Guard) check(token string, required RoleType) (AuthClaims, string) {
	if token == "" {
		return nil, "missing_token"
	}

	claims, err := g.validator.Validate(token)
	if err != nil || claims == nil {
		return nil, "invalid_token"
	}

	if len(claims.Roles()) == 0 {
		return nil, "missing_roles"
	}

	mask := claims.RoleMask()
	if mask == RoleNone {
		return nil, "no_roles"
	}

	if !HasAny(mask, required) {
		return nil, "insufficient_roles"
	}

	return claims, ""
}

package auth

// ClaimsDecorator can add extension claims (Metadata) before a token is
// signed. Identity, role and registered claims are protected and any change
// to them aborts issuance.
type ClaimsDecorator interface {
	Decorate(identity Identity, claims *JWTClaims) error
}

// ClaimsDecoratorFunc adapts a function into a ClaimsDecorator.
type ClaimsDecoratorFunc func(identity Identity, claims *JWTClaims) error

// Decorate satisfies the ClaimsDecorator interface.
func (f ClaimsDecoratorFunc) Decorate(identity Identity, claims *JWTClaims) error {
	if f == nil {
		return nil
	}
	return f(identity, claims)
}

type noopClaimsDecorator struct{}

func (noopClaimsDecorator) Decorate(Identity, *JWTClaims) error {
	return nil
}

func normalizeClaimsDecorator(d ClaimsDecorator) ClaimsDecorator {
	if d == nil {
		return noopClaimsDecorator{}
	}
	return d
}

func applyClaimsDecorator(d ClaimsDecorator, identity Identity, claims *JWTClaims) error {
	snap := captureImmutableClaims(claims)
	if err := d.Decorate(identity, claims); err != nil {
		return err
	}
	return snap.validate(claims)
}

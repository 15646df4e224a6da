package auth

// TokenValidator validates identity tokens and returns their claims
type TokenValidator interface {
	Validate(token string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator
type TokenValidatorFunc func(token string) (AuthClaims, error)

func (f TokenValidatorFunc) Validate(token string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrInvalidToken
	}
	return f(token)
}

// MultiTokenValidator tries its validators in order. During key rotation
// list the current key first and keep the retired one until its last
// token has expired.
type MultiTokenValidator []TokenValidator

// NewMultiTokenValidator drops nil entries
func NewMultiTokenValidator(validators ...TokenValidator) MultiTokenValidator {
	out := make(MultiTokenValidator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Validate returns the first accepted claims. Rejections from every
// validator collapse into ErrInvalidToken.
func (m MultiTokenValidator) Validate(token string) (AuthClaims, error) {
	for _, v := range m {
		if claims, err := v.Validate(token); err == nil && claims != nil {
			return claims, nil
		}
	}
	return nil, ErrInvalidToken
}

package auth

import (
	"context"
	"encoding/base64"
	"strings"
)

// RecoveryCodec turns credential store reset secrets into URL safe tokens.
// It keeps no state; single use is enforced by the store.
type RecoveryCodec struct {
	store  CredentialStore
	logger Logger
}

// NewRecoveryCodec creates a codec bound to store
func NewRecoveryCodec(store CredentialStore, logger Logger) *RecoveryCodec {
	return &RecoveryCodec{store: store, logger: normalizeLogger(logger)}
}

// Generate asks the store for a fresh reset secret and encodes it
func (r *RecoveryCodec) Generate(ctx context.Context, user *User) (string, error) {
	secret, err := r.store.GeneratePasswordResetSecret(ctx, user)
	if err != nil {
		return "", infraError(err, "failed to generate password reset secret")
	}
	return EncodeRecoveryToken(secret), nil
}

// Decode recovers the raw secret. Malformed input never reaches the store.
func (r *RecoveryCodec) Decode(token string) (string, error) {
	return DecodeRecoveryToken(token)
}

// Validate checks the raw secret against the store without consuming it
func (r *RecoveryCodec) Validate(ctx context.Context, user *User, secret string) (bool, error) {
	ok, err := r.store.VerifyPasswordResetSecret(ctx, user, secret)
	if err != nil {
		return false, infraError(err, "failed to verify password reset secret")
	}
	return ok, nil
}

// EncodeRecoveryToken base64url encodes secret without padding
func EncodeRecoveryToken(secret string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(secret))
}

// DecodeRecoveryToken reverses EncodeRecoveryToken. Padded input is accepted.
func DecodeRecoveryToken(token string) (string, error) {
	token = strings.TrimRight(strings.TrimSpace(token), "=")
	if token == "" {
		return "", ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) == 0 {
		return "", ErrInvalidToken
	}

	return string(raw), nil
}

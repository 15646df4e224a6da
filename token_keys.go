package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"strings"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// DefaultSigningKeyID is used when no key id was configured
const DefaultSigningKeyID = "primary"

// SigningKey pairs a signing method with the key material used to sign and
// the public half used to verify.
type SigningKey struct {
	ID        string
	Method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

// ParseSigningKey resolves method and raw key material. HMAC methods take
// the raw secret, RSA and ECDSA methods a PEM encoded private key.
func ParseSigningKey(method, key, keyID string) (*SigningKey, error) {
	if strings.TrimSpace(method) == "" {
		method = jwt.SigningMethodHS256.Alg()
	}

	if keyID == "" {
		keyID = DefaultSigningKeyID
	}

	sm := jwt.GetSigningMethod(strings.ToUpper(method))
	if sm == nil {
		return nil, signingKeyError("unsupported signing method", method)
	}

	if key == "" {
		return nil, signingKeyError("signing key must not be empty", method)
	}

	sk := &SigningKey{ID: keyID, Method: sm}

	switch sm.(type) {
	case *jwt.SigningMethodHMAC:
		sk.signKey = []byte(key)
		sk.verifyKey = []byte(key)
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		private, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key))
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse RSA signing key").
				WithTextCode(TextCodeInvalidSigningKey)
		}
		sk.signKey = private
		sk.verifyKey = private.Public()
	case *jwt.SigningMethodECDSA:
		private, err := jwt.ParseECPrivateKeyFromPEM([]byte(key))
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse EC signing key").
				WithTextCode(TextCodeInvalidSigningKey)
		}
		sk.signKey = private
		sk.verifyKey = private.Public()
	default:
		return nil, signingKeyError("unsupported signing method", method)
	}

	return sk, nil
}

// NewRSASigningKey builds a SigningKey from an in memory RSA key
func NewRSASigningKey(method, keyID string, private *rsa.PrivateKey) *SigningKey {
	return newAsymmetricKey(method, jwt.SigningMethodRS256, keyID, private, private.Public())
}

// NewECSigningKey builds a SigningKey from an in memory ECDSA key
func NewECSigningKey(method, keyID string, private *ecdsa.PrivateKey) *SigningKey {
	return newAsymmetricKey(method, jwt.SigningMethodES256, keyID, private, private.Public())
}

func newAsymmetricKey(method string, def jwt.SigningMethod, keyID string, private crypto.Signer, public crypto.PublicKey) *SigningKey {
	sm := jwt.GetSigningMethod(strings.ToUpper(method))
	if sm == nil {
		sm = def
	}
	if keyID == "" {
		keyID = DefaultSigningKeyID
	}
	return &SigningKey{ID: keyID, Method: sm, signKey: private, verifyKey: public}
}

// Keyfunc returns a verification keyfunc bound to this key id and algorithm
func (k *SigningKey) Keyfunc() jwt.Keyfunc {
	given := map[string]keyfunc.GivenKey{
		k.ID: keyfunc.NewGivenCustom(k.verifyKey, keyfunc.GivenKeyOptions{
			Algorithm: k.Method.Alg(),
		}),
	}
	return keyfunc.NewGiven(given).Keyfunc
}

func signingKeyError(msg, method string) error {
	clone := ErrInvalidSigningKey.Clone()
	if clone == nil {
		return ErrInvalidSigningKey
	}
	clone.Message = msg
	clone.Source = ErrInvalidSigningKey
	return clone.WithMetadata(map[string]any{"method": method})
}

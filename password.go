package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "1234567890"
	symbolChars = "!@#$%^&*"

	// MinGeneratedPasswordLength is the floor for generated credentials
	MinGeneratedPasswordLength = 12
)

// PasswordPolicy describes the rules a password must satisfy
type PasswordPolicy struct {
	MinLength       int  `yaml:"min_length" json:"min_length" envconfig:"MIN_LENGTH"`
	GeneratedLength int  `yaml:"generated_length" json:"generated_length" envconfig:"GENERATED_LENGTH"`
	RequireLower    bool `yaml:"require_lower" json:"require_lower" envconfig:"REQUIRE_LOWER"`
	RequireUpper    bool `yaml:"require_upper" json:"require_upper" envconfig:"REQUIRE_UPPER"`
	RequireDigit    bool `yaml:"require_digit" json:"require_digit" envconfig:"REQUIRE_DIGIT"`
	RequireSymbol   bool `yaml:"require_symbol" json:"require_symbol" envconfig:"REQUIRE_SYMBOL"`
}

// DefaultPasswordPolicy returns the policy used when none is configured
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:       8,
		GeneratedLength: MinGeneratedPasswordLength,
		RequireLower:    true,
		RequireUpper:    true,
		RequireDigit:    true,
		RequireSymbol:   true,
	}
}

// Check returns a description for each rule password breaks
func (p PasswordPolicy) Check(password string) []string {
	var errs []string

	if len(password) < p.MinLength {
		errs = append(errs, fmt.Sprintf("Passwords must be at least %d characters.", p.MinLength))
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			symbol = true
		}
	}

	if p.RequireLower && !lower {
		errs = append(errs, "Passwords must contain a lowercase letter.")
	}
	if p.RequireUpper && !upper {
		errs = append(errs, "Passwords must contain an uppercase letter.")
	}
	if p.RequireDigit && !digit {
		errs = append(errs, "Passwords must contain a digit.")
	}
	if p.RequireSymbol && !symbol {
		errs = append(errs, "Passwords must contain a symbol.")
	}

	return errs
}

// Generate returns a random password that satisfies the policy. The
// result is never shorter than MinGeneratedPasswordLength and always holds
// every character class.
func (p PasswordPolicy) Generate() (string, error) {
	length := max(p.GeneratedLength, p.MinLength, MinGeneratedPasswordLength)

	classes := []string{lowerChars, upperChars, digitChars, symbolChars}
	all := strings.Join(classes, "")

	out := make([]byte, 0, length)
	for _, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	for len(out) < length {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		k := j.Int64()
		out[i], out[k] = out[k], out[i]
	}

	return string(out), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}

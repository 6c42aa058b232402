package pin

import (
	"github.com/oarkflow/hash"
	"golang.org/x/crypto/bcrypt"
)

// ValidatePIN enforces the PIN format: digits only, within the
// configured length bounds. Anything else is a validation error and
// never reaches the attempt tracker.
func ValidatePIN(pin string, minLength, maxLength int) error {
	if len(pin) < minLength || len(pin) > maxLength {
		return ErrInvalidPIN
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return ErrInvalidPIN
		}
	}
	return nil
}

// HashPIN derives a salted, irreversible hash of the PIN.
func HashPIN(pin string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPIN compares a candidate against the stored hash. Hashes
// imported from an earlier deployment are checked through the legacy
// algorithm when one is configured.
func CheckPIN(pin, hashStr, legacyAlgo string) bool {
	if bcrypt.CompareHashAndPassword([]byte(hashStr), []byte(pin)) == nil {
		return true
	}
	if legacyAlgo == "" {
		return false
	}
	ok, _ := hash.Match(pin, hashStr, legacyAlgo)
	return ok
}

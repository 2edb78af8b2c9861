package auth

import "golang.org/x/crypto/bcrypt"

// passwordCost is the adaptive bcrypt work factor applied to every credential.
const passwordCost = 12

// HashPassword applies a salted one-way hash to the plaintext password.
// The plaintext is never persisted or logged.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether plain matches the stored hash. A mismatch is
// a false return, never an error.
func CheckPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes an admin credential with bcrypt at the configured
// cost. Only the hash is ever stored; see admins.password_hash.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword checks a login attempt against the stored credential
// hash in constant time. Callers count failures toward the lockout; this
// only answers yes or no.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted bcrypt digest from a plaintext password.
// bcrypt rejects inputs longer than 72 bytes.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether the plaintext matches the stored digest.
// Malformed digests compare false rather than erroring out.
func CheckPassword(password, digest string) bool {
	// bcrypt keys on the first 72 bytes only; CompareHashAndPassword does
	// not enforce the limit that GenerateFromPassword does, so an
	// over-long input sharing those bytes would otherwise verify true.
	if len(password) > 72 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

package utils

import "golang.org/x/crypto/bcrypt"

// HashCost is the bcrypt cost factor applied to every stored password.
const HashCost = 10

// HashPassword hashes a plaintext password with bcrypt. The salt is generated
// by bcrypt and embedded in the returned hash.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash verifies a plaintext password against a bcrypt hash.
// bcrypt's comparison is constant-time over the derived key.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

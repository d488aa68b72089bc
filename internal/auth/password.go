package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypts a staff password at the default cost. The hash never
// leaves the staff_users table.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword reports whether pw matches the stored hash, nil on a match.
func CheckPassword(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}

package auth

import "golang.org/x/crypto/bcrypt"

// HashAPIKey хэширует административный ключ с использованием bcrypt.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CompareAPIKey сравнивает bcrypt-хэш с предъявленным ключом.
func CompareAPIKey(hash, key string) bool {
	if hash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

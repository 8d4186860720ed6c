package security

import (
	"knowledge_hub/internal/platform/config"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of the password at the configured
// cost. The stored credential never leaves the persistence layer unhashed.
func HashPassword(password string) (string, error) {
	cost := bcrypt.DefaultCost
	if config.AppConfig != nil && config.AppConfig.BcryptCost > 0 {
		cost = config.AppConfig.BcryptCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

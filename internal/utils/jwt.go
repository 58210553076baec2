package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"velora_back_end/internal/models"
)

// GenerateJWT émet le token Bearer d'une session utilisateur (24h).
func GenerateJWT(user models.User, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

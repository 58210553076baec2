package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// Limites par endpoint
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3
	CheckoutMaxAttempts = 10

	// Durées de cooldown
	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
	CheckoutWindow   = 1 * time.Minute
)

// LoginRateLimit limite les tentatives de connexion par email
func LoginRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		bodyBytes, _ := io.ReadAll(c.Request.Body)

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			c.Next()
			return
		}

		// Remettre le body pour les handlers suivants
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		ctx := context.Background()
		cooldownKey := "login_cooldown:" + input.Email
		if rdb.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := rdb.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		key := "login_attempts:" + input.Email
		attempts, _ := rdb.Incr(ctx, key).Result()
		rdb.Expire(ctx, key, LoginCooldown)

		if attempts > LoginMaxAttempts {
			rdb.Set(ctx, cooldownKey, "1", LoginCooldown)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Trop de tentatives de connexion, compte temporairement bloqué",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CheckoutRateLimit borne le nombre de checkouts par utilisateur et par
// minute (protection contre les re-soumissions en rafale ; l'idempotence
// reste assurée par la clé Idempotency-Key côté commande).
func CheckoutRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if rdb == nil || userID == "" {
			c.Next()
			return
		}

		ctx := context.Background()
		key := "checkout_attempts:" + userID
		attempts, _ := rdb.Incr(ctx, key).Result()
		if attempts == 1 {
			rdb.Expire(ctx, key, CheckoutWindow)
		}

		if attempts > CheckoutMaxAttempts {
			ttl := rdb.TTL(ctx, key).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de commandes soumises, réessayez dans un instant",
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

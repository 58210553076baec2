package user

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"
)

// Register crée un compte local. Un compte vendeur reste "pending" tant
// qu'un admin ne l'a pas approuvé.
func Register(db *sql.DB, jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name     string `json:"name" binding:"required"`
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required,min=8"`
			IsTrader bool   `json:"isTrader"`
			ShopName string `json:"shopName"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
			return
		}

		if input.IsTrader && input.ShopName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nom de boutique requis pour un compte vendeur"})
			return
		}

		hash, err := utils.HashPassword(input.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
			return
		}

		role := "customer"
		if input.IsTrader {
			role = "trader"
		}

		u := models.User{Name: input.Name, Email: input.Email, Role: role}
		err = db.QueryRowContext(c.Request.Context(), `
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING user_id, created_at`,
			input.Name, input.Email, hash, role,
		).Scan(&u.ID, &u.CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
				return
			}
			log.Errorf("❌ Erreur création utilisateur: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
			return
		}

		if input.IsTrader {
			if _, err := db.ExecContext(c.Request.Context(), `
				INSERT INTO traders (user_id, shop_name) VALUES ($1, $2)`,
				u.ID, input.ShopName,
			); err != nil {
				log.Errorf("❌ Erreur création compte vendeur: %v", err)
			}
		}

		token, err := utils.GenerateJWT(u, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
			return
		}

		log.Infof("✅ Compte créé: %s (%s)", u.Email, role)
		c.JSON(http.StatusCreated, gin.H{
			"token":  token,
			"userId": u.ID,
			"email":  u.Email,
			"name":   u.Name,
			"role":   u.Role,
		})
	}
}

// Login authentifie un compte local et émet un token Bearer.
func Login(db *sql.DB, jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
			return
		}

		var u models.User
		err := db.QueryRowContext(c.Request.Context(), `
			SELECT user_id, name, email, password_hash, role
			FROM users WHERE email = $1`,
			input.Email,
		).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
			return
		}
		if err != nil {
			log.Errorf("❌ Erreur lecture utilisateur: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion"})
			return
		}

		ok, err := utils.VerifyPassword(input.Password, u.PasswordHash)
		if err != nil || !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
			return
		}

		token, err := utils.GenerateJWT(u, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":  token,
			"userId": u.ID,
			"email":  u.Email,
			"name":   u.Name,
			"role":   u.Role,
		})
	}
}

package product

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"velora_back_end/internal/reviews"
)

// ✅ Route : POST /api/products/:id/reviews (auth)
func CreateReview(svc *reviews.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
			return
		}

		var body struct {
			Rating  int    `json:"rating" binding:"required,min=1,max=5"`
			Title   string `json:"title"`
			Comment string `json:"comment"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "La note doit être comprise entre 1 et 5"})
			return
		}

		review, err := svc.Create(c.Request.Context(), reviews.CreateReviewInput{
			ProductID: c.Param("id"),
			UserID:    userID,
			Rating:    body.Rating,
			Title:     body.Title,
			Comment:   body.Comment,
		})
		switch {
		case errors.Is(err, reviews.ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case errors.Is(err, reviews.ErrAlreadyReviewed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		case errors.Is(err, reviews.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		case err != nil:
			log.Errorf("❌ Erreur création avis: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création avis"})
			return
		}

		c.JSON(http.StatusCreated, review)
	}
}

// ✅ Route : GET /api/products/:id/reviews
func GetProductReviews(svc *reviews.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListByProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			log.Errorf("❌ Erreur liste avis: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture avis"})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

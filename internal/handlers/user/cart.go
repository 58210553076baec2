package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"velora_back_end/internal/cart"
)

func GetCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
			return
		}

		lines, err := svc.Snapshot(c.Request.Context(), userID)
		if err != nil {
			log.Errorf("❌ Erreur lecture panier: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": lines})
	}
}

//
// 🟢 POST /api/cart/add
//
func AddToCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
			return
		}

		var input struct {
			ProductID string `json:"productId" binding:"required"`
			Quantity  int    `json:"quantity" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
			return
		}

		lines, err := svc.Add(c.Request.Context(), userID, input.ProductID, input.Quantity)
		switch {
		case errors.Is(err, cart.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
			return
		case errors.Is(err, cart.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		case err != nil:
			log.Errorf("❌ Erreur ajout panier: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur ajout panier"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Produit ajouté au panier",
			"items":   lines,
		})
	}
}

//
// ❌ DELETE /api/cart/:productId
//
func RemoveFromCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
			return
		}

		lines, err := svc.Remove(c.Request.Context(), userID, c.Param("productId"))
		if err != nil {
			log.Errorf("❌ Erreur suppression panier: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression panier"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Produit supprimé du panier",
			"items":   lines,
		})
	}
}

//
// 🧹 DELETE /api/cart/clear
//
func ClearCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
			return
		}

		if err := svc.Clear(c.Request.Context(), userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du vidage du panier"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Panier vidé avec succès"})
	}
}

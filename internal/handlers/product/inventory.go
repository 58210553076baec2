package product

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"velora_back_end/internal/catalog"
)

// ✅ Route : GET /api/products/:id/stock
// Lecture instantanée du stock, sans aucune garantie de réservation :
// seule la transaction de checkout fait foi.
func GetProductStock(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stock, err := svc.ReadStock(c.Request.Context(), c.Param("id"))
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}
		if err != nil {
			log.Errorf("❌ Erreur lecture stock: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture stock"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"product_id":     c.Param("id"),
			"stock_quantity": stock,
		})
	}
}

// ✅ Route : PUT /api/products/:id/stock (admin, réapprovisionnement)
func SetProductStock(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			StockQuantity *int `json:"stock_quantity" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Champ stock_quantity requis"})
			return
		}

		p, err := svc.Update(c.Request.Context(), c.Param("id"),
			catalog.ProductUpdate{StockQuantity: body.StockQuantity})
		switch {
		case errors.Is(err, catalog.ErrInvalidStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case errors.Is(err, catalog.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		case err != nil:
			log.Errorf("❌ Erreur mise à jour stock: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour stock"})
			return
		}

		log.Infof("📦 Stock mis à jour: %s → %d", p.ID, p.StockQuantity)
		c.JSON(http.StatusOK, gin.H{
			"product_id":     p.ID,
			"stock_quantity": p.StockQuantity,
		})
	}
}

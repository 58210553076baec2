package product

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"velora_back_end/internal/catalog"
)

// ✅ Route : GET /api/products
func GetAllProducts(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.List(c.Request.Context())
		if err != nil {
			log.Errorf("❌ Erreur liste produits: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// ✅ Route : GET /api/products/:id
func GetProductByID(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produit"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// ✅ Route : POST /api/products (admin)
func CreateProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			TraderID      *string `json:"trader_id"`
			Title         string  `json:"title" binding:"required"`
			Description   string  `json:"description"`
			Price         float64 `json:"price" binding:"required"`
			StockQuantity int     `json:"stock_quantity"`
			IsActive      *bool   `json:"is_active"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Champs manquants ou invalides"})
			return
		}

		active := true
		if body.IsActive != nil {
			active = *body.IsActive
		}

		p, err := svc.Create(c.Request.Context(), catalog.CreateProductInput{
			TraderID:      body.TraderID,
			Title:         body.Title,
			Description:   body.Description,
			Price:         body.Price,
			StockQuantity: body.StockQuantity,
			IsActive:      active,
		})
		if errors.Is(err, catalog.ErrInvalidPrice) || errors.Is(err, catalog.ErrInvalidStock) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			log.Errorf("❌ Erreur création produit: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création produit"})
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// ✅ Route : PATCH /api/products/:id (admin)
// Le corps est décodé dans l'ensemble fermé de champs modifiables :
// toute clé inconnue est simplement ignorée.
func UpdateProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var update catalog.ProductUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête invalide"})
			return
		}

		p, err := svc.Update(c.Request.Context(), c.Param("id"), update)
		switch {
		case errors.Is(err, catalog.ErrNoFieldsToUpdate),
			errors.Is(err, catalog.ErrInvalidPrice),
			errors.Is(err, catalog.ErrInvalidStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case errors.Is(err, catalog.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		case err != nil:
			log.Errorf("❌ Erreur mise à jour produit: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// ✅ Route : DELETE /api/products/:id (admin, désactivation logique)
func DeleteProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.Delete(c.Request.Context(), c.Param("id"))
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}
		if err != nil {
			log.Errorf("❌ Erreur suppression produit: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression produit"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Produit désactivé"})
	}
}

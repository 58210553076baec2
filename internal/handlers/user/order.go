package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"velora_back_end/internal/orders"
)

// ✅ Récupère toutes les commandes de l'utilisateur connecté
func GetMyOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
			return
		}

		list, err := svc.ListByUser(c.Request.Context(), userID)
		if err != nil {
			log.Errorf("❌ Erreur récupération commandes: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
			return
		}

		log.Infof("✅ %d commandes trouvées pour user %s", len(list), userID)
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

// ✅ Récupère une commande spécifique par ID (la sienne uniquement)
func GetOrderByID(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
			return
		}

		isAdmin := c.GetString("role") == "admin"
		order, err := svc.GetOrder(c.Request.Context(), c.Param("id"), userID, isAdmin)
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		case errors.Is(err, orders.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Accès non autorisé à cette commande"})
			return
		case err != nil:
			log.Errorf("❌ Erreur lecture commande: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commande"})
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

package pa

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"velora_back_end/internal/models"
	"velora_back_end/internal/orders"
	"velora_back_end/internal/utils"
)

// UpdateOrderStatus permet à un admin de mettre à jour le statut d'une
// commande et/ou ses notes internes.
func UpdateOrderStatus(svc *orders.Service, mailer *utils.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("id")

		var req struct {
			Status     *string `json:"status"`
			AdminNotes *string `json:"admin_notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
			return
		}

		order, err := svc.UpdateStatus(c.Request.Context(), orderID, req.Status, req.AdminNotes)
		switch {
		case errors.Is(err, orders.ErrNoFieldsToUpdate):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun champ à mettre à jour"})
			return
		case errors.Is(err, orders.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Statut invalide",
				"valid_statuses": []string{
					models.OrderStatusPending, models.OrderStatusConfirmed,
					models.OrderStatusProcessing, models.OrderStatusShipped,
					models.OrderStatusDelivered, models.OrderStatusCancelled,
				},
			})
			return
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		case err != nil:
			log.Errorf("❌ Erreur mise à jour commande: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour commande"})
			return
		}

		// Notification email au client (async, jamais bloquante)
		if req.Status != nil && mailer != nil {
			o := *order
			go func() {
				if err := mailer.SendOrderStatusEmail(o, o.CustomerEmail); err != nil {
					log.Warnf("⚠️ Erreur envoi email notification: %v", err)
				}
			}()
		}

		c.JSON(http.StatusOK, order)
	}
}

// VerifyPayment acte la décision admin sur un paiement déclaré par le
// client : accepté → payé + préparation, rejeté → retour en attente.
func VerifyPayment(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("id")

		var req struct {
			Verified *bool  `json:"verified" binding:"required"`
			Notes    string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
			return
		}

		order, err := svc.VerifyPayment(c.Request.Context(), orderID, *req.Verified, req.Notes)
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		case errors.Is(err, orders.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Commande livrée ou annulée, paiement non modifiable"})
			return
		case err != nil:
			log.Errorf("❌ Erreur vérification paiement: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur vérification paiement"})
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

// GetAllOrders permet à un admin de récupérer toutes les commandes
func GetAllOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListAll(c.Request.Context())
		if err != nil {
			log.Errorf("❌ Erreur lecture commandes: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": list,
			"count":  len(list),
		})
	}
}

// GetOrderStats retourne des statistiques sur les commandes
func GetOrderStats(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Stats(c.Request.Context())
		if err != nil {
			log.Errorf("❌ Erreur lecture stats: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture statistiques"})
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

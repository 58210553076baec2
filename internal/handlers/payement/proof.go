package pa

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"velora_back_end/internal/orders"
	"velora_back_end/internal/services"
)

// UploadPaymentProof dépose le justificatif de paiement (capture de
// virement) dans MinIO et accroche sa clé objet à la commande.
func UploadPaymentProof(ordersSvc *orders.Service, storage *services.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
			return
		}
		orderID := c.Param("id")

		file, err := c.FormFile("proof")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier justificatif manquant"})
			return
		}

		key, err := storage.UploadPaymentProof(c.Request.Context(), orderID, file)
		if err != nil {
			log.Errorf("❌ Erreur dépôt justificatif: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur dépôt justificatif"})
			return
		}

		if err := ordersSvc.AttachPaymentProof(c.Request.Context(), orderID, userID, key); err != nil {
			if errors.Is(err, orders.ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
				return
			}
			log.Errorf("❌ Erreur enregistrement justificatif: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement justificatif"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "Justificatif enregistré",
			"proof_key": key,
		})
	}
}

// GetPaymentProofURL renvoie une URL signée temporaire vers le justificatif
// (back-office admin, utilisée pendant la vérification de paiement).
func GetPaymentProofURL(ordersSvc *orders.Service, storage *services.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := ordersSvc.GetOrder(c.Request.Context(), c.Param("id"), "", true)
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commande"})
			return
		}
		if order.PaymentProofKey == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Aucun justificatif déposé"})
			return
		}

		url, err := storage.ProofURL(c.Request.Context(), order.PaymentProofKey, 15*time.Minute)
		if err != nil {
			log.Errorf("❌ Erreur URL signée: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération URL"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": url, "expires_in": int((15 * time.Minute).Seconds())})
	}
}

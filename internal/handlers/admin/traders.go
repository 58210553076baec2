package admin

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"velora_back_end/internal/models"
)

var validTraderStatuses = map[string]bool{
	models.TraderStatusPending:   true,
	models.TraderStatusApproved:  true,
	models.TraderStatusSuspended: true,
}

// GetAllTraders récupère tous les comptes vendeurs (back-office admin)
func GetAllTraders(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := db.QueryContext(c.Request.Context(), `
			SELECT trader_id, user_id, shop_name, status, created_at, updated_at
			FROM traders
			ORDER BY created_at DESC`)
		if err != nil {
			log.Errorf("❌ Erreur récupération vendeurs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
			return
		}
		defer rows.Close()

		traders := []models.Trader{}
		for rows.Next() {
			var t models.Trader
			if err := rows.Scan(&t.ID, &t.UserID, &t.ShopName, &t.Status,
				&t.CreatedAt, &t.UpdatedAt); err != nil {
				log.Errorf("❌ Erreur lecture vendeur: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
				return
			}
			traders = append(traders, t)
		}
		if err := rows.Err(); err != nil {
			log.Errorf("❌ Erreur récupération vendeurs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"traders": traders,
			"total":   len(traders),
		})
	}
}

// UpdateTraderStatus approuve ou suspend un compte vendeur
func UpdateTraderStatus(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
			return
		}
		if !validTraderStatuses[req.Status] {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":          "Statut vendeur invalide",
				"valid_statuses": []string{models.TraderStatusPending, models.TraderStatusApproved, models.TraderStatusSuspended},
			})
			return
		}

		var trader models.Trader
		err := db.QueryRowContext(c.Request.Context(), `
			UPDATE traders
			SET status = $2, updated_at = NOW()
			WHERE trader_id = $1
			RETURNING trader_id, user_id, shop_name, status, created_at, updated_at`,
			c.Param("id"), req.Status,
		).Scan(&trader.ID, &trader.UserID, &trader.ShopName, &trader.Status,
			&trader.CreatedAt, &trader.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vendeur non trouvé"})
			return
		}
		if err != nil {
			log.Errorf("❌ Erreur mise à jour vendeur: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la mise à jour du vendeur"})
			return
		}

		log.Infof("✅ Statut vendeur %s: %s", trader.ID, trader.Status)
		c.JSON(http.StatusOK, gin.H{
			"message": "Statut vendeur mis à jour",
			"trader":  trader,
		})
	}
}

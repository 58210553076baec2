package pa

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"velora_back_end/internal/cart"
	"velora_back_end/internal/models"
	"velora_back_end/internal/orders"
)

// Checkout transforme le panier soumis en commande, dans une transaction
// unique : validation stock, lignes figées au prix serveur, décrément,
// vidage panier. Tout échec annule tout.
func Checkout(ordersSvc *orders.Service, cartSvc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		email := c.GetString("email")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
			return
		}

		var req struct {
			Items []struct {
				ProductID string   `json:"productId" binding:"required"`
				Quantity  int      `json:"quantity" binding:"required"`
				Price     *float64 `json:"price"` // consultatif : le prix serveur fait foi
			} `json:"items" binding:"required"`
			ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
			PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
			TotalAmount     float64                `json:"totalAmount" binding:"required"`
			Email           string                 `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
			return
		}

		customerEmail := req.Email
		if customerEmail == "" {
			customerEmail = email
		}

		items := make([]orders.LineItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, orders.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		order, err := ordersSvc.PlaceOrder(c.Request.Context(), orders.PlaceOrderInput{
			UserID:          userID,
			Items:           items,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			TotalAmount:     req.TotalAmount,
			CustomerEmail:   customerEmail,
			IdempotencyKey:  c.GetHeader("Idempotency-Key"),
		})
		if err != nil {
			respondCheckoutError(c, err)
			return
		}

		// Le panier vient d'être vidé dans la transaction : le cache ne
		// doit pas y survivre.
		cartSvc.Invalidate(c.Request.Context(), userID)

		log.Infof("🧾 Checkout réussi: %s (%.2f€) pour %s", order.OrderNumber, order.TotalAmount, customerEmail)
		c.JSON(http.StatusCreated, gin.H{
			"success":     true,
			"orderId":     order.ID,
			"orderNumber": order.OrderNumber,
		})
	}
}

func respondCheckoutError(c *gin.Context, err error) {
	var stockErr *orders.InsufficientStockError
	var notFound *orders.ProductNotFoundError

	switch {
	case errors.Is(err, orders.ErrEmptyCart), errors.Is(err, orders.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Stock insuffisant",
			"product":   stockErr.Title,
			"productId": stockErr.ProductID,
			"requested": stockErr.Requested,
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable: " + notFound.ProductID})
	default:
		log.Errorf("❌ Erreur checkout: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
	}
}

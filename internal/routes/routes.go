package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"velora_back_end/internal/cart"
	"velora_back_end/internal/catalog"
	"velora_back_end/internal/handlers/admin"
	pa "velora_back_end/internal/handlers/payement"
	"velora_back_end/internal/handlers/product"
	"velora_back_end/internal/handlers/user"
	"velora_back_end/internal/middleware"
	"velora_back_end/internal/orders"
	"velora_back_end/internal/reviews"
	"velora_back_end/internal/services"
	"velora_back_end/internal/utils"
)

// Deps regroupe les dépendances injectées dans les handlers. Aucun handler
// ne touche une connexion globale : tout passe par ici.
type Deps struct {
	DB        *sql.DB
	Redis     *redis.Client
	JWTSecret []byte

	Orders  *orders.Service
	Cart    *cart.Service
	Catalog *catalog.Service
	Reviews *reviews.Service

	Mailer  *utils.Mailer
	Storage *services.Storage
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")

	// 🔓 Authentification
	auth := api.Group("/auth")
	{
		auth.POST("/register", user.Register(d.DB, d.JWTSecret))
		auth.POST("/login", middleware.LoginRateLimit(d.Redis), user.Login(d.DB, d.JWTSecret))
	}

	// 🔓 Catalogue public
	api.GET("/products", product.GetAllProducts(d.Catalog))
	api.GET("/products/:id", product.GetProductByID(d.Catalog))
	api.GET("/products/:id/stock", product.GetProductStock(d.Catalog))
	api.GET("/products/:id/reviews", product.GetProductReviews(d.Reviews))

	// 🔐 Routes authentifiées
	authed := api.Group("")
	authed.Use(middleware.AuthRequired(d.JWTSecret))
	{
		// 🛒 Panier
		authed.GET("/cart", user.GetCart(d.Cart))
		authed.POST("/cart/add", user.AddToCart(d.Cart))
		authed.DELETE("/cart/clear", user.ClearCart(d.Cart))
		authed.DELETE("/cart/:productId", user.RemoveFromCart(d.Cart))

		// 💳 Checkout
		authed.POST("/checkout", middleware.CheckoutRateLimit(d.Redis), pa.Checkout(d.Orders, d.Cart))

		// 📦 Commandes
		authed.GET("/orders", user.GetMyOrders(d.Orders))
		authed.GET("/orders/:id", user.GetOrderByID(d.Orders))
		authed.POST("/orders/:id/payment-proof", pa.UploadPaymentProof(d.Orders, d.Storage))

		// ⭐ Avis
		authed.POST("/products/:id/reviews", product.CreateReview(d.Reviews))
	}

	// 🛡️ Back-office admin
	adm := api.Group("/admin")
	adm.Use(middleware.AuthRequired(d.JWTSecret), middleware.RequireAdmin)
	{
		// Catalogue
		adm.POST("/products", product.CreateProduct(d.Catalog))
		adm.PATCH("/products/:id", product.UpdateProduct(d.Catalog))
		adm.DELETE("/products/:id", product.DeleteProduct(d.Catalog))
		adm.PUT("/products/:id/stock", product.SetProductStock(d.Catalog))

		// Commandes
		adm.GET("/orders", pa.GetAllOrders(d.Orders))
		adm.GET("/orders/stats", pa.GetOrderStats(d.Orders))
		adm.PATCH("/orders/:id/status", pa.UpdateOrderStatus(d.Orders, d.Mailer))
		adm.POST("/orders/:id/verify-payment", pa.VerifyPayment(d.Orders))
		adm.GET("/orders/:id/payment-proof", pa.GetPaymentProofURL(d.Orders, d.Storage))

		// Vendeurs
		adm.GET("/traders", admin.GetAllTraders(d.DB))
		adm.PATCH("/traders/:id", admin.UpdateTraderStatus(d.DB))
	}
}

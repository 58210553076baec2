package main

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"velora_back_end/internal/cart"
	"velora_back_end/internal/catalog"
	"velora_back_end/internal/config"
	"velora_back_end/internal/database"
	"velora_back_end/internal/orders"
	"velora_back_end/internal/reviews"
	"velora_back_end/internal/routes"
	"velora_back_end/internal/services"
	"velora_back_end/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Impossible de se connecter à PostgreSQL: %v", err)
	}
	defer db.Close()

	rdb, err := database.ConnectRedis(cfg.RedisHost, cfg.RedisPassword)
	if err != nil {
		// Le cache panier et le rate limiting sont dégradés mais le site
		// reste fonctionnel : PostgreSQL fait toujours foi.
		log.Warnf("⚠️  Redis indisponible, cache panier désactivé: %v", err)
		rdb = nil
	}

	var storage *services.Storage
	if cfg.MinIOEndpoint != "" {
		mc, err := database.ConnectMinIO(context.Background(),
			cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey,
			cfg.MinIOBucket, cfg.MinIOUseSSL)
		if err != nil {
			log.Fatalf("❌ Impossible d'initialiser MinIO: %v", err)
		}
		storage = services.NewStorage(mc, cfg.MinIOBucket)
	} else {
		log.Warn("⚠️  MinIO non configuré, dépôt de justificatifs désactivé")
		storage = services.NewStorage(nil, "")
	}

	logger := log.StandardLogger()
	mailer := &utils.Mailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://velora.shop"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		AllowCredentials: true,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		DB:        db,
		Redis:     rdb,
		JWTSecret: []byte(cfg.JWTSecret),
		Orders:    orders.NewService(db, logger),
		Cart:      cart.NewService(db, rdb, logger),
		Catalog:   catalog.NewService(db, logger),
		Reviews:   reviews.NewService(db, logger),
		Mailer:    mailer,
		Storage:   storage,
	})

	log.Infof("🚀 Serveur Velora lancé sur le port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Serveur arrêté: %v", err)
	}
}

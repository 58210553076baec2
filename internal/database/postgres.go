package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

// ConnectPostgres ouvre le pool de connexions PostgreSQL.
// Le pool est passé explicitement aux services (pas de singleton global)
// pour pouvoir tester le cœur transactionnel en isolation.
func ConnectPostgres(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL manquant")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ouverture connexion PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping PostgreSQL échoué: %w", err)
	}

	log.Info("✅ Connecté à PostgreSQL")
	return db, nil
}

package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"velora_back_end/internal/models"
)

var (
	ErrAlreadyReviewed = errors.New("vous avez déjà laissé un avis sur ce produit")
	ErrProductNotFound = errors.New("produit introuvable")
	ErrInvalidRating   = errors.New("la note doit être comprise entre 1 et 5")
)

// Service gère les avis produits et maintient les agrégats rating /
// review_count par recalcul complet après chaque insertion.
type Service struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewService(db *sql.DB, logger *logrus.Logger) *Service {
	return &Service{db: db, log: logger}
}

type CreateReviewInput struct {
	ProductID string
	UserID    string
	Rating    int
	Title     string
	Comment   string
}

// Create insère un avis (unique par couple produit/utilisateur), calcule le
// badge achat vérifié depuis l'historique de commandes payées, puis recalcule
// intégralement la moyenne et le compteur du produit. Le tout dans une même
// transaction : l'agrégat ne peut pas diverger de la table des avis.
func (s *Service) Create(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ouverture transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Errorf("❌ Rollback avis échoué: %v (erreur initiale: %v)", rbErr, err)
			}
		}
	}()

	// Achat vérifié : au moins une commande payée contenant ce produit.
	var verified bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.order_id
			WHERE o.user_id = $1 AND oi.product_id = $2 AND o.payment_status = 'paid'
		)`,
		in.UserID, in.ProductID,
	).Scan(&verified)
	if err != nil {
		return nil, fmt.Errorf("vérification achat: %w", err)
	}

	review := &models.Review{
		ProductID:        in.ProductID,
		UserID:           in.UserID,
		Rating:           in.Rating,
		Title:            in.Title,
		Comment:          in.Comment,
		VerifiedPurchase: verified,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO reviews (product_id, user_id, rating, title, comment, verified_purchase)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING review_id, created_at`,
		in.ProductID, in.UserID, in.Rating, in.Title, in.Comment, verified,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // un seul avis par couple (produit, utilisateur)
				err = ErrAlreadyReviewed
				return nil, err
			case "23503": // produit inexistant
				err = ErrProductNotFound
				return nil, err
			}
		}
		return nil, fmt.Errorf("insertion avis: %w", err)
	}

	// Recalcul complet plutôt qu'incrémental : plus cher, jamais faux.
	if _, err = tx.ExecContext(ctx, `
		UPDATE products p
		SET rating = COALESCE(r.avg_rating, 0),
		    review_count = COALESCE(r.review_count, 0),
		    updated_at = now()
		FROM (
			SELECT AVG(rating)::float8 AS avg_rating, COUNT(*) AS review_count
			FROM reviews WHERE product_id = $1
		) r
		WHERE p.product_id = $1`,
		in.ProductID,
	); err != nil {
		return nil, fmt.Errorf("recalcul note produit: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit avis: %w", err)
	}

	s.log.Infof("⭐ Avis créé sur %s par %s (note: %d/5, achat vérifié: %v)",
		in.ProductID, in.UserID, in.Rating, verified)
	return review, nil
}

// ListByProduct renvoie les avis d'un produit, plus récents d'abord.
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.review_id, r.product_id, r.user_id, u.name, r.rating,
		       r.title, r.comment, r.verified_purchase, r.created_at
		FROM reviews r
		JOIN users u ON u.user_id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("lecture avis: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.UserName, &r.Rating,
			&r.Title, &r.Comment, &r.VerifiedPurchase, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan avis: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("itération avis: %w", err)
	}
	return reviews, nil
}

package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"velora_back_end/internal/models"
)

var (
	ErrProductNotFound = errors.New("produit introuvable")
	ErrInvalidQuantity = errors.New("quantité invalide")
)

const cacheTTL = 30 * 24 * time.Hour

// Service gère le panier. PostgreSQL fait autorité (le vidage au checkout
// participe à la transaction de commande) ; Redis sert de cache d'affichage,
// invalidé à chaque mutation. Le cache ne contient jamais de prix ni de
// titre : seule la composition (produit, quantité) y est stockée, tout le
// reste est relu en base à chaque lecture.
type Service struct {
	db    *sql.DB
	redis *redis.Client
	log   *logrus.Logger
}

func NewService(db *sql.DB, rdb *redis.Client, logger *logrus.Logger) *Service {
	return &Service{db: db, redis: rdb, log: logger}
}

func cacheKey(userID string) string {
	return "cart:" + userID
}

// cachedLine est l'entrée de cache Redis : composition du panier uniquement,
// jamais le prix (toujours relu sur le produit).
type cachedLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Snapshot résout le panier en lignes valorisées au prix produit actuel.
// Panier inexistant → liste vide. Aucune mutation.
func (s *Service) Snapshot(ctx context.Context, userID string) ([]models.CartLine, error) {
	if s.redis != nil {
		if data, err := s.redis.Get(ctx, cacheKey(userID)).Result(); err == nil && data != "" {
			var cached []cachedLine
			if err := json.Unmarshal([]byte(data), &cached); err == nil {
				if lines, err := s.reprice(ctx, cached); err == nil {
					return lines, nil
				}
				// cache périmé (produit disparu, erreur de lecture) : on
				// repart de la jointure complète
			}
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ci.product_id, p.title, ci.quantity, p.price
		FROM cart_items ci
		JOIN carts c ON c.cart_id = ci.cart_id
		JOIN products p ON p.product_id = ci.product_id
		WHERE c.user_id = $1
		ORDER BY ci.added_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("lecture panier: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ProductID, &line.Title, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan ligne panier: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("itération panier: %w", err)
	}

	s.cache(ctx, userID, lines)
	return lines, nil
}

// reprice revalorise une composition en cache au prix et titre actuels des
// produits. Échoue si un produit a disparu : l'appelant retombe alors sur la
// jointure complète.
func (s *Service) reprice(ctx context.Context, cached []cachedLine) ([]models.CartLine, error) {
	if len(cached) == 0 {
		return []models.CartLine{}, nil
	}

	ids := make([]string, 0, len(cached))
	for _, c := range cached {
		ids = append(ids, c.ProductID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, title, price
		FROM products WHERE product_id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("relecture prix produits: %w", err)
	}
	defer rows.Close()

	type priced struct {
		title string
		price float64
	}
	byID := make(map[string]priced, len(cached))
	for rows.Next() {
		var id string
		var p priced
		if err := rows.Scan(&id, &p.title, &p.price); err != nil {
			return nil, fmt.Errorf("scan prix produit: %w", err)
		}
		byID[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("itération prix produits: %w", err)
	}

	lines := make([]models.CartLine, 0, len(cached))
	for _, c := range cached {
		p, ok := byID[c.ProductID]
		if !ok {
			return nil, fmt.Errorf("produit %s absent, cache périmé", c.ProductID)
		}
		lines = append(lines, models.CartLine{
			ProductID: c.ProductID,
			Title:     p.title,
			Quantity:  c.Quantity,
			UnitPrice: p.price,
		})
	}
	return lines, nil
}

// Add ajoute un produit au panier (créé paresseusement au premier ajout).
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) ([]models.CartLine, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var isActive bool
	err := s.db.QueryRowContext(ctx,
		`SELECT is_active FROM products WHERE product_id = $1`, productID,
	).Scan(&isActive)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !isActive) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit: %w", err)
	}

	var cartID string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING cart_id`,
		userID,
	).Scan(&cartID)
	if err != nil {
		return nil, fmt.Errorf("création panier: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		cartID, productID, quantity,
	); err != nil {
		return nil, fmt.Errorf("ajout article: %w", err)
	}

	s.invalidate(ctx, userID)
	s.log.Infof("🛒 Produit %s ajouté au panier de %s (x%d)", productID, userID, quantity)
	return s.Snapshot(ctx, userID)
}

// Remove supprime un produit du panier.
func (s *Service) Remove(ctx context.Context, userID, productID string) ([]models.CartLine, error) {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items
		USING carts
		WHERE cart_items.cart_id = carts.cart_id
		  AND carts.user_id = $1 AND cart_items.product_id = $2`,
		userID, productID,
	); err != nil {
		return nil, fmt.Errorf("suppression article: %w", err)
	}

	s.invalidate(ctx, userID)
	return s.Snapshot(ctx, userID)
}

// Clear vide entièrement le panier (hors checkout : le vidage du checkout
// est fait dans la transaction de commande).
func (s *Service) Clear(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items
		USING carts
		WHERE cart_items.cart_id = carts.cart_id AND carts.user_id = $1`,
		userID,
	); err != nil {
		return fmt.Errorf("vidage panier: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// Invalidate est appelé après un checkout réussi : le panier vient d'être
// vidé en base dans la transaction, le cache ne doit pas survivre.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	s.invalidate(ctx, userID)
}

func (s *Service) cache(ctx context.Context, userID string, lines []models.CartLine) {
	if s.redis == nil {
		return
	}
	cached := make([]cachedLine, 0, len(lines))
	for _, line := range lines {
		cached = append(cached, cachedLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey(userID), data, cacheTTL).Err(); err != nil {
		s.log.Warnf("⚠️ Cache panier non écrit pour %s: %v", userID, err)
	}
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKey(userID)).Err(); err != nil {
		s.log.Warnf("⚠️ Cache panier non invalidé pour %s: %v", userID, err)
	}
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"velora_back_end/internal/models"
)

var (
	ErrProductNotFound  = errors.New("produit introuvable")
	ErrNoFieldsToUpdate = errors.New("aucun champ à mettre à jour")
	ErrInvalidPrice     = errors.New("prix invalide")
	ErrInvalidStock     = errors.New("stock invalide")
)

// Service expose le catalogue produits et le registre de stock. Le décrément
// de stock du checkout n'est PAS ici : il appartient à la transaction de
// commande (internal/orders), seule à pouvoir vérifier-et-décrémenter
// atomiquement.
type Service struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewService(db *sql.DB, logger *logrus.Logger) *Service {
	return &Service{db: db, log: logger}
}

const productColumns = `product_id, trader_id, title, description, price,
	stock_quantity, is_active, rating, review_count, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.TraderID, &p.Title, &p.Description, &p.Price,
		&p.StockQuantity, &p.IsActive, &p.Rating, &p.ReviewCount,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get renvoie un produit par identifiant.
func (s *Service) Get(ctx context.Context, productID string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE product_id = $1`, productID)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit: %w", err)
	}
	return p, nil
}

// List renvoie les produits actifs du catalogue.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("lecture catalogue: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan produit: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("itération catalogue: %w", err)
	}
	return products, nil
}

// ReadStock lit le stock courant d'un produit (registre de stock).
func (s *Service) ReadStock(ctx context.Context, productID string) (int, error) {
	var stock int
	err := s.db.QueryRowContext(ctx,
		`SELECT stock_quantity FROM products WHERE product_id = $1`, productID,
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lecture stock: %w", err)
	}
	return stock, nil
}

type CreateProductInput struct {
	TraderID      *string
	Title         string
	Description   string
	Price         float64
	StockQuantity int
	IsActive      bool
}

// Create insère un nouveau produit (back-office admin / vendeur).
func (s *Service) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	if in.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if in.StockQuantity < 0 {
		return nil, ErrInvalidStock
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO products (trader_id, title, description, price, stock_quantity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		in.TraderID, in.Title, in.Description, in.Price, in.StockQuantity, in.IsActive,
	)
	p, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("création produit: %w", err)
	}
	s.log.Infof("📦 Produit créé: %s (%s)", p.Title, p.ID)
	return p, nil
}

// ProductUpdate est l'ensemble FERMÉ des champs modifiables d'un produit.
// Tout champ à nil est laissé inchangé ; aucune clé arbitraire n'atteint
// jamais la requête UPDATE.
type ProductUpdate struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price"`
	StockQuantity *int     `json:"stock_quantity"`
	IsActive      *bool    `json:"is_active"`
}

func (u *ProductUpdate) isEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil &&
		u.StockQuantity == nil && u.IsActive == nil
}

// Update applique une mise à jour admin sur l'ensemble fermé de champs.
func (s *Service) Update(ctx context.Context, productID string, update ProductUpdate) (*models.Product, error) {
	if update.isEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	if update.Price != nil && *update.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if update.StockQuantity != nil && *update.StockQuantity < 0 {
		return nil, ErrInvalidStock
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    price = COALESCE($4, price),
		    stock_quantity = COALESCE($5, stock_quantity),
		    is_active = COALESCE($6, is_active),
		    updated_at = now()
		WHERE product_id = $1
		RETURNING `+productColumns,
		productID, update.Title, update.Description, update.Price,
		update.StockQuantity, update.IsActive,
	)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mise à jour produit: %w", err)
	}
	s.log.Infof("📦 Produit %s mis à jour", productID)
	return p, nil
}

// Delete désactive un produit (jamais de suppression physique : les lignes
// de commandes y font référence).
func (s *Service) Delete(ctx context.Context, productID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET is_active = FALSE, updated_at = now()
		WHERE product_id = $1`,
		productID,
	)
	if err != nil {
		return fmt.Errorf("désactivation produit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("désactivation produit: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

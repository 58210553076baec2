package orders

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"velora_back_end/internal/models"
)

// Service porte le cœur transactionnel : création atomique des commandes
// (validation stock, lignes figées, décrément, vidage panier) puis
// transitions de statut pilotées par un admin. Le pool est injecté à la
// construction, jamais consommé via un singleton.
type Service struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewService(db *sql.DB, logger *logrus.Logger) *Service {
	return &Service{db: db, log: logger}
}

// LineItem est un article demandé au checkout. Le prix éventuellement envoyé
// par le client est ignoré : seul le prix stocké en base fait foi.
type LineItem struct {
	ProductID string
	Quantity  int
}

type PlaceOrderInput struct {
	UserID          string
	Items           []LineItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	TotalAmount     float64
	CustomerEmail   string
	IdempotencyKey  string
}

func (in *PlaceOrderInput) validate() error {
	if len(in.Items) == 0 {
		return ErrEmptyCart
	}
	for _, item := range in.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return fmt.Errorf("%w: article invalide", ErrMissingFields)
		}
	}
	if in.ShippingAddress.Street == "" || in.ShippingAddress.City == "" {
		return fmt.Errorf("%w: adresse de livraison", ErrMissingFields)
	}
	if in.PaymentMethod == "" {
		return fmt.Errorf("%w: moyen de paiement", ErrMissingFields)
	}
	if in.CustomerEmail == "" {
		return fmt.Errorf("%w: email client", ErrMissingFields)
	}
	if in.TotalAmount <= 0 {
		return fmt.Errorf("%w: montant total", ErrMissingFields)
	}
	return nil
}

// generateOrderNumber produit un numéro lisible : horodatage + suffixe
// aléatoire. La contrainte UNIQUE en base couvre le cas de collision.
func generateOrderNumber() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("VL-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}

// PlaceOrder transforme le panier en commande durable, en une seule
// transaction : tout réussit ou rien n'est écrit.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	// Rejeu d'une soumission déjà aboutie : renvoyer la commande existante
	// sans aucun nouvel effet.
	if in.IdempotencyKey != "" {
		if existing, err := s.findByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey); err == nil {
			s.log.Infof("🔁 Checkout rejoué (clé %s), commande %s renvoyée", in.IdempotencyKey, existing.OrderNumber)
			return existing, nil
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lecture clé d'idempotence: %w", err)
		}
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
				s.log.Errorf("❌ Rollback checkout échoué: %v (erreur initiale: %v)", rbErr, err)
			}
		}
	}()

	order := &models.Order{
		UserID:          in.UserID,
		OrderNumber:     generateOrderNumber(),
		TotalAmount:     in.TotalAmount,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		CustomerEmail:   in.CustomerEmail,
	}

	addressJSON, err := json.Marshal(in.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("sérialisation adresse: %w", err)
	}

	idemKey := sql.NullString{String: in.IdempotencyKey, Valid: in.IdempotencyKey != ""}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, order_number, total_amount, shipping_address,
		                    payment_method, status, payment_status, customer_email, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING order_id, created_at`,
		in.UserID, order.OrderNumber, in.TotalAmount, addressJSON,
		in.PaymentMethod, order.Status, order.PaymentStatus, in.CustomerEmail, idemKey,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		// Course sur la clé d'idempotence : une autre soumission identique a
		// gagné, on renvoie sa commande (le defer annule la transaction).
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && in.IdempotencyKey != "" {
			if existing, lookupErr := s.findByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("insertion commande: %w", err)
	}

	for _, item := range in.Items {
		// Relecture du produit faisant autorité, dans la transaction. Un
		// produit désactivé n'est pas achetable, même si le client soumet
		// son identifiant directement.
		var title string
		var unitPrice float64
		var isActive bool
		err = tx.QueryRowContext(ctx,
			`SELECT title, price, is_active FROM products WHERE product_id = $1`,
			item.ProductID,
		).Scan(&title, &unitPrice, &isActive)
		if errors.Is(err, sql.ErrNoRows) {
			err = &ProductNotFoundError{ProductID: item.ProductID}
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("lecture produit %s: %w", item.ProductID, err)
		}
		if !isActive {
			err = &ProductNotFoundError{ProductID: item.ProductID}
			return nil, err
		}

		// Vérification + décrément atomiques : la condition sur
		// stock_quantity porte le verrou de ligne, pas de pré-check séparé.
		res, execErr := tx.ExecContext(ctx, `
			UPDATE products
			SET stock_quantity = stock_quantity - $2, updated_at = now()
			WHERE product_id = $1 AND stock_quantity >= $2`,
			item.ProductID, item.Quantity,
		)
		if execErr != nil {
			err = fmt.Errorf("décrément stock produit %s: %w", item.ProductID, execErr)
			return nil, err
		}
		affected, raErr := res.RowsAffected()
		if raErr != nil {
			err = fmt.Errorf("décrément stock produit %s: %w", item.ProductID, raErr)
			return nil, err
		}
		if affected == 0 {
			err = &InsufficientStockError{ProductID: item.ProductID, Title: title, Requested: item.Quantity}
			return nil, err
		}

		line := models.OrderItem{
			OrderID:      order.ID,
			ProductID:    item.ProductID,
			ProductTitle: title,
			Quantity:     item.Quantity,
			UnitPrice:    unitPrice,
			TotalPrice:   unitPrice * float64(item.Quantity),
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_title, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING order_item_id`,
			line.OrderID, line.ProductID, line.ProductTitle, line.Quantity, line.UnitPrice, line.TotalPrice,
		).Scan(&line.ID)
		if err != nil {
			return nil, fmt.Errorf("insertion ligne commande (produit %s): %w", item.ProductID, err)
		}
		order.Items = append(order.Items, line)
	}

	// Le vidage du panier fait partie de la même unité atomique.
	if _, err = tx.ExecContext(ctx, `
		DELETE FROM cart_items
		USING carts
		WHERE cart_items.cart_id = carts.cart_id AND carts.user_id = $1`,
		in.UserID,
	); err != nil {
		return nil, fmt.Errorf("vidage panier: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	s.log.Infof("🧾 Commande %s créée pour %s (%d articles, %.2f€)",
		order.OrderNumber, in.UserID, len(order.Items), in.TotalAmount)
	return order, nil
}

func (s *Service) findByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error) {
	var orderID string
	err := s.db.QueryRowContext(ctx,
		`SELECT order_id FROM orders WHERE user_id = $1 AND idempotency_key = $2`,
		userID, key,
	).Scan(&orderID)
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID, userID, false)
}

// GetOrder renvoie la projection complète d'une commande. Un admin lit tout,
// un client uniquement les siennes.
func (s *Service) GetOrder(ctx context.Context, orderID, requesterID string, isAdmin bool) (*models.Order, error) {
	order := &models.Order{}
	user := models.UserSummary{}
	var addressJSON []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT o.order_id, o.user_id, o.order_number, o.total_amount, o.shipping_address,
		       o.payment_method, o.status, o.payment_status, o.customer_email,
		       o.payment_verified, o.admin_notes, o.payment_proof_key,
		       o.created_at, o.updated_at, u.name, u.email
		FROM orders o
		JOIN users u ON u.user_id = o.user_id
		WHERE o.order_id = $1`,
		orderID,
	).Scan(&order.ID, &order.UserID, &order.OrderNumber, &order.TotalAmount, &addressJSON,
		&order.PaymentMethod, &order.Status, &order.PaymentStatus, &order.CustomerEmail,
		&order.PaymentVerified, &order.AdminNotes, &order.PaymentProofKey,
		&order.CreatedAt, &order.UpdatedAt, &user.Name, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture commande: %w", err)
	}

	if !isAdmin && order.UserID != requesterID {
		return nil, ErrForbidden
	}

	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("décodage adresse: %w", err)
	}
	user.ID = order.UserID
	order.User = &user

	items, err := s.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *Service) loadItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_item_id, order_id, product_id, product_title, quantity, unit_price, total_price
		FROM order_items WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("lecture lignes commande: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductTitle,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan ligne commande: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("itération lignes commande: %w", err)
	}
	return items, nil
}

// ListByUser renvoie les commandes d'un client, plus récentes d'abord.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, order_number, total_amount, payment_method, status,
		       payment_status, customer_email, created_at, updated_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}
	defer rows.Close()

	var list []models.Order
	var orderIDs []string
	for rows.Next() {
		order := models.Order{UserID: userID}
		if err := rows.Scan(&order.ID, &order.OrderNumber, &order.TotalAmount, &order.PaymentMethod,
			&order.Status, &order.PaymentStatus, &order.CustomerEmail,
			&order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan commande: %w", err)
		}
		list = append(list, order)
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("itération commandes: %w", err)
	}
	if len(list) == 0 {
		return []models.Order{}, nil
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT order_item_id, order_id, product_id, product_title, quantity, unit_price, total_price
		FROM order_items WHERE order_id = ANY($1)`,
		pq.Array(orderIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("lecture lignes commandes: %w", err)
	}
	defer itemRows.Close()

	itemsByOrder := make(map[string][]models.OrderItem)
	for itemRows.Next() {
		var item models.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductTitle,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan ligne commande: %w", err)
		}
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("itération lignes commandes: %w", err)
	}

	for i := range list {
		list[i].Items = itemsByOrder[list[i].ID]
	}
	return list, nil
}

// UpdateStatus applique une mise à jour admin du statut et/ou des notes.
// Énumération fermée, au moins un champ, jamais de sortie d'état terminal.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, newStatus, adminNotes *string) (*models.Order, error) {
	if newStatus == nil && adminNotes == nil {
		return nil, ErrNoFieldsToUpdate
	}
	if newStatus != nil && !IsValidStatus(*newStatus) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, *newStatus)
	}

	var current string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE order_id = $1`, orderID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture statut: %w", err)
	}

	if newStatus != nil && !CanTransition(current, *newStatus) {
		return nil, fmt.Errorf("%w: transition %s → %s refusée", ErrInvalidStatus, current, *newStatus)
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = COALESCE($2, status),
		    admin_notes = COALESCE($3, admin_notes),
		    updated_at = now()
		WHERE order_id = $1`,
		orderID, newStatus, adminNotes,
	); err != nil {
		return nil, fmt.Errorf("mise à jour commande: %w", err)
	}

	if newStatus != nil {
		s.log.Infof("✅ Commande %s mise à jour: %s → %s", orderID, current, *newStatus)
	}
	return s.GetOrder(ctx, orderID, "", true)
}

// VerifyPayment acte la décision admin sur le paiement déclaré par le client.
// Accepté → payé + commande en préparation ; rejeté → retour en attente.
func (s *Service) VerifyPayment(ctx context.Context, orderID string, verified bool, notes string) (*models.Order, error) {
	// Même garde que les transitions de statut : une commande livrée ou
	// annulée ne peut plus être touchée par une décision de paiement.
	var current string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE order_id = $1`, orderID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture statut: %w", err)
	}
	if IsTerminalStatus(current) {
		return nil, fmt.Errorf("%w: paiement non modifiable sur une commande %s", ErrInvalidStatus, current)
	}

	paymentStatus := models.PaymentStatusFailed
	orderStatus := models.OrderStatusPending
	if verified {
		paymentStatus = models.PaymentStatusPaid
		orderStatus = models.OrderStatusProcessing
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2, status = $3, payment_verified = $4,
		    admin_notes = $5, updated_at = now()
		WHERE order_id = $1`,
		orderID, paymentStatus, orderStatus, verified, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("vérification paiement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("vérification paiement: %w", err)
	}
	if affected == 0 {
		return nil, ErrOrderNotFound
	}

	s.log.Infof("💳 Paiement commande %s: %s", orderID, paymentStatus)
	return s.GetOrder(ctx, orderID, "", true)
}

// AttachPaymentProof enregistre la référence du justificatif déposé par le
// client (clé objet MinIO).
func (s *Service) AttachPaymentProof(ctx context.Context, orderID, userID, objectKey string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET payment_proof_key = $3, updated_at = now()
		WHERE order_id = $1 AND user_id = $2`,
		orderID, userID, objectKey,
	)
	if err != nil {
		return fmt.Errorf("enregistrement justificatif: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("enregistrement justificatif: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListAll renvoie toutes les commandes pour le back-office admin.
func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, user_id, order_number, total_amount, payment_method,
		       status, payment_status, customer_email, payment_verified,
		       created_at, updated_at
		FROM orders ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}
	defer rows.Close()

	var list []models.Order
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.OrderNumber, &order.TotalAmount,
			&order.PaymentMethod, &order.Status, &order.PaymentStatus, &order.CustomerEmail,
			&order.PaymentVerified, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan commande: %w", err)
		}
		list = append(list, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("itération commandes: %w", err)
	}
	return list, nil
}

// OrderStats agrège le chiffre d'affaires et la répartition par statut.
type OrderStats struct {
	TotalOrders  int            `json:"total_orders"`
	TotalRevenue float64        `json:"total_revenue"`
	ByStatus     map[string]int `json:"by_status"`
}

// Stats calcule les statistiques commandes du back-office.
func (s *Service) Stats(ctx context.Context) (*OrderStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, total_amount FROM orders`)
	if err != nil {
		return nil, fmt.Errorf("lecture statistiques: %w", err)
	}
	defer rows.Close()

	stats := &OrderStats{ByStatus: make(map[string]int)}
	for rows.Next() {
		var status string
		var amount float64
		if err := rows.Scan(&status, &amount); err != nil {
			return nil, fmt.Errorf("scan statistiques: %w", err)
		}
		stats.ByStatus[status]++
		stats.TotalOrders++
		// Une commande annulée reste comptée mais ne rapporte rien.
		if status != models.OrderStatusCancelled {
			stats.TotalRevenue += amount
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("itération statistiques: %w", err)
	}
	return stats, nil
}

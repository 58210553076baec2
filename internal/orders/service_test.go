package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/models"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewService(db, logger), mock, db
}

func validInput() PlaceOrderInput {
	return PlaceOrderInput{
		UserID: "u-1",
		Items: []LineItem{
			{ProductID: "p-1", Quantity: 2},
			{ProductID: "p-2", Quantity: 1},
		},
		ShippingAddress: models.ShippingAddress{
			FullName:   "Alice Dupont",
			Street:     "12 rue des Lilas",
			PostalCode: "75011",
			City:       "Paris",
			Country:    "FR",
		},
		PaymentMethod: "virement",
		TotalAmount:   49.97,
		CustomerEmail: "alice@example.com",
	}
}

// expectGetOrder enregistre les requêtes de lecture de la projection complète.
func expectGetOrder(mock sqlmock.Sqlmock, orderID, userID, status, paymentStatus string) {
	address, _ := json.Marshal(models.ShippingAddress{Street: "12 rue des Lilas", City: "Paris"})
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders o")).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{
			"order_id", "user_id", "order_number", "total_amount", "shipping_address",
			"payment_method", "status", "payment_status", "customer_email",
			"payment_verified", "admin_notes", "payment_proof_key",
			"created_at", "updated_at", "name", "email",
		}).AddRow(orderID, userID, "VL-1700000000000-abcd1234", 49.97, address,
			"virement", status, paymentStatus, "alice@example.com",
			false, "", "", time.Now(), nil, "Alice Dupont", "alice@example.com"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items WHERE order_id")).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{
			"order_item_id", "order_id", "product_id", "product_title",
			"quantity", "unit_price", "total_price",
		}).AddRow("oi-1", orderID, "p-1", "Tasse émaillée", 2, 19.99, 39.98))
}

func TestPlaceOrderEmptyItems(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	in := validInput()
	in.Items = nil

	_, err := svc.PlaceOrder(context.Background(), in)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderMissingFields(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	cases := map[string]func(*PlaceOrderInput){
		"adresse":  func(in *PlaceOrderInput) { in.ShippingAddress = models.ShippingAddress{} },
		"paiement": func(in *PlaceOrderInput) { in.PaymentMethod = "" },
		"email":    func(in *PlaceOrderInput) { in.CustomerEmail = "" },
		"total":    func(in *PlaceOrderInput) { in.TotalAmount = 0 },
		"quantité": func(in *PlaceOrderInput) { in.Items[0].Quantity = 0 },
	}
	for name, mutate := range cases {
		in := validInput()
		mutate(&in)
		_, err := svc.PlaceOrder(context.Background(), in)
		assert.ErrorIs(t, err, ErrMissingFields, name)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderSuccess(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	in := validInput()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs("u-1", sqlmock.AnyArg(), 49.97, sqlmock.AnyArg(),
			"virement", "pending", "pending", "alice@example.com", nil).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "created_at"}).
			AddRow("o-1", time.Now()))

	// Article 1 : prix stocké 19.99, stock suffisant.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, price, is_active FROM products")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "price", "is_active"}).
			AddRow("Tasse émaillée", 19.99, true))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).
		WithArgs("p-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs("o-1", "p-1", "Tasse émaillée", 2, 19.99, 39.98).
		WillReturnRows(sqlmock.NewRows([]string{"order_item_id"}).AddRow("oi-1"))

	// Article 2 : prix stocké 9.99.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, price, is_active FROM products")).
		WithArgs("p-2").
		WillReturnRows(sqlmock.NewRows([]string{"title", "price", "is_active"}).
			AddRow("Carnet ligné", 9.99, true))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).
		WithArgs("p-2", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs("o-1", "p-2", "Carnet ligné", 1, 9.99, 9.99).
		WillReturnRows(sqlmock.NewRows([]string{"order_item_id"}).AddRow("oi-2"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items")).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	order, err := svc.PlaceOrder(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.OrderNumber, "VL-"))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	require.Len(t, order.Items, 2)

	// Lignes figées au prix stocké en base, total = quantité × prix unitaire.
	assert.Equal(t, 19.99, order.Items[0].UnitPrice)
	assert.Equal(t, 39.98, order.Items[0].TotalPrice)
	assert.Equal(t, 9.99, order.Items[1].UnitPrice)
	assert.Equal(t, 9.99, order.Items[1].TotalPrice)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	in := validInput()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "created_at"}).
			AddRow("o-1", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, price, is_active FROM products")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "price", "is_active"}).
			AddRow("Tasse émaillée", 19.99, true))
	// 0 ligne affectée : stock insuffisant, tout est annulé.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).
		WithArgs("p-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.PlaceOrder(context.Background(), in)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p-1", stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Requested)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderProductNotFoundRollsBack(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	in := validInput()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "created_at"}).
			AddRow("o-1", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, price, is_active FROM products")).
		WithArgs("p-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.PlaceOrder(context.Background(), in)

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "p-1", notFound.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderInactiveProductRollsBack(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	in := validInput()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "created_at"}).
			AddRow("o-1", time.Now()))
	// Produit désactivé : non achetable même soumis directement, sans
	// passer par le panier.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, price, is_active FROM products")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "price", "is_active"}).
			AddRow("Tasse émaillée", 19.99, false))
	mock.ExpectRollback()

	_, err := svc.PlaceOrder(context.Background(), in)

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "p-1", notFound.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderIdempotentReplay(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	in := validInput()
	in.IdempotencyKey = "idem-42"

	// La clé existe déjà : la commande précédente est renvoyée telle quelle,
	// sans nouvelle écriture.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT order_id FROM orders WHERE user_id")).
		WithArgs("u-1", "idem-42").
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow("o-9"))
	expectGetOrder(mock, "o-9", "u-1", "pending", "pending")

	order, err := svc.PlaceOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "o-9", order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderForbiddenForOtherUser(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	expectGetOrder(mock, "o-1", "u-owner", "pending", "pending")

	// La projection est lue mais jamais renvoyée à un autre client.
	_, err := svc.GetOrder(context.Background(), "o-1", "u-intrus", false)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetOrderOwnOrder(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	expectGetOrder(mock, "o-1", "u-owner", "pending", "pending")

	order, err := svc.GetOrder(context.Background(), "o-1", "u-owner", false)
	require.NoError(t, err)
	assert.Equal(t, "u-owner", order.UserID)
	require.NotNil(t, order.User)
	assert.Equal(t, "alice@example.com", order.User.Email)
	assert.Equal(t, "Paris", order.ShippingAddress.City)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	status := "archived"
	_, err := svc.UpdateStatus(context.Background(), "o-1", &status, nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	// aucune requête : l'état en base reste inchangé
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNoFields(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	_, err := svc.UpdateStatus(context.Background(), "o-1", nil, nil)
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsTerminalTransition(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders")).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("delivered"))

	status := models.OrderStatusShipped
	_, err := svc.UpdateStatus(context.Background(), "o-1", &status, nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusSuccess(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders")).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	status := models.OrderStatusConfirmed
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs("o-1", &status, (*string)(nil)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectGetOrder(mock, "o-1", "u-1", "confirmed", "pending")

	order, err := svc.UpdateStatus(context.Background(), "o-1", &status, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders")).
		WithArgs("o-404").
		WillReturnError(sql.ErrNoRows)

	status := models.OrderStatusConfirmed
	_, err := svc.UpdateStatus(context.Background(), "o-404", &status, nil)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestVerifyPaymentAccepted(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders")).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs("o-1", "paid", "processing", true, "virement reçu").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectGetOrder(mock, "o-1", "u-1", "processing", "paid")

	order, err := svc.VerifyPayment(context.Background(), "o-1", true, "virement reçu")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentRejected(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders")).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs("o-1", "failed", "pending", false, "référence illisible").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectGetOrder(mock, "o-1", "u-1", "pending", "failed")

	order, err := svc.VerifyPayment(context.Background(), "o-1", false, "référence illisible")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, order.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders")).
		WithArgs("o-404").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.VerifyPayment(context.Background(), "o-404", true, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestVerifyPaymentRejectsTerminalOrder(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	for _, terminal := range []string{models.OrderStatusDelivered, models.OrderStatusCancelled} {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM orders")).
			WithArgs("o-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(terminal))

		// Aucun UPDATE : la commande terminale reste intacte.
		_, err := svc.VerifyPayment(context.Background(), "o-1", true, "")
		assert.ErrorIs(t, err, ErrInvalidStatus, terminal)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsExcludesCancelledRevenue(t *testing.T) {
	svc, mock, db := newTestService(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, total_amount FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "total_amount"}).
			AddRow("pending", 10.00).
			AddRow("cancelled", 5.00).
			AddRow("delivered", 20.00))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, 30.00, stats.TotalRevenue)
	assert.Equal(t, 1, stats.ByStatus["cancelled"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateOrderNumberShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := generateOrderNumber()
		assert.Regexp(t, `^VL-\d+-[0-9a-f]{8}$`, n)
		seen[n] = true
	}
	// le suffixe aléatoire doit varier même dans la même milliseconde
	assert.Greater(t, len(seen), 1)
}

func TestInsufficientStockErrorMessageIdentifiesProduct(t *testing.T) {
	err := &InsufficientStockError{ProductID: "p-7", Title: "Théière", Requested: 3}
	assert.Contains(t, err.Error(), "p-7")
	assert.Contains(t, err.Error(), "Théière")
	assert.False(t, errors.Is(err, ErrEmptyCart))
}

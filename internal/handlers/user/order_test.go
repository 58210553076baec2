package user

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/models"
	"velora_back_end/internal/orders"
)

func newOrderRouter(t *testing.T, userID string) (*gin.Engine, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := orders.NewService(db, logger)

	r := gin.New()
	r.GET("/api/orders/:id", func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
	}, GetOrderByID(svc))
	return r, mock, db
}

func orderRow(orderID, ownerID string) *sqlmock.Rows {
	address, _ := json.Marshal(models.ShippingAddress{Street: "12 rue des Lilas", City: "Paris"})
	return sqlmock.NewRows([]string{
		"order_id", "user_id", "order_number", "total_amount", "shipping_address",
		"payment_method", "status", "payment_status", "customer_email",
		"payment_verified", "admin_notes", "payment_proof_key",
		"created_at", "updated_at", "name", "email",
	}).AddRow(orderID, ownerID, "VL-1700000000000-abcd1234", 39.98, address,
		"virement", models.OrderStatusPending, models.PaymentStatusPending, "alice@example.com",
		false, "", "", time.Now(), nil, "Alice Dupont", "alice@example.com")
}

func TestGetOrderByIDRequiresAuthentication(t *testing.T) {
	r, _, db := newOrderRouter(t, "")
	defer db.Close()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/o-1", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetOrderByIDForbiddenForOtherUser(t *testing.T) {
	r, mock, db := newOrderRouter(t, "u-2")
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders o")).
		WithArgs("o-1").
		WillReturnRows(orderRow("o-1", "u-1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/o-1", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByIDUnknownOrder(t *testing.T) {
	r, mock, db := newOrderRouter(t, "u-1")
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders o")).
		WithArgs("o-404").
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/o-404", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByIDOwnOrder(t *testing.T) {
	r, mock, db := newOrderRouter(t, "u-1")
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders o")).
		WithArgs("o-1").
		WillReturnRows(orderRow("o-1", "u-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items")).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"order_item_id", "order_id", "product_id", "product_title",
			"quantity", "unit_price", "total_price",
		}).AddRow("oi-1", "o-1", "p-1", "Clavier", 2, 19.99, 39.98))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/o-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, "VL-1700000000000-abcd1234", order.OrderNumber)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 19.99, order.Items[0].UnitPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

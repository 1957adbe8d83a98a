package repo_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"
	"webstore-orders/internal/domain"
	"webstore-orders/internal/repo"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rowColumns = []string{
	"id", "customer_id", "placed_at", "total", "status",
	"product_id", "quantity", "unit_price", "subtotal", "product_name", "product_image",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func beginTx(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *sql.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return tx
}

func TestCreateOrder_ReturnsGeneratedID(t *testing.T) {
	db, mock := setupMockDB(t)
	r := repo.NewOrderRepo(db)
	tx := beginTx(t, db, mock)

	order := &domain.Order{
		CustomerID: 7,
		PlacedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Total:      decimal.RequireFromString("59.94"),
		Status:     domain.OrderPending,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders (customer_id, placed_at, total, status)`)).
		WithArgs(int64(7), order.PlacedAt, "59.94", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	require.NoError(t, r.CreateOrder(context.Background(), tx, order))
	assert.Equal(t, int64(42), order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_NoIDReturned(t *testing.T) {
	db, mock := setupMockDB(t)
	r := repo.NewOrderRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := r.CreateOrder(context.Background(), tx, &domain.Order{CustomerID: 1})
	assert.ErrorIs(t, err, domain.ErrNoOrderID)
}

func TestCreateOrderLine(t *testing.T) {
	db, mock := setupMockDB(t)
	r := repo.NewOrderRepo(db)
	tx := beginTx(t, db, mock)

	line := &domain.OrderLine{
		OrderID:   42,
		ProductID: 3,
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("9.99"),
		Subtotal:  decimal.RequireFromString("19.98"),
	}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_lines (order_id, product_id, quantity, unit_price, subtotal)`)).
		WithArgs(int64(42), int64(3), int64(2), "9.99", "19.98").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, r.CreateOrderLine(context.Background(), tx, line))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderLine_WrapsError(t *testing.T) {
	db, mock := setupMockDB(t)
	r := repo.NewOrderRepo(db)
	tx := beginTx(t, db, mock)

	boom := errors.New("check constraint violated")
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_lines`)).WillReturnError(boom)

	err := r.CreateOrderLine(context.Background(), tx, &domain.OrderLine{OrderID: 1, ProductID: 9})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "product 9")
}

func TestFindById_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	r := repo.NewOrderRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "placed_at", "total", "status"}))

	order, err := r.FindById(context.Background(), 5)
	assert.NoError(t, err)
	assert.Nil(t, order)
}

func TestFindHistoryRows_ResolvesArchivedNames(t *testing.T) {
	db, mock := setupMockDB(t)
	r := repo.NewOrderRepo(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(rowColumns).
		AddRow(int64(2), int64(7), now, "10.00", "pending", int64(1), 1, "10.00", "10.00", "Mug", "mug.png").
		AddRow(int64(1), int64(7), now.Add(-time.Hour), "4.50", "pending", int64(9), 3, "1.50", "4.50", nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE o.customer_id = $1 ORDER BY o.placed_at DESC`)).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	got, err := r.FindHistoryRows(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Mug", got[0].ProductName)
	assert.True(t, decimal.RequireFromString("4.50").Equal(got[1].Subtotal))
	assert.Equal(t, "", got[1].ProductName)
	assert.Equal(t, domain.OrderPending, got[1].Status)
}

func TestFindAllRows_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	r := repo.NewOrderRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY o.id ASC, ol.id ASC`)).
		WillReturnError(errors.New("relation \"orders\" does not exist"))

	got, err := r.FindAllRows(context.Background())
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestFindAllRows_RowError(t *testing.T) {
	db, mock := setupMockDB(t)
	r := repo.NewOrderRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows(rowColumns).
		AddRow(int64(1), int64(7), now, "1.00", "pending", int64(1), 1, "1.00", "1.00", "A", "a.png").
		AddRow(int64(2), int64(8), now, "1.00", "pending", int64(1), 1, "1.00", "1.00", "A", "a.png").
		RowError(1, errors.New("connection reset"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders o`)).WillReturnRows(rows)

	got, err := r.FindAllRows(context.Background())
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestFindLines_CapturedPrices(t *testing.T) {
	db, mock := setupMockDB(t)
	r := repo.NewOrderRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_lines WHERE order_id = $1 ORDER BY id`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "unit_price", "subtotal"}).
			AddRow(int64(1), int64(42), int64(3), 2, "9.99", "19.98").
			AddRow(int64(2), int64(42), int64(4), 1, "15.99", "15.99"))

	lines, err := r.FindLines(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(3), lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("9.99").Equal(lines[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("19.98").Equal(lines[0].Subtotal))
	assert.Equal(t, int64(2), lines[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
	"webstore-orders/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubOrderRepo serves canned read rows; the write methods are unused here.
type stubOrderRepo struct {
	history map[int64][]domain.OrderRow
	all     []domain.OrderRow
	err     error
	calls   int

	// runs after the rows are read, before they are returned
	afterQuery func()
}

func (s *stubOrderRepo) CreateOrder(context.Context, *sql.Tx, *domain.Order) error { return nil }
func (s *stubOrderRepo) CreateOrderLine(context.Context, *sql.Tx, *domain.OrderLine) error {
	return nil
}
func (s *stubOrderRepo) FindById(context.Context, int64) (*domain.Order, error) { return nil, nil }
func (s *stubOrderRepo) FindLines(context.Context, int64) ([]domain.OrderLine, error) {
	return nil, nil
}

func (s *stubOrderRepo) FindHistoryRows(_ context.Context, customerID int64) ([]domain.OrderRow, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	rows := s.history[customerID]
	if s.afterQuery != nil {
		s.afterQuery()
	}
	return rows, nil
}

func (s *stubOrderRepo) FindAllRows(context.Context) ([]domain.OrderRow, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.all, nil
}

func row(orderID, customerID int64, placedAt time.Time, productID int64, qty int, price, name string) domain.OrderRow {
	p := decimal.RequireFromString(price)
	return domain.OrderRow{
		OrderID:      orderID,
		CustomerID:   customerID,
		PlacedAt:     placedAt,
		Total:        decimal.RequireFromString("100.00"),
		Status:       domain.OrderPending,
		ProductID:    productID,
		Quantity:     qty,
		UnitPrice:    p,
		Subtotal:     p.Mul(decimal.NewFromInt(int64(qty))),
		ProductName:  name,
		ProductImage: name + ".png",
	}
}

func TestGetOrderHistory_NewestFirst(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)
	stub := &stubOrderRepo{history: map[int64][]domain.OrderRow{
		7: {
			row(3, 7, t3, 10, 1, "1.00", "pen"),
			row(2, 7, t2, 11, 2, "2.00", "ink"),
			row(2, 7, t2, 12, 1, "3.00", "pad"),
			row(1, 7, t1, 10, 5, "1.00", "pen"),
		},
	}}
	reader := NewOrderReader(stub, nil, zap.NewNop())

	got, err := reader.GetOrderHistory(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, t3, got[0].PlacedAt)
	require.Len(t, got[1].Lines, 2)
	assert.Equal(t, "ink", got[1].Lines[0].Name)
	assert.Equal(t, "pad", got[1].Lines[1].Name)
	assert.True(t, decimal.RequireFromString("4.00").Equal(got[1].Lines[0].Subtotal))
}

func TestGetOrderHistory_EmptyIsNotNil(t *testing.T) {
	reader := NewOrderReader(&stubOrderRepo{}, nil, zap.NewNop())

	got, err := reader.GetOrderHistory(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetOrderHistory_IdempotentRead(t *testing.T) {
	now := time.Now().UTC()
	stub := &stubOrderRepo{history: map[int64][]domain.OrderRow{
		7: {row(1, 7, now, 10, 1, "1.00", "pen"), row(1, 7, now, 11, 1, "2.00", "ink")},
	}}
	reader := NewOrderReader(stub, nil, zap.NewNop())

	first, err := reader.GetOrderHistory(context.Background(), 7)
	require.NoError(t, err)
	second, err := reader.GetOrderHistory(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetOrderHistory_ReadFailureHasNoPartialResult(t *testing.T) {
	stub := &stubOrderRepo{err: errors.New("connection refused")}
	reader := NewOrderReader(stub, nil, zap.NewNop())

	got, err := reader.GetOrderHistory(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrReadOrders)
	assert.Nil(t, got)
}

func TestGetOrderHistory_RejectsAnonymous(t *testing.T) {
	stub := &stubOrderRepo{}
	reader := NewOrderReader(stub, nil, zap.NewNop())

	_, err := reader.GetOrderHistory(context.Background(), 0)
	assert.True(t, domain.IsValidationError(err))
	assert.Zero(t, stub.calls)
}

func TestGetOrderHistory_UsesCache(t *testing.T) {
	now := time.Now().UTC()
	stub := &stubOrderRepo{history: map[int64][]domain.OrderRow{7: {row(1, 7, now, 10, 1, "1.00", "pen")}}}
	cache := newRecordingCache()
	reader := NewOrderReader(stub, cache, zap.NewNop())

	first, err := reader.GetOrderHistory(context.Background(), 7)
	require.NoError(t, err)
	second, err := reader.GetOrderHistory(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, 2, cache.gets)
}

func TestGetOrderHistory_OrderCommittedDuringReadIsNotHidden(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	cache := newRecordingCache()
	stub := &stubOrderRepo{history: map[int64][]domain.OrderRow{7: {row(1, 7, t1, 10, 1, "1.00", "pen")}}}
	stub.afterQuery = func() {
		stub.afterQuery = nil
		stub.history[7] = []domain.OrderRow{
			row(2, 7, t2, 11, 1, "2.00", "ink"),
			row(1, 7, t1, 10, 1, "1.00", "pen"),
		}
		cache.Invalidate(context.Background(), 7)
	}
	reader := NewOrderReader(stub, cache, zap.NewNop())

	first, err := reader.GetOrderHistory(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := reader.GetOrderHistory(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, int64(2), second[0].ID)

	third, err := reader.GetOrderHistory(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, second, third)
	assert.Equal(t, 2, stub.calls)
}

func TestGetOrderHistory_BypassedCustomerAlwaysReadsStore(t *testing.T) {
	now := time.Now().UTC()
	cache := newRecordingCache()
	cache.bypass[7] = true
	stub := &stubOrderRepo{history: map[int64][]domain.OrderRow{7: {row(1, 7, now, 10, 1, "1.00", "pen")}}}
	reader := NewOrderReader(stub, cache, zap.NewNop())

	for i := 0; i < 2; i++ {
		got, err := reader.GetOrderHistory(context.Background(), 7)
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, 2, stub.calls)
	assert.Zero(t, cache.gets)
	assert.Zero(t, cache.sets)
}

func TestGetAllOrders_GroupsAcrossCustomers(t *testing.T) {
	now := time.Now().UTC()
	stub := &stubOrderRepo{all: []domain.OrderRow{
		row(1, 7, now, 10, 1, "1.00", "pen"),
		row(1, 7, now, 11, 3, "2.00", "ink"),
		row(2, 8, now, 10, 2, "1.00", "pen"),
	}}
	reader := NewOrderReader(stub, nil, zap.NewNop())

	got, err := reader.GetAllOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(7), got[0].CustomerID)
	assert.Equal(t, int64(8), got[1].CustomerID)
	require.Len(t, got[0].Products, 2)
	assert.Equal(t, domain.PurchasedProduct{
		ProductID: 11,
		Name:      "ink",
		Image:     "ink.png",
		Price:     decimal.RequireFromString("2.00"),
		Quantity:  3,
	}, got[0].Products[1])
}

func TestGetAllOrders_ReadFailure(t *testing.T) {
	reader := NewOrderReader(&stubOrderRepo{err: errors.New("timeout")}, nil, zap.NewNop())

	got, err := reader.GetAllOrders(context.Background())
	assert.ErrorIs(t, err, domain.ErrReadOrders)
	assert.Nil(t, got)
}

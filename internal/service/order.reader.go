package service

import (
	"context"
	"webstore-orders/internal/domain"
	"webstore-orders/internal/logger"
	"webstore-orders/internal/repo"

	"go.uber.org/zap"
)

type OrderReader interface {
	// GetOrderHistory returns a customer's orders, newest first, each with its lines.
	GetOrderHistory(ctx context.Context, customerID int64) ([]domain.OrderHistory, error)
	// GetAllOrders returns every order with the products purchased in it.
	GetAllOrders(ctx context.Context) ([]domain.AdminOrder, error)
}

// HistoryCache holds assembled order histories per customer, keyed by a
// generation that Invalidate advances.
type HistoryCache interface {
	// Generation returns the customer's current generation; ok is false when
	// the cache must not be used for this read.
	Generation(ctx context.Context, customerID int64) (gen int64, ok bool)
	Get(ctx context.Context, customerID, gen int64) ([]domain.OrderHistory, bool)
	Set(ctx context.Context, customerID, gen int64, orders []domain.OrderHistory)
	Invalidate(ctx context.Context, customerID int64)
}

type orderReader struct {
	orderRepo repo.OrderRepo
	cache     HistoryCache
	log       *zap.Logger
}

// NewOrderReader wires the read path. cache may be nil.
func NewOrderReader(orderRepo repo.OrderRepo, cache HistoryCache, log *zap.Logger) OrderReader {
	return &orderReader{orderRepo: orderRepo, cache: cache, log: log}
}

func (r *orderReader) GetOrderHistory(ctx context.Context, customerID int64) ([]domain.OrderHistory, error) {
	if customerID <= 0 {
		return nil, domain.NewValidationError("customer", "must be an authenticated customer id")
	}

	// The generation is read before the query: a commit landing in between
	// advances it, and the entry written below is then never read.
	var gen int64
	cacheable := false
	if r.cache != nil {
		gen, cacheable = r.cache.Generation(ctx, customerID)
	}
	if cacheable {
		if orders, ok := r.cache.Get(ctx, customerID, gen); ok {
			return orders, nil
		}
	}

	rows, err := r.orderRepo.FindHistoryRows(ctx, customerID)
	if err != nil {
		r.log.Error("fetch order history failed",
			zap.String("request_id", logger.RequestID(ctx)),
			zap.Int64("customer_id", customerID),
			zap.Error(err),
		)
		return nil, domain.ErrReadOrders
	}

	orders := toHistory(rows)
	if cacheable {
		r.cache.Set(ctx, customerID, gen, orders)
	}
	return orders, nil
}

func (r *orderReader) GetAllOrders(ctx context.Context) ([]domain.AdminOrder, error) {
	rows, err := r.orderRepo.FindAllRows(ctx)
	if err != nil {
		r.log.Error("fetch all orders failed",
			zap.String("request_id", logger.RequestID(ctx)),
			zap.Error(err),
		)
		return nil, domain.ErrReadOrders
	}
	return toAdminOrders(rows), nil
}

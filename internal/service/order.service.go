package service

import (
	"context"
	"database/sql"
	"errors"
	"time"
	"webstore-orders/internal/database"
	"webstore-orders/internal/domain"
	"webstore-orders/internal/logger"
	"webstore-orders/internal/repo"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderService interface {
	// PlaceOrder stores the order header, its lines and the stock decrements
	// in one transaction and returns the new order id.
	PlaceOrder(ctx context.Context, customerID int64, lines []domain.LineItem, total decimal.Decimal, status string) (int64, error)
}

type Options struct {
	GuardStock  bool
	VerifyTotal bool
}

type orderService struct {
	db          *sql.DB
	orderRepo   repo.OrderRepo
	productRepo repo.ProductRepo
	cache       HistoryCache
	opts        Options
	log         *zap.Logger
	now         func() time.Time
}

// NewOrderService wires the write path. cache may be nil.
func NewOrderService(
	db *sql.DB,
	orderRepo repo.OrderRepo,
	productRepo repo.ProductRepo,
	cache HistoryCache,
	opts Options,
	log *zap.Logger,
) OrderService {
	return &orderService{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cache:       cache,
		opts:        opts,
		log:         log,
		now:         time.Now,
	}
}

func (s *orderService) PlaceOrder(ctx context.Context, customerID int64, lines []domain.LineItem, total decimal.Decimal, status string) (int64, error) {
	orderStatus, err := validateOrder(customerID, lines, total, status, s.opts.VerifyTotal)
	if err != nil {
		return 0, err
	}

	order := &domain.Order{
		CustomerID: customerID,
		PlacedAt:   s.now().UTC().Truncate(time.Microsecond),
		Total:      total,
		Status:     orderStatus,
	}

	err = database.WithTx(ctx, s.db, s.log, func(tx *sql.Tx) error {
		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}

		for _, item := range lines {
			line := &domain.OrderLine{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Subtotal:  item.Subtotal(),
			}
			if err := s.orderRepo.CreateOrderLine(ctx, tx, line); err != nil {
				return err
			}
			if err := s.decrement(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("place order failed",
			zap.String("request_id", logger.RequestID(ctx)),
			zap.Int64("customer_id", customerID),
			zap.Int("lines", len(lines)),
			zap.Bool("unknown_product", errors.Is(err, domain.ErrUnknownProduct)),
			zap.Bool("insufficient_stock", errors.Is(err, domain.ErrInsufficientStock)),
			zap.Error(err),
		)
		return 0, domain.ErrPlaceOrder
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, customerID)
	}

	s.log.Info("order placed",
		zap.String("request_id", logger.RequestID(ctx)),
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", customerID),
		zap.Int("lines", len(lines)),
		zap.String("total", total.StringFixed(2)),
	)
	return order.ID, nil
}

func (s *orderService) decrement(ctx context.Context, tx *sql.Tx, item domain.LineItem) error {
	if s.opts.GuardStock {
		return s.productRepo.DecrementStockGuarded(ctx, tx, item.ProductID, item.Quantity)
	}
	return s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
}

func validateOrder(customerID int64, lines []domain.LineItem, total decimal.Decimal, status string, verifyTotal bool) (domain.OrderStatus, error) {
	if customerID <= 0 {
		return "", domain.NewValidationError("customer", "must be an authenticated customer id")
	}
	if len(lines) == 0 {
		return "", domain.NewValidationError("products", "at least one line item is required")
	}

	sum := decimal.Zero
	for _, item := range lines {
		if item.ProductID <= 0 {
			return "", domain.NewValidationError("product_id", "must be a positive id")
		}
		if item.Quantity <= 0 {
			return "", domain.NewValidationError("quantity", "must be a positive integer")
		}
		if item.UnitPrice.IsNegative() {
			return "", domain.NewValidationError("price", "must not be negative")
		}
		if !isCents(item.UnitPrice) {
			return "", domain.NewValidationError("price", "must have at most two decimal places")
		}
		sum = sum.Add(item.Subtotal())
	}

	if total.IsNegative() {
		return "", domain.NewValidationError("total", "must not be negative")
	}
	if !isCents(total) {
		return "", domain.NewValidationError("total", "must have at most two decimal places")
	}
	if verifyTotal && !sum.Equal(total) {
		return "", domain.NewValidationError("total", "does not match the sum of the line items ("+sum.StringFixed(2)+")")
	}

	if status == "" {
		return domain.OrderPending, nil
	}
	if len([]rune(status)) > domain.MaxStatusLength {
		return "", domain.NewValidationError("status", "is too long")
	}
	return domain.OrderStatus(status), nil
}

func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"webstore-orders/internal/domain"
)

type OrderRepo interface {
	// CreateOrder inserts the header and stores the generated id on order.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	CreateOrderLine(ctx context.Context, tx *sql.Tx, line *domain.OrderLine) error
	FindById(ctx context.Context, id int64) (*domain.Order, error)
	FindLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error)
	// FindHistoryRows returns one row per (order, line) of a customer, newest order first.
	FindHistoryRows(ctx context.Context, customerID int64) ([]domain.OrderRow, error)
	// FindAllRows returns one row per (order, line) across all customers.
	FindAllRows(ctx context.Context) ([]domain.OrderRow, error)
}

type orderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepo {
	return &orderRepo{db: db}
}

func (r *orderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	err := tx.QueryRowContext(ctx,
		"INSERT INTO orders (customer_id, placed_at, total, status) VALUES ($1, $2, $3, $4) RETURNING id",
		order.CustomerID, order.PlacedAt, order.Total, order.Status,
	).Scan(&order.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNoOrderID
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if order.ID == 0 {
		return domain.ErrNoOrderID
	}
	return nil
}

func (r *orderRepo) CreateOrderLine(ctx context.Context, tx *sql.Tx, line *domain.OrderLine) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO order_lines (order_id, product_id, quantity, unit_price, subtotal) VALUES ($1, $2, $3, $4, $5)",
		line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal,
	)
	if err != nil {
		return fmt.Errorf("insert order line for product %d: %w", line.ProductID, err)
	}
	return nil
}

func (r *orderRepo) FindById(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	err := r.db.QueryRowContext(ctx,
		"SELECT id, customer_id, placed_at, total, status FROM orders WHERE id = $1", id,
	).Scan(
		&order.ID,
		&order.CustomerID,
		&order.PlacedAt,
		&order.Total,
		&order.Status,
	)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, order_id, product_id, quantity, unit_price, subtotal FROM order_lines WHERE order_id = $1 ORDER BY id",
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

const orderRowsQuery = `
	SELECT
		o.id,
		o.customer_id,
		o.placed_at,
		o.total,
		o.status,
		ol.product_id,
		ol.quantity,
		ol.unit_price,
		ol.subtotal,
		COALESCE(p.name, dp.name) AS product_name,
		COALESCE(p.image, dp.image) AS product_image
	FROM orders o
	JOIN order_lines ol ON ol.order_id = o.id
	LEFT JOIN products p ON p.id = ol.product_id
	LEFT JOIN deleted_products dp ON dp.id = ol.product_id
`

func (r *orderRepo) FindHistoryRows(ctx context.Context, customerID int64) ([]domain.OrderRow, error) {
	return r.queryRows(ctx,
		orderRowsQuery+"WHERE o.customer_id = $1 ORDER BY o.placed_at DESC, o.id DESC, ol.id ASC",
		customerID,
	)
}

func (r *orderRepo) FindAllRows(ctx context.Context) ([]domain.OrderRow, error) {
	return r.queryRows(ctx, orderRowsQuery+"ORDER BY o.id ASC, ol.id ASC")
}

func (r *orderRepo) queryRows(ctx context.Context, query string, args ...any) ([]domain.OrderRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OrderRow
	for rows.Next() {
		var (
			row   domain.OrderRow
			name  sql.NullString
			image sql.NullString
		)
		if err := rows.Scan(
			&row.OrderID,
			&row.CustomerID,
			&row.PlacedAt,
			&row.Total,
			&row.Status,
			&row.ProductID,
			&row.Quantity,
			&row.UnitPrice,
			&row.Subtotal,
			&name,
			&image,
		); err != nil {
			return nil, err
		}
		row.ProductName = name.String
		row.ProductImage = image.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

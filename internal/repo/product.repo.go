package repo

import (
	"context"
	"database/sql"
	"fmt"
	"webstore-orders/internal/domain"
)

type ProductRepo interface {
	// DecrementStock subtracts quantity without looking at the current level.
	DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error
	// DecrementStockGuarded fails with ErrInsufficientStock instead of going below zero.
	DecrementStockGuarded(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error
	Create(ctx context.Context, tx *sql.Tx, product *domain.Product) error
	// Archive moves a product's display data to deleted_products and removes it from the catalog.
	Archive(ctx context.Context, tx *sql.Tx, productID int64) error
	FindById(ctx context.Context, id int64) (*domain.Product, error)
	FindDeletedById(ctx context.Context, id int64) (*domain.DeletedProduct, error)
}

type productRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepo {
	return &productRepo{db: db}
}

func (r *productRepo) DecrementStock(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	res, err := tx.ExecContext(ctx, "UPDATE products SET stock = stock - $1 WHERE id = $2", quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock of product %d: %w", productID, err)
	}
	return expectOne(res, productID, domain.ErrUnknownProduct)
}

func (r *productRepo) DecrementStockGuarded(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1", quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock of product %d: %w", productID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)", productID).Scan(&exists); err != nil {
		return fmt.Errorf("check product %d: %w", productID, err)
	}
	if !exists {
		return fmt.Errorf("product %d: %w", productID, domain.ErrUnknownProduct)
	}
	return fmt.Errorf("product %d: %w", productID, domain.ErrInsufficientStock)
}

func (r *productRepo) Create(ctx context.Context, tx *sql.Tx, p *domain.Product) error {
	err := tx.QueryRowContext(ctx,
		"INSERT INTO products (name, image, price, stock) VALUES ($1, $2, $3, $4) RETURNING id",
		p.Name, p.Image, p.Price, p.Stock,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepo) Archive(ctx context.Context, tx *sql.Tx, productID int64) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO deleted_products (id, name, image, deleted_at)
		SELECT id, name, image, now() FROM products WHERE id = $1`,
		productID,
	)
	if err != nil {
		return fmt.Errorf("archive product %d: %w", productID, err)
	}
	if err := expectOne(res, productID, domain.ErrUnknownProduct); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = $1", productID); err != nil {
		return fmt.Errorf("delete product %d: %w", productID, err)
	}
	return nil
}

func (r *productRepo) FindById(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, image, price, stock FROM products WHERE id = $1", id,
	).Scan(&p.ID, &p.Name, &p.Image, &p.Price, &p.Stock)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindDeletedById(ctx context.Context, id int64) (*domain.DeletedProduct, error) {
	var p domain.DeletedProduct
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, image, deleted_at FROM deleted_products WHERE id = $1", id,
	).Scan(&p.ID, &p.Name, &p.Image, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func expectOne(res sql.Result, productID int64, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", productID, notFound)
	}
	return nil
}

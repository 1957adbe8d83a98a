package service

import (
	"context"
	"database/sql"
	"webstore-orders/internal/database"
	"webstore-orders/internal/domain"
	"webstore-orders/internal/repo"

	"go.uber.org/zap"
)

// CatalogService covers the catalog writes the order flow depends on.
type CatalogService interface {
	AddProduct(ctx context.Context, product *domain.Product) error
	// ArchiveProduct removes a product from the live catalog while keeping
	// its name and image resolvable for past orders.
	ArchiveProduct(ctx context.Context, productID int64) error
}

type catalogService struct {
	db          *sql.DB
	productRepo repo.ProductRepo
	log         *zap.Logger
}

func NewCatalogService(db *sql.DB, productRepo repo.ProductRepo, log *zap.Logger) CatalogService {
	return &catalogService{db: db, productRepo: productRepo, log: log}
}

func (s *catalogService) AddProduct(ctx context.Context, product *domain.Product) error {
	if product.Name == "" {
		return domain.NewValidationError("name", "is required")
	}
	if product.Price.IsNegative() {
		return domain.NewValidationError("price", "must not be negative")
	}
	return database.WithTx(ctx, s.db, s.log, func(tx *sql.Tx) error {
		return s.productRepo.Create(ctx, tx, product)
	})
}

func (s *catalogService) ArchiveProduct(ctx context.Context, productID int64) error {
	err := database.WithTx(ctx, s.db, s.log, func(tx *sql.Tx) error {
		return s.productRepo.Archive(ctx, tx, productID)
	})
	if err != nil {
		return err
	}
	s.log.Info("product archived", zap.Int64("product_id", productID))
	return nil
}

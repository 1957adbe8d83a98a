package main

import (
	"context"
	"fmt"
	"log"
	"webstore-orders/internal/config"
	"webstore-orders/internal/database"
	"webstore-orders/internal/domain"
	"webstore-orders/internal/logger"
	"webstore-orders/internal/repo"
	"webstore-orders/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	customers         = 5
	ordersPerCustomer = 4
	initialStock      = 10
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	db, err := database.New(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(ctx, db.DB()); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}

	orderRepo := repo.NewOrderRepo(db.DB())
	productRepo := repo.NewProductRepo(db.DB())
	catalog := service.NewCatalogService(db.DB(), productRepo, zlog)
	orders := service.NewOrderService(db.DB(), orderRepo, productRepo, nil, service.Options{
		GuardStock:  cfg.Orders.GuardStock,
		VerifyTotal: cfg.Orders.VerifyTotal,
	}, zlog)
	reader := service.NewOrderReader(orderRepo, nil, zlog)

	product := &domain.Product{
		Name:  "Simulation Mug",
		Image: "mug.png",
		Price: decimal.RequireFromString("7.50"),
		Stock: initialStock,
	}
	if err := catalog.AddProduct(ctx, product); err != nil {
		zlog.Fatal("failed to seed product", zap.Error(err))
	}
	fmt.Printf("seeded product %d with stock %d\n", product.ID, product.Stock)

	fmt.Printf("--- PLACING %d ORDERS CONCURRENTLY ---\n", customers*ordersPerCustomer)
	g, gctx := errgroup.WithContext(ctx)
	for c := int64(1); c <= customers; c++ {
		customerID := c
		g.Go(func() error {
			for i := 0; i < ordersPerCustomer; i++ {
				lines := []domain.LineItem{{ProductID: product.ID, Quantity: 1, UnitPrice: product.Price}}
				id, err := orders.PlaceOrder(gctx, customerID, lines, product.Price, "")
				if err != nil {
					// Refusals are part of the run when stock is guarded.
					fmt.Printf("customer %d: order refused: %v\n", customerID, err)
					continue
				}
				fmt.Printf("customer %d: placed order %d\n", customerID, id)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		zlog.Fatal("simulation aborted", zap.Error(err))
	}

	fresh, err := productRepo.FindById(ctx, product.ID)
	if err != nil || fresh == nil {
		zlog.Fatal("failed to reload product", zap.Error(err))
	}
	fmt.Printf("    -> stock after orders: %d (started at %d)\n", fresh.Stock, initialStock)

	printHistory(ctx, reader, 1)

	if err := catalog.ArchiveProduct(ctx, product.ID); err != nil {
		zlog.Fatal("failed to archive product", zap.Error(err))
	}
	fmt.Println("--- PRODUCT ARCHIVED ---")
	printHistory(ctx, reader, 1)

	all, err := reader.GetAllOrders(ctx)
	if err != nil {
		zlog.Fatal("failed to list orders", zap.Error(err))
	}
	fmt.Printf("admin view: %d orders in total\n", len(all))
}

func printHistory(ctx context.Context, reader service.OrderReader, customerID int64) {
	history, err := reader.GetOrderHistory(ctx, customerID)
	if err != nil {
		fmt.Printf("history for customer %d: %v\n", customerID, err)
		return
	}
	fmt.Printf("history for customer %d:\n", customerID)
	for _, o := range history {
		for _, l := range o.Lines {
			fmt.Printf("    order %d  %s  %dx %q (%s) = %s\n",
				o.ID, o.PlacedAt.Format("15:04:05.000000"), l.Quantity, l.Name, l.Image, l.Subtotal)
		}
	}
	fmt.Println("---------------------------------------------------")
}

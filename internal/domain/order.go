package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending OrderStatus = "pending"

	MaxStatusLength = 50
)

type Order struct {
	ID         int64
	CustomerID int64
	PlacedAt   time.Time
	Total      decimal.Decimal
	Status     OrderStatus
}

// LineItem is one requested product entry of an order.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type OrderLine struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// OrderRow is one flattened (order, line) pair as returned by the read queries.
// ProductName and ProductImage are already resolved against the archive.
type OrderRow struct {
	OrderID      int64
	CustomerID   int64
	PlacedAt     time.Time
	Total        decimal.Decimal
	Status       OrderStatus
	ProductID    int64
	Quantity     int
	UnitPrice    decimal.Decimal
	Subtotal     decimal.Decimal
	ProductName  string
	ProductImage string
}

type OrderHistory struct {
	ID       int64           `json:"order_id"`
	PlacedAt time.Time       `json:"placed_at"`
	Total    decimal.Decimal `json:"total"`
	Status   OrderStatus     `json:"status"`
	Lines    []HistoryLine   `json:"lines"`
}

type HistoryLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Name      string          `json:"product_name"`
	Image     string          `json:"image"`
}

type AdminOrder struct {
	ID         int64              `json:"order_id"`
	CustomerID int64              `json:"customer_id"`
	PlacedAt   time.Time          `json:"placed_at"`
	Total      decimal.Decimal    `json:"total"`
	Status     OrderStatus        `json:"status"`
	Products   []PurchasedProduct `json:"products"`
}

type PurchasedProduct struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Normalize puts money at cent scale and timestamps in UTC, so a history
// decoded from a cache compares equal to one read from the store.
func (o OrderHistory) Normalize() OrderHistory {
	o.PlacedAt = o.PlacedAt.UTC()
	o.Total = o.Total.Round(2)
	lines := make([]HistoryLine, len(o.Lines))
	for i, l := range o.Lines {
		l.UnitPrice = l.UnitPrice.Round(2)
		l.Subtotal = l.Subtotal.Round(2)
		lines[i] = l
	}
	o.Lines = lines
	return o
}

func (o AdminOrder) Normalize() AdminOrder {
	o.PlacedAt = o.PlacedAt.UTC()
	o.Total = o.Total.Round(2)
	products := make([]PurchasedProduct, len(o.Products))
	for i, p := range o.Products {
		p.Price = p.Price.Round(2)
		products[i] = p
	}
	o.Products = products
	return o
}

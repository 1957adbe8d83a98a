package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID    int64
	Name  string
	Image string
	Price decimal.Decimal
	Stock int
}

// DeletedProduct keeps the display data of a product removed from the catalog.
type DeletedProduct struct {
	ID        int64
	Name      string
	Image     string
	DeletedAt time.Time
}

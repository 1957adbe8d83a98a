package service

import "webstore-orders/internal/domain"

// groupRows folds flattened (order, line) rows into one view per order.
// Orders keep the position of their first row; lines keep row order.
func groupRows[V any](rows []domain.OrderRow, newView func(domain.OrderRow) V, addLine func(*V, domain.OrderRow)) []V {
	views := make([]V, 0)
	index := make(map[int64]int)
	for _, row := range rows {
		i, ok := index[row.OrderID]
		if !ok {
			i = len(views)
			index[row.OrderID] = i
			views = append(views, newView(row))
		}
		addLine(&views[i], row)
	}
	return views
}

func toHistory(rows []domain.OrderRow) []domain.OrderHistory {
	orders := groupRows(rows,
		func(r domain.OrderRow) domain.OrderHistory {
			return domain.OrderHistory{
				ID:       r.OrderID,
				PlacedAt: r.PlacedAt,
				Total:    r.Total,
				Status:   r.Status,
				Lines:    []domain.HistoryLine{},
			}
		},
		func(o *domain.OrderHistory, r domain.OrderRow) {
			o.Lines = append(o.Lines, domain.HistoryLine{
				ProductID: r.ProductID,
				Quantity:  r.Quantity,
				UnitPrice: r.UnitPrice,
				Subtotal:  r.Subtotal,
				Name:      r.ProductName,
				Image:     r.ProductImage,
			})
		},
	)
	for i := range orders {
		orders[i] = orders[i].Normalize()
	}
	return orders
}

func toAdminOrders(rows []domain.OrderRow) []domain.AdminOrder {
	orders := groupRows(rows,
		func(r domain.OrderRow) domain.AdminOrder {
			return domain.AdminOrder{
				ID:         r.OrderID,
				CustomerID: r.CustomerID,
				PlacedAt:   r.PlacedAt,
				Total:      r.Total,
				Status:     r.Status,
				Products:   []domain.PurchasedProduct{},
			}
		},
		func(o *domain.AdminOrder, r domain.OrderRow) {
			o.Products = append(o.Products, domain.PurchasedProduct{
				ProductID: r.ProductID,
				Name:      r.ProductName,
				Image:     r.ProductImage,
				Price:     r.UnitPrice,
				Quantity:  r.Quantity,
			})
		},
	)
	for i := range orders {
		orders[i] = orders[i].Normalize()
	}
	return orders
}

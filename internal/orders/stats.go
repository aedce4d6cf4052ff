package orders

import (
	"bookcourier/internal/domain"

	"github.com/shopspring/decimal"
)

// Summary aggregates an order list for the dashboard cards.
type Summary struct {
	Total     int
	Pending   int
	Shipped   int
	Delivered int
	Cancelled int
	Paid      int
	Revenue   decimal.Decimal // sum of paid order prices
}

// Stats counts orders by status and sums the revenue of paid ones.
func Stats(orders []domain.Order) Summary {
	s := Summary{Total: len(orders), Revenue: decimal.Zero}
	for _, o := range orders {
		switch o.OrderStatus {
		case domain.OrderPending:
			s.Pending++
		case domain.OrderShipped:
			s.Shipped++
		case domain.OrderDelivered:
			s.Delivered++
		case domain.OrderCancelled:
			s.Cancelled++
		}
		if o.PaymentStatus == domain.PaymentPaid {
			s.Paid++
			s.Revenue = s.Revenue.Add(o.Price)
		}
	}
	return s
}

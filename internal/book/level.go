// Package book implements the per-symbol order book: a FIFO price level
// (C1) and the two sorted price ladders plus order index and depth cache
// that sit on top of it (C2). It never matches orders itself — that is
// the matcher's job — it only maintains price-time priority structure.
package book

import "clob/internal/domain"

// PriceLevel is an ordered queue of resting orders at one price, plus the
// aggregate remaining quantity across all of them. Insertion order is
// preserved exactly; cancellation may splice out of the middle.
type PriceLevel struct {
	Price         domain.Price
	orders        []domain.OrderId
	totalQuantity domain.Quantity
}

func newPriceLevel(price domain.Price) *PriceLevel {
	return &PriceLevel{Price: price}
}

// AddOrder appends id to the tail of the FIFO and adds qty to the total.
func (l *PriceLevel) AddOrder(id domain.OrderId, qty domain.Quantity) {
	l.orders = append(l.orders, id)
	l.totalQuantity += qty
}

// RemoveOrder splices id out of the FIFO wherever it sits and subtracts
// qty from the total. A missing id is a caller bug; it is a silent no-op
// here (the order book logs it — see OrderBook.RemoveOrder).
func (l *PriceLevel) RemoveOrder(id domain.OrderId, qty domain.Quantity) bool {
	for i, oid := range l.orders {
		if oid == id {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			l.totalQuantity -= qty
			return true
		}
	}
	return false
}

// FrontOrder peeks the FIFO head without removing it.
func (l *PriceLevel) FrontOrder() (domain.OrderId, bool) {
	if len(l.orders) == 0 {
		return 0, false
	}
	return l.orders[0], true
}

// IsEmpty reports whether the level holds no orders.
func (l *PriceLevel) IsEmpty() bool { return len(l.orders) == 0 }

// TotalQuantity returns the aggregate remaining quantity resting at this
// price.
func (l *PriceLevel) TotalQuantity() domain.Quantity { return l.totalQuantity }

// Orders returns the FIFO in insertion order. Callers must not mutate the
// returned slice.
func (l *PriceLevel) Orders() []domain.OrderId { return l.orders }

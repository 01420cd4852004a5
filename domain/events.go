package domain

const EventTypeOrderPlaced = "OrderPlaced"

// OrderPlacedEvent is the outbox payload published once an order commits.
type OrderPlacedEvent struct {
	Order
}

func NewOrderPlacedEvent(order *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{Order: *order}
}

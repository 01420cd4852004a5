package repository

import (
	"encoding/json"
	"time"

	"github.com/fjod/easycart/domain"
	"github.com/shopspring/decimal"
)

type CheckoutSession struct {
	ID             string
	UserID         string
	IdempotencyKey string
	CartSnapshot   *domain.CartSnapshot
	Status         domain.CheckoutStatus
	ChargeID       string
	OrderID        string
	FailureReason  string
	TotalAmount    decimal.Decimal
	Currency       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

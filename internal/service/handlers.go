package service

import (
	"time"

	"github.com/fjod/easycart/internal/payment"
)

type PaymentHandler struct {
	processor payment.Processor
	timeout   time.Duration
}

func NewPaymentHandler(processor payment.Processor, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		processor: processor,
		timeout:   timeout,
	}
}

package domain

type CheckoutStatus string

const (
	CheckoutStatusInitiated        CheckoutStatus = "INITIATED"
	CheckoutStatusPaymentPending   CheckoutStatus = "PAYMENT_PENDING"
	CheckoutStatusPaymentCompleted CheckoutStatus = "PAYMENT_COMPLETED"
	CheckoutStatusCompleted        CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed           CheckoutStatus = "FAILED"
	CheckoutStatusRefunded         CheckoutStatus = "REFUNDED"
	CheckoutStatusRefundFailed     CheckoutStatus = "REFUND_FAILED"
)

var transitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusInitiated:        {CheckoutStatusPaymentPending, CheckoutStatusFailed},
	CheckoutStatusPaymentPending:   {CheckoutStatusPaymentCompleted, CheckoutStatusFailed, CheckoutStatusRefundFailed},
	CheckoutStatusPaymentCompleted: {CheckoutStatusCompleted, CheckoutStatusRefunded, CheckoutStatusRefundFailed},
}

// CanTransitionTo reports whether a session in status from may move to status to.
func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s CheckoutStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

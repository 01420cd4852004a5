package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to CheckoutStatus
		want     bool
	}{
		{CheckoutStatusInitiated, CheckoutStatusPaymentPending, true},
		{CheckoutStatusInitiated, CheckoutStatusFailed, true},
		{CheckoutStatusInitiated, CheckoutStatusCompleted, false},
		{CheckoutStatusPaymentPending, CheckoutStatusPaymentCompleted, true},
		{CheckoutStatusPaymentPending, CheckoutStatusRefundFailed, true},
		{CheckoutStatusPaymentPending, CheckoutStatusRefunded, false},
		{CheckoutStatusPaymentCompleted, CheckoutStatusCompleted, true},
		{CheckoutStatusPaymentCompleted, CheckoutStatusRefunded, true},
		{CheckoutStatusPaymentCompleted, CheckoutStatusRefundFailed, true},
		{CheckoutStatusPaymentCompleted, CheckoutStatusFailed, false},
		{CheckoutStatusCompleted, CheckoutStatusRefunded, false},
		{CheckoutStatusFailed, CheckoutStatusInitiated, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionTo(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []CheckoutStatus{CheckoutStatusCompleted, CheckoutStatusFailed, CheckoutStatusRefunded, CheckoutStatusRefundFailed} {
		assert.True(t, s.IsTerminal(), s)
	}
	for _, s := range []CheckoutStatus{CheckoutStatusInitiated, CheckoutStatusPaymentPending, CheckoutStatusPaymentCompleted} {
		assert.False(t, s.IsTerminal(), s)
	}
}

func TestParseSize(t *testing.T) {
	for _, raw := range []string{"medium", "MEDIUM", "Medium", " medium "} {
		size, err := ParseSize(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, SizeMedium, size)
	}

	_, err := ParseSize("XL")
	assert.ErrorIs(t, err, ErrUnknownSize)
	assert.False(t, Size("XL").Valid())
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(4500), ToMinorUnits(decimal.RequireFromString("45.00")))
	assert.Equal(t, int64(1999), ToMinorUnits(decimal.RequireFromString("19.99")))
	assert.True(t, FromMinorUnits(4500).Equal(decimal.NewFromInt(45)))
}

func TestCartTotal(t *testing.T) {
	cart := &Cart{
		UserID: "u1",
		Items: []CartItem{
			{ProductID: "p1", Size: SizeLarge, Quantity: 2, UnitPrice: decimal.RequireFromString("15.00")},
			{ProductID: "p2", Size: SizeSmall, Quantity: 1, UnitPrice: decimal.RequireFromString("15.00")},
		},
	}
	assert.True(t, cart.Total().Equal(decimal.NewFromInt(45)))
	assert.Equal(t, "p1_Large", cart.Items[0].Key())

	var empty *Cart
	assert.True(t, empty.IsEmpty())
	assert.True(t, empty.Total().IsZero())
}

func TestStockOf(t *testing.T) {
	stock := Stock{Small: 1, Medium: 2, Large: 3}
	assert.Equal(t, 2, stock.Of(SizeMedium))
	assert.Equal(t, 0, stock.Of(Size("XL")))
	assert.False(t, Stock{Small: -1}.Valid())
}

func TestProductPatchApply(t *testing.T) {
	name := "Linen shirt"
	p := Product{ID: "p1", Name: "Shirt", Price: decimal.NewFromInt(10)}

	got := ProductPatch{Name: &name}.Apply(p)

	assert.Equal(t, "Linen shirt", got.Name)
	assert.True(t, got.Price.Equal(p.Price))
	assert.Equal(t, "Shirt", p.Name)
}

func TestOrderJSONMoneyIsString(t *testing.T) {
	order := &Order{ID: "o1", TotalAmount: decimal.RequireFromString("45.00"), Currency: Currency}

	raw, err := json.Marshal(order)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "45", decoded["total_amount"])
}

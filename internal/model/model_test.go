package model_test

import (
	"testing"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to model.OrderStatus
		want     bool
	}{
		{model.OrderStatusAwaitingProof, model.OrderStatusPendingVerification, true},
		{model.OrderStatusAwaitingProof, model.OrderStatusCancelled, true},
		{model.OrderStatusAwaitingProof, model.OrderStatusPaid, false},
		{model.OrderStatusPendingVerification, model.OrderStatusPaid, true},
		{model.OrderStatusPendingVerification, model.OrderStatusRejected, true},
		{model.OrderStatusPaid, model.OrderStatusFulfilled, true},
		{model.OrderStatusPaid, model.OrderStatusCancelled, true},
		{model.OrderStatusPaid, model.OrderStatusRejected, false},
		{model.OrderStatusFulfilled, model.OrderStatusCancelled, false},
		{model.OrderStatusCancelled, model.OrderStatusPaid, false},
		{model.OrderStatusRejected, model.OrderStatusPendingVerification, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_AcceptsProof(t *testing.T) {
	assert.True(t, model.OrderStatusAwaitingProof.AcceptsProof())
	assert.True(t, model.OrderStatusPendingVerification.AcceptsProof())
	assert.False(t, model.OrderStatusPaid.AcceptsProof())
	assert.False(t, model.OrderStatus("shipped").Valid())
}

func TestAmounts(t *testing.T) {
	d := decimal.RequireFromString

	t.Run("normalized sorts and dedupes", func(t *testing.T) {
		got := model.Amounts{d("50"), d("10"), d("25"), d("10.00")}.Normalized()
		require.Len(t, got, 3)
		assert.Equal(t, "10", got[0].String())
		assert.Equal(t, "25", got[1].String())
		assert.Equal(t, "50", got[2].String())
	})

	t.Run("scan round trip", func(t *testing.T) {
		v, err := model.Amounts{d("5"), d("7.5")}.Value()
		require.NoError(t, err)

		var back model.Amounts
		require.NoError(t, back.Scan(v))
		require.Len(t, back, 2)
		assert.True(t, back[1].Equal(d("7.5")))
	})

	t.Run("nil is an empty array", func(t *testing.T) {
		v, err := model.Amounts(nil).Value()
		require.NoError(t, err)
		assert.Equal(t, "[]", v)

		var back model.Amounts
		require.NoError(t, back.Scan(nil))
		assert.Empty(t, back)
		assert.Error(t, back.Scan(42))
	})
}

func TestProduct_FindVariant(t *testing.T) {
	p := &model.Product{
		Currency:       "USD",
		Denominations:  []model.Denomination{{ID: "d1", Value: decimal.NewFromInt(50), Price: decimal.RequireFromString("47.50")}},
		Editions:       []model.Edition{{ID: "e1", Name: "Deluxe", Price: decimal.NewFromInt(70)}},
		StreamingPlans: []model.StreamingPlan{{ID: "s1", Name: "Annual", Price: decimal.NewFromInt(99)}},
	}

	v, ok := p.FindVariant("d1")
	require.True(t, ok)
	assert.Equal(t, "50.00 USD", v.Label)
	assert.True(t, v.Price.Equal(decimal.RequireFromString("47.5")))

	v, ok = p.FindVariant("s1")
	require.True(t, ok)
	assert.Equal(t, "Annual", v.Label)

	_, ok = p.FindVariant("missing")
	assert.False(t, ok)
}

package service

import (
	"context"
	"testing"

	"github.com/gamexpress/storefront/internal/app/model"
	apperrors "github.com/gamexpress/storefront/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutService_RequiresLogin(t *testing.T) {
	f := setupStorefrontTest(t)
	ctx := context.Background()
	require.NoError(t, f.sf.Start(ctx))

	_, err := f.sf.Checkout.Summary(ctx)
	require.Error(t, err)
	assert.Equal(t, apperrors.AuthUnauthorized, apperrors.Code(err))
	assert.Equal(t, "Please log in to view your cart.", apperrors.Message(err, ""))
}

func TestCheckoutService_Summary(t *testing.T) {
	f := setupStorefrontTest(t)
	ctx := context.Background()
	f.srv.SetUserCart(f.user.ID, map[uint]int{7: 2, 8: 1})
	require.NoError(t, f.sf.Start(ctx))
	_, err := f.sf.Auth.Login(ctx, apiCredentials())
	require.NoError(t, err)

	summary, err := f.sf.Checkout.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.ItemCount)
	assert.Equal(t, "312.48", summary.Subtotal.StringFixed(2))
	assert.True(t, summary.Shipping.IsZero())
	assert.True(t, summary.Tax.IsZero())
	assert.True(t, summary.Total.Equal(summary.Subtotal))
	assert.Equal(t, "312,48 €", summary.TotalText)
	assert.Equal(t, "0,00 €", summary.ShippingText)

	require.Len(t, summary.Lines, 2)
	lines := map[uint]CheckoutLine{}
	for _, l := range summary.Lines {
		lines[l.ProductID] = l
	}
	assert.Equal(t, "https://cdn.example.com/storage/products/console.png", lines[7].Image)
	assert.Equal(t, "299,98 €", lines[7].LineTotalText)
	assert.Equal(t, model.PlaceholderImage, lines[8].Image)
	assert.Equal(t, "12,50 €", lines[8].UnitPriceText)
}

func TestFormatEUR(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "0,00 €"},
		{"12.5", "12,50 €"},
		{"149.99", "149,99 €"},
		{"3.005", "3,01 €"},
		{"999.999", "1 000,00 €"},
		{"1234567.891", "1 234 567,89 €"},
		{"98765432109876543.21", "98 765 432 109 876 543,21 €"},
		{"-45.5", "-45,50 €"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEUR(decimal.RequireFromString(tt.amount)))
		})
	}
}

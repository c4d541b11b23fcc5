package service

import (
	"context"
	"strings"

	"github.com/gamexpress/storefront/internal/app/model"
	apperrors "github.com/gamexpress/storefront/internal/errors"
	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const msgCheckoutLogin = "Please log in to view your cart."

// CheckoutLine is one priced line of the order summary.
type CheckoutLine struct {
	ProductID     uint            `json:"product_id" yaml:"product_id"`
	Name          string          `json:"name" yaml:"name"`
	Quantity      int             `json:"quantity" yaml:"quantity"`
	Image         string          `json:"image" yaml:"image"`
	UnitPrice     decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	LineTotal     decimal.Decimal `json:"line_total" yaml:"line_total"`
	UnitPriceText string          `json:"unit_price_text" yaml:"unit_price_text"`
	LineTotalText string          `json:"line_total_text" yaml:"line_total_text"`
}

type CheckoutSummary struct {
	Lines        []CheckoutLine  `json:"lines" yaml:"lines"`
	ItemCount    int             `json:"item_count" yaml:"item_count"`
	Subtotal     decimal.Decimal `json:"subtotal" yaml:"subtotal"`
	Shipping     decimal.Decimal `json:"shipping" yaml:"shipping"`
	Tax          decimal.Decimal `json:"tax" yaml:"tax"`
	Total        decimal.Decimal `json:"total" yaml:"total"`
	SubtotalText string          `json:"subtotal_text" yaml:"subtotal_text"`
	ShippingText string          `json:"shipping_text" yaml:"shipping_text"`
	TaxText      string          `json:"tax_text" yaml:"tax_text"`
	TotalText    string          `json:"total_text" yaml:"total_text"`
}

type CheckoutService interface {
	Summary(ctx context.Context) (*CheckoutSummary, error)
}

type checkoutService struct {
	auth        AuthState
	cart        CartService
	storageBase string
	log         *logger.Logger
}

func NewCheckoutService(auth AuthState, cart CartService, storageBase string, log *logger.Logger) CheckoutService {
	if log == nil {
		log = logger.Get()
	}
	return &checkoutService{
		auth:        auth,
		cart:        cart,
		storageBase: storageBase,
		log:         log,
	}
}

// Summary refetches the user's cart and prices it. Shipping and tax are free.
func (s *checkoutService) Summary(ctx context.Context) (*CheckoutSummary, error) {
	if !s.auth.IsAuthenticated() {
		s.log.Warn("Checkout requested without a session")
		return nil, apperrors.New(apperrors.AuthUnauthorized, msgCheckoutLogin)
	}

	if err := s.cart.FetchCart(ctx); err != nil {
		return nil, err
	}
	snap := s.cart.Snapshot()

	summary := &CheckoutSummary{
		Lines:    []CheckoutLine{},
		Subtotal: decimal.Zero,
		Shipping: decimal.Zero,
		Tax:      decimal.Zero,
	}
	for _, item := range snap.Cart.Items {
		if item.Product == nil {
			continue
		}
		line := CheckoutLine{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			Image:     model.ResolveImageURL(s.storageBase, item.Product.PrimaryImage()),
			UnitPrice: item.Product.Price,
			LineTotal: item.LineTotal(),
		}
		line.UnitPriceText = FormatEUR(line.UnitPrice)
		line.LineTotalText = FormatEUR(line.LineTotal)

		summary.Lines = append(summary.Lines, line)
		summary.ItemCount += item.Quantity
		summary.Subtotal = summary.Subtotal.Add(line.LineTotal)
	}

	summary.Total = summary.Subtotal.Add(summary.Shipping).Add(summary.Tax)
	summary.SubtotalText = FormatEUR(summary.Subtotal)
	summary.ShippingText = FormatEUR(summary.Shipping)
	summary.TaxText = FormatEUR(summary.Tax)
	summary.TotalText = FormatEUR(summary.Total)

	s.log.Debug("Checkout summary computed", logger.Fields{
		"lines": len(summary.Lines),
		"total": summary.Total.StringFixed(2),
	})
	return summary, nil
}

// FormatEUR renders an amount the way the storefront shows prices, e.g.
// "1 234,50 €" with French separators. Formatting works on the decimal
// digits so large amounts stay exact.
func FormatEUR(amount decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(currency.EUR)
	fixed := amount.StringFixed(int32(scale))

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(digit)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	b.WriteString(" €")
	return b.String()
}

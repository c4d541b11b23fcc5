package model

import "github.com/shopspring/decimal"

// CartItem is one line of a cart as the server returns it. ID is zero for
// lines that were never persisted.
type CartItem struct {
	ID        uint     `json:"id" yaml:"id"`
	ProductID uint     `json:"product_id" yaml:"product_id"`
	Quantity  int      `json:"quantity" yaml:"quantity"`
	Product   *Product `json:"product,omitempty" yaml:"product,omitempty"`
}

// LineTotal is price x quantity, zero when the product is not resolvable.
func (i CartItem) LineTotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the projection of the last successful server fetch.
type Cart struct {
	Items          []CartItem      `json:"items" yaml:"items"`
	TotalItemCount int             `json:"total_item_count" yaml:"total_item_count"`
	TotalValue     decimal.Decimal `json:"total_value" yaml:"total_value"`
}

// NewCart builds the projection and its totals from server items.
func NewCart(items []CartItem) Cart {
	cart := Cart{Items: make([]CartItem, len(items)), TotalValue: decimal.Zero}
	copy(cart.Items, items)
	for _, item := range items {
		cart.TotalItemCount += item.Quantity
		cart.TotalValue = cart.TotalValue.Add(item.LineTotal())
	}
	return cart
}

// Find returns the item with the given id.
func (c Cart) Find(itemID uint) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return CartItem{}, false
}

// Clone copies the item slice so callers can not alias engine state.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

package service

import (
	"strings"

	"github.com/gamexpress/storefront/internal/app/model"
	"golang.org/x/text/cases"
)

const DefaultPageSize = 12

// ProductBrowser is the client side search and pagination over a product
// list. It never talks to the network.
type ProductBrowser struct {
	products []model.Product
	pageSize int
	search   string
	page     int
	fold     cases.Caser
}

func NewProductBrowser(products []model.Product, pageSize int) *ProductBrowser {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &ProductBrowser{
		products: products,
		pageSize: pageSize,
		page:     1,
		fold:     cases.Fold(),
	}
}

// SetProducts swaps the underlying list and keeps the page in range.
func (b *ProductBrowser) SetProducts(products []model.Product) {
	b.products = products
	b.SetPage(b.page)
}

// SetSearch changes the search term and goes back to the first page.
func (b *ProductBrowser) SetSearch(term string) {
	b.search = term
	b.page = 1
}

func (b *ProductBrowser) SetPage(page int) {
	if count := b.PageCount(); page > count {
		page = count
	}
	if page < 1 {
		page = 1
	}
	b.page = page
}

func (b *ProductBrowser) Search() string { return b.search }
func (b *ProductBrowser) Page() int      { return b.page }
func (b *ProductBrowser) PageSize() int  { return b.pageSize }

// Filtered returns the products whose name or description contains the
// search term, ignoring case.
func (b *ProductBrowser) Filtered() []model.Product {
	term := b.fold.String(strings.TrimSpace(b.search))
	if term == "" {
		return b.products
	}
	var out []model.Product
	for _, p := range b.products {
		if strings.Contains(b.fold.String(p.Name), term) ||
			strings.Contains(b.fold.String(p.Description), term) {
			out = append(out, p)
		}
	}
	return out
}

func (b *ProductBrowser) PageCount() int {
	n := len(b.Filtered())
	return (n + b.pageSize - 1) / b.pageSize
}

// Items returns the current page of the filtered list.
func (b *ProductBrowser) Items() []model.Product {
	filtered := b.Filtered()
	start := (b.page - 1) * b.pageSize
	if start >= len(filtered) {
		return nil
	}
	end := start + b.pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

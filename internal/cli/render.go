package cli

import (
	"fmt"
	"io"

	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/internal/app/service"
)

const nameWidth = 30

// ProductPage is one page of the browsable catalog.
type ProductPage struct {
	Products  []model.Product `json:"products" yaml:"products"`
	Search    string          `json:"search,omitempty" yaml:"search,omitempty"`
	Page      int             `json:"page" yaml:"page"`
	PageCount int             `json:"page_count" yaml:"page_count"`
	Total     int             `json:"total" yaml:"total"`
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func productStatus(p model.Product) string {
	if p.SoldOut() {
		return "sold out"
	}
	return "available"
}

func renderProductTable(w io.Writer, products []model.Product) {
	fmt.Fprintf(w, "%-5s %-30s %-6s %-10s %s\n", "ID", "NAME", "STOCK", "STATUS", "PRICE")
	for _, p := range products {
		fmt.Fprintf(w, "%-5d %-30s %-6d %-10s %s\n",
			p.ID, truncate(p.Name, nameWidth), p.Stock, productStatus(p), service.FormatEUR(p.Price))
	}
}

func renderProductPage(w io.Writer, page ProductPage) {
	if page.Total == 0 {
		if page.Search != "" {
			fmt.Fprintf(w, "No products match %q.\n", page.Search)
			return
		}
		fmt.Fprintln(w, "No products found.")
		return
	}
	renderProductTable(w, page.Products)
	fmt.Fprintf(w, "\nPage %d of %d, %d products\n", page.Page, page.PageCount, page.Total)
}

func renderProductDetail(w io.Writer, detail *service.ProductDetail) {
	p := detail.Product
	fmt.Fprintf(w, "%s (#%d)\n", p.Name, p.ID)
	fmt.Fprintf(w, "Price:    %s\n", service.FormatEUR(p.Price))
	fmt.Fprintf(w, "Stock:    %d\n", p.Stock)
	fmt.Fprintf(w, "Status:   %s\n", productStatus(p))
	if detail.Category != nil {
		fmt.Fprintf(w, "Category: %s\n", detail.Category.Name)
	}
	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", p.Description)
	}
}

func renderCart(w io.Writer, snap service.CartSnapshot) {
	switch {
	case !snap.Identity.IsGuest():
		fmt.Fprintln(w, "Cart (signed in)")
	case snap.Identity.HasSession():
		fmt.Fprintf(w, "Cart (guest session %s)\n", snap.Identity.SessionID)
	default:
		fmt.Fprintln(w, "Cart (guest)")
	}
	if snap.Err != "" {
		fmt.Fprintf(w, "Warning: %s\n", snap.Err)
	}

	if len(snap.Cart.Items) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}

	fmt.Fprintf(w, "%-6s %-30s %-4s %s\n", "ITEM", "PRODUCT", "QTY", "TOTAL")
	for _, item := range snap.Cart.Items {
		name := fmt.Sprintf("product #%d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		fmt.Fprintf(w, "%-6d %-30s %-4d %s\n",
			item.ID, truncate(name, nameWidth), item.Quantity, service.FormatEUR(item.LineTotal()))
	}
	fmt.Fprintf(w, "\nItems: %d\n", snap.Cart.TotalItemCount)
	fmt.Fprintf(w, "Total: %s\n", service.FormatEUR(snap.Cart.TotalValue))
}

func renderSummary(w io.Writer, summary *service.CheckoutSummary) {
	if len(summary.Lines) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}
	fmt.Fprintf(w, "%-30s %-4s %-10s %s\n", "PRODUCT", "QTY", "UNIT", "TOTAL")
	for _, line := range summary.Lines {
		fmt.Fprintf(w, "%-30s %-4d %-10s %s\n",
			truncate(line.Name, nameWidth), line.Quantity, line.UnitPriceText, line.LineTotalText)
	}
	fmt.Fprintf(w, "\nSubtotal: %s\n", summary.SubtotalText)
	fmt.Fprintf(w, "Shipping: %s\n", summary.ShippingText)
	fmt.Fprintf(w, "Tax:      %s\n", summary.TaxText)
	fmt.Fprintf(w, "Total:    %s\n", summary.TotalText)
}

func renderPrincipal(w io.Writer, p *model.Principal) {
	if p == nil {
		fmt.Fprintln(w, "Not logged in")
		return
	}
	fmt.Fprintf(w, "%s <%s> (%s)\n", p.Name, p.Email, p.Role)
}

func renderCategories(w io.Writer, categories []model.Category) {
	if len(categories) == 0 {
		fmt.Fprintln(w, "No categories.")
		return
	}
	fmt.Fprintf(w, "%-5s %-30s %s\n", "ID", "NAME", "SLUG")
	for _, c := range categories {
		fmt.Fprintf(w, "%-5d %-30s %s\n", c.ID, truncate(c.Name, nameWidth), c.Slug)
	}
}

func renderDashboard(w io.Writer, stats *model.DashboardStats) {
	fmt.Fprintf(w, "Products:  %d\n", stats.TotalProducts)
	fmt.Fprintf(w, "Users:     %d\n", stats.TotalUsers)
	fmt.Fprintf(w, "Low stock: %d\n", stats.TotalLowStock)
	if len(stats.LatestProducts) == 0 {
		return
	}
	fmt.Fprintln(w, "\nLatest products:")
	for _, p := range stats.LatestProducts {
		fmt.Fprintf(w, "  #%d %s\n", p.ID, p.Name)
	}
}

func renderImportReport(w io.Writer, report *service.ImportReport) {
	fmt.Fprintf(w, "Rows: %d, created: %d, skipped: %d, failed: %d\n",
		report.Rows, report.Created, report.Skipped, report.Failed)
	for _, problem := range report.Problems {
		fmt.Fprintf(w, "- %s\n", problem)
	}
}

package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/spf13/cobra"
)

func parseID(arg, what string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return uint(id), nil
}

func newProductsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}
	cmd.AddCommand(newProductsListCommand(opts))
	cmd.AddCommand(newProductsShowCommand(opts))
	return cmd
}

func newProductsListCommand(opts *RootOptions) *cobra.Command {
	var (
		search string
		page   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products, optionally filtered by name or description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer sf.Close()

			if err := sf.Catalog.FetchProducts(cmd.Context()); err != nil {
				return err
			}

			browser := service.NewProductBrowser(sf.Catalog.Products(), service.DefaultPageSize)
			browser.SetSearch(search)
			browser.SetPage(page)

			result := ProductPage{
				Products:  browser.Items(),
				Search:    browser.Search(),
				Page:      browser.Page(),
				PageCount: browser.PageCount(),
				Total:     len(browser.Filtered()),
			}
			return opts.formatter(cmd).Render(result, func(w io.Writer) {
				renderProductPage(w, result)
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "case insensitive search term")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newProductsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "product id")
			if err != nil {
				return err
			}
			sf, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer sf.Close()

			detail, err := sf.Catalog.GetProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Render(detail, func(w io.Writer) {
				renderProductDetail(w, detail)
			})
		},
	}
}

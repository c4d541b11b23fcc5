package cli

import (
	"fmt"
	"io"

	"github.com/gamexpress/storefront/internal/api"
	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newAdminCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Store administration (product managers and super admins)",
	}
	cmd.AddCommand(newAdminCategoriesCommand(opts))
	cmd.AddCommand(newAdminProductsCommand(opts))
	cmd.AddCommand(newAdminDashboardCommand(opts))
	cmd.AddCommand(newAdminImportCommand(opts))
	return cmd
}

// adminRun runs fn on a started session.
func adminRun(opts *RootOptions, cmd *cobra.Command, fn func(sf *service.Storefront) error) error {
	sf, err := opts.session(cmd)
	if err != nil {
		return err
	}
	defer sf.Close()
	return fn(sf)
}

func newAdminCategoriesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories (super admins)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(opts, cmd, func(sf *service.Storefront) error {
				categories, err := sf.Admin.ListCategories(cmd.Context())
				if err != nil {
					return err
				}
				return opts.formatter(cmd).Render(categories, func(w io.Writer) {
					renderCategories(w, categories)
				})
			})
		},
	})

	var slug string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category; the slug is derived from the name unless given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(opts, cmd, func(sf *service.Storefront) error {
				if err := sf.Admin.CreateCategory(cmd.Context(), api.CategoryInput{Name: args[0], Slug: slug}); err != nil {
					return err
				}
				return opts.formatter(cmd).Message(fmt.Sprintf("Category %q created", args[0]))
			})
		},
	}
	create.Flags().StringVar(&slug, "slug", "", "explicit slug")
	cmd.AddCommand(create)

	var newSlug string
	update := &cobra.Command{
		Use:   "update <category-id> <name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "category id")
			if err != nil {
				return err
			}
			return adminRun(opts, cmd, func(sf *service.Storefront) error {
				if err := sf.Admin.UpdateCategory(cmd.Context(), id, api.CategoryInput{Name: args[1], Slug: newSlug}); err != nil {
					return err
				}
				return opts.formatter(cmd).Message(fmt.Sprintf("Category #%d updated", id))
			})
		},
	}
	update.Flags().StringVar(&newSlug, "slug", "", "explicit slug")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <category-id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "category id")
			if err != nil {
				return err
			}
			return adminRun(opts, cmd, func(sf *service.Storefront) error {
				if err := sf.Admin.DeleteCategory(cmd.Context(), id); err != nil {
					return err
				}
				return opts.formatter(cmd).Message(fmt.Sprintf("Category #%d deleted", id))
			})
		},
	})

	return cmd
}

func newAdminProductsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage products",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(opts, cmd, func(sf *service.Storefront) error {
				products, err := sf.Admin.ListProducts(cmd.Context())
				if err != nil {
					return err
				}
				return opts.formatter(cmd).Render(products, func(w io.Writer) {
					renderProductTable(w, products)
				})
			})
		},
	})

	cmd.AddCommand(newAdminProductCreateCommand(opts))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <product-id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "product id")
			if err != nil {
				return err
			}
			return adminRun(opts, cmd, func(sf *service.Storefront) error {
				if err := sf.Admin.DeleteProduct(cmd.Context(), id); err != nil {
					return err
				}
				return opts.formatter(cmd).Message(fmt.Sprintf("Product #%d deleted", id))
			})
		},
	})

	return cmd
}

func newAdminProductCreateCommand(opts *RootOptions) *cobra.Command {
	var (
		form   api.ProductForm
		price  string
		status string
		images []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product; images are local paths or s3://bucket/key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("invalid price %q", price)
			}
			form.Price = amount
			form.Status = model.ProductStatus(status)

			return adminRun(opts, cmd, func(sf *service.Storefront) error {
				if err := sf.Admin.CreateProduct(cmd.Context(), form, images); err != nil {
					return err
				}
				return opts.formatter(cmd).Message(fmt.Sprintf("Product %q created", form.Name))
			})
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "product name")
	cmd.Flags().StringVar(&form.Slug, "slug", "", "explicit slug")
	cmd.Flags().StringVar(&price, "price", "", "unit price, e.g. 59.90")
	cmd.Flags().IntVar(&form.Stock, "stock", 0, "units in stock")
	cmd.Flags().StringVar(&status, "status", string(model.StatusAvailable), "available or out_of_stock")
	cmd.Flags().StringVar(&form.Description, "description", "", "product description")
	cmd.Flags().UintVar(&form.CategoryID, "category", 0, "category id")
	cmd.Flags().StringArrayVar(&images, "image", nil, "image reference, repeatable")
	cmd.Flags().IntVar(&form.PrimaryIndex, "primary", 0, "index of the primary image")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newAdminDashboardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(opts, cmd, func(sf *service.Storefront) error {
				stats, err := sf.Admin.Dashboard(cmd.Context())
				if err != nil {
					return err
				}
				return opts.formatter(cmd).Render(stats, func(w io.Writer) {
					renderDashboard(w, stats)
				})
			})
		},
	}
}

func newAdminImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Create products from the first sheet of a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(opts, cmd, func(sf *service.Storefront) error {
				report, err := sf.Admin.ImportProducts(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return opts.formatter(cmd).Render(report, func(w io.Writer) {
					renderImportReport(w, report)
				})
			})
		},
	}
}

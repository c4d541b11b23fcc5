package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/spf13/cobra"
)

func newCartCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the profile's cart",
	}
	cmd.AddCommand(newCartShowCommand(opts))
	cmd.AddCommand(newCartAddCommand(opts))
	cmd.AddCommand(newCartUpdateCommand(opts))
	cmd.AddCommand(newCartRemoveCommand(opts))
	cmd.AddCommand(newCartClearCommand(opts))
	return cmd
}

// cartMutation runs fn on a started session and prints the resulting cart.
func cartMutation(opts *RootOptions, cmd *cobra.Command, fn func(sf *service.Storefront) error) error {
	sf, err := opts.session(cmd)
	if err != nil {
		return err
	}
	defer sf.Close()

	if fn != nil {
		if err := fn(sf); err != nil {
			return err
		}
	}
	snap := sf.Cart.Snapshot()
	return opts.formatter(cmd).Render(snap, func(w io.Writer) {
		renderCart(w, snap)
	})
}

func newCartShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the session start already fetched the cart
			return cartMutation(opts, cmd, nil)
		},
	}
}

func newCartAddCommand(opts *RootOptions) *cobra.Command {
	var quantity int

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID(args[0], "product id")
			if err != nil {
				return err
			}
			return cartMutation(opts, cmd, func(sf *service.Storefront) error {
				// sold out products are refused before any request
				if err := sf.Catalog.FetchProducts(cmd.Context()); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", errorMessage(err))
				}
				return sf.Cart.AddToCart(cmd.Context(), productID, quantity)
			})
		},
	}

	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "quantity to add")
	return cmd
}

func newCartUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <item-id> <quantity>",
		Short: "Set the quantity of a cart item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID(args[0], "item id")
			if err != nil {
				return err
			}
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return cartMutation(opts, cmd, func(sf *service.Storefront) error {
				return sf.Cart.UpdateQuantity(cmd.Context(), itemID, quantity)
			})
		},
	}
}

func newCartRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove an item from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID(args[0], "item id")
			if err != nil {
				return err
			}
			return cartMutation(opts, cmd, func(sf *service.Storefront) error {
				return sf.Cart.RemoveFromCart(cmd.Context(), itemID)
			})
		},
	}
}

func newCartClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cartMutation(opts, cmd, func(sf *service.Storefront) error {
				return sf.Cart.ClearCart(cmd.Context())
			})
		},
	}
}

func newCheckoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Show the priced order summary; requires login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer sf.Close()

			summary, err := sf.Checkout.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Render(summary, func(w io.Writer) {
				renderSummary(w, summary)
			})
		},
	}
}

package cli

import (
	"fmt"

	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/spf13/cobra"
)

const DefaultProfile = "default"

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// Opener builds the storefront bound to a state namespace.
type Opener func(namespace string) (*service.Storefront, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Profile string
	Output  string

	open Opener
}

// ProfileNamespace is the state namespace of a CLI profile.
func ProfileNamespace(profile string) string {
	return "profile:" + profile
}

// NewRootCommand creates the storefront command tree.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "GameXpress storefront client",
		Long:  "Browse the GameXpress catalog, manage your cart and administer the store from the terminal.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Output) {
				return fmt.Errorf("invalid output %q: must be one of %v", opts.Output, ValidFormats)
			}
			if opts.Profile == "" {
				return fmt.Errorf("profile must not be empty")
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Profile, "profile", "p", DefaultProfile, "session profile; each profile keeps its own login and guest cart")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "text", "output format (text|json|yaml)")

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newRegisterCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newWhoamiCommand(opts))
	cmd.AddCommand(newProductsCommand(opts))
	cmd.AddCommand(newCartCommand(opts))
	cmd.AddCommand(newCheckoutCommand(opts))
	cmd.AddCommand(newAdminCommand(opts))

	return cmd
}

// session opens and starts the storefront of the selected profile. A cart
// that fails to load is reported on stderr and leaves the session usable.
func (o *RootOptions) session(cmd *cobra.Command) (*service.Storefront, error) {
	sf, err := o.open(ProfileNamespace(o.Profile))
	if err != nil {
		return nil, err
	}
	if err := sf.Start(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", errorMessage(err))
	}
	return sf, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *Formatter {
	return &Formatter{Format: o.Output, Writer: cmd.OutOrStdout()}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

package cli

import (
	"io"
	"os"

	"github.com/gamexpress/storefront/internal/api"
	"github.com/spf13/cobra"
)

// PasswordEnv is read when --password is not given.
const PasswordEnv = "STOREFRONT_PASSWORD"

func passwordFrom(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(PasswordEnv)
}

func newLoginCommand(opts *RootOptions) *cobra.Command {
	var creds api.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in; a guest cart held by the profile is merged into the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer sf.Close()

			creds.Password = passwordFrom(creds.Password)
			user, err := sf.Auth.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Render(user, func(w io.Writer) {
				io.WriteString(w, "Signed in as ")
				renderPrincipal(w, user)
			})
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password (default $"+PasswordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCommand(opts *RootOptions) *cobra.Command {
	var reg api.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer sf.Close()

			reg.Password = passwordFrom(reg.Password)
			if reg.PasswordConfirmation == "" {
				reg.PasswordConfirmation = reg.Password
			}
			user, err := sf.Auth.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Render(user, func(w io.Writer) {
				io.WriteString(w, "Registered ")
				renderPrincipal(w, user)
			})
		},
	}

	cmd.Flags().StringVar(&reg.Name, "name", "", "display name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password (default $"+PasswordEnv+")")
	cmd.Flags().StringVar(&reg.PasswordConfirmation, "password-confirmation", "", "repeat the password (defaults to --password)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out; the local session is cleared even if the server is unreachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer sf.Close()

			sf.Auth.Logout(cmd.Context())
			return opts.formatter(cmd).Message("Signed out")
		},
	}
}

func newWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user of the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer sf.Close()

			user := sf.Auth.Principal()
			return opts.formatter(cmd).Render(user, func(w io.Writer) {
				renderPrincipal(w, user)
			})
		},
	}
}

package main

import (
	"errors"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/spf13/cobra"
)

func newLoginCmd(c *cli) *cobra.Command {
	var (
		username      string
		password      string
		passwordStdin bool
		totpCode      string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Example: `  musify login --username night_owl --password-stdin < pw.txt
  musify login --username owl@example.com --password hunter22 --totp 123456`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := c.readSecret("password", password, passwordStdin)
			if err != nil {
				return err
			}

			return c.withClient(cmd, func(client *musifysdk.SDKClient) error {
				res, err := client.Login(cmd.Context(), musifysdk.LoginRequest{
					Identifier: username,
					Password:   pw,
					TOTPCode:   totpCode,
				})
				if err != nil {
					return describe(err)
				}
				if res.Requires2FA {
					c.printf("two-factor authentication required, run login again with --totp\n")
					return nil
				}
				c.printf("logged in as %s (profile %s)\n", res.User.Username, c.cfg.Profile)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username or email")
	cmd.Flags().StringVar(&password, "password", "", "password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().StringVar(&totpCode, "totp", "", "two-factor code")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var (
		req           musifysdk.RegisterRequest
		password      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store its session",
		Example: `  musify register --email owl@example.com --username night_owl --display-name "Night Owl" --password-stdin
  musify register --phone +61400000000 --username night_owl --display-name "Night Owl" --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := c.readSecret("password", password, passwordStdin)
			if err != nil {
				return err
			}
			req.Password, req.ConfirmPassword = pw, pw

			req.VerificationType = musifysdk.ChannelEmail
			if req.PhoneNumber != "" {
				req.VerificationType = musifysdk.ChannelSMS
			}

			return c.withClient(cmd, func(client *musifysdk.SDKClient) error {
				res, err := client.Register(cmd.Context(), req)
				if err != nil {
					return describe(err)
				}
				c.printf("registered %s\n", res.User.Username)
				if res.Message != "" {
					c.printf("%s\n", res.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "email address, verified by link")
	cmd.Flags().StringVar(&req.PhoneNumber, "phone", "", "phone number, verified by SMS code")
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username (3-30 of a-z, A-Z, 0-9, _)")
	cmd.Flags().StringVar(&req.DisplayName, "display-name", "", "name shown on your profile")
	cmd.Flags().BoolVar(&req.IsArtist, "artist", false, "register as an artist")
	cmd.Flags().StringVar(&password, "password", "", "password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("email", "phone")
	cmd.MarkFlagsOneRequired("email", "phone")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the server and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withClient(cmd, func(client *musifysdk.SDKClient) error {
				if err := client.Logout(cmd.Context()); err != nil {
					return err
				}
				c.printf("logged out\n")
				return nil
			})
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account of the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withClient(cmd, func(client *musifysdk.SDKClient) error {
				u, err := client.CurrentUser(cmd.Context())
				if errors.Is(err, musifysdk.ErrSessionExpired) {
					return errors.New("session expired, run musify login")
				}
				if err != nil {
					return describe(err)
				}

				c.printf("id:           %d\n", u.ID)
				c.printf("username:     %s\n", u.Username)
				c.printf("display name: %s\n", u.DisplayName)
				if u.Email != "" {
					c.printf("email:        %s (verified: %t)\n", u.Email, u.EmailVerified)
				}
				c.printf("premium:      %t\n", u.IsPremium)
				c.printf("artist:       %t\n", u.IsArtist)
				c.printf("2fa:          %t\n", u.TwoFactorEnabled)
				return nil
			})
		},
	}
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without contacting the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withClient(cmd, func(client *musifysdk.SDKClient) error {
				s, err := client.Session(cmd.Context())
				if errors.Is(err, musifysdk.ErrNoSession) {
					c.printf("not logged in (profile %s)\n", c.cfg.Profile)
					return nil
				}
				if err != nil {
					return err
				}

				c.printf("logged in (profile %s, store %s)\n", c.cfg.Profile, c.cfg.Store)
				c.printf("issued:        %s\n", s.IssuedAt.Format(time.RFC3339))
				if exp := s.ExpiresAt(); !exp.IsZero() {
					c.printf("access expiry: %s\n", exp.Format(time.RFC3339))
				}
				c.printf("refreshable:   %t\n", s.RefreshToken != "")
				return nil
			})
		},
	}
}

func newRefreshCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withClient(cmd, func(client *musifysdk.SDKClient) error {
				s, err := client.Refresh(cmd.Context())
				if err != nil {
					return describe(err)
				}
				c.printf("session refreshed")
				if exp := s.ExpiresAt(); !exp.IsZero() {
					c.printf(", access token valid until %s", exp.Format(time.RFC3339))
				}
				c.printf("\n")
				return nil
			})
		},
	}
}

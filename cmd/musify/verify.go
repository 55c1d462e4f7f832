package main

import (
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/spf13/cobra"
)

func newVerifyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm an email address or phone number",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "email <token>",
		Short: "Confirm an email address with the token from the link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd, func(client *musifysdk.SDKClient) error {
				mr, err := client.VerifyEmail(cmd.Context(), args[0])
				if err != nil {
					return describe(err)
				}
				c.printf("%s\n", mr.Message)
				return nil
			})
		},
	})

	var phone string
	sms := &cobra.Command{
		Use:   "sms <code>",
		Short: "Confirm a phone number with the code sent to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd, func(client *musifysdk.SDKClient) error {
				mr, err := client.VerifySMS(cmd.Context(), args[0], phone)
				if err != nil {
					return describe(err)
				}
				c.printf("%s\n", mr.Message)
				return nil
			})
		},
	}
	sms.Flags().StringVar(&phone, "phone", "", "phone number the code was sent to")
	_ = sms.MarkFlagRequired("phone")
	cmd.AddCommand(sms)

	return cmd
}

func newResendCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "resend <email:address | sms:number>",
		Short: "Send the verification email or SMS again",
		Long: `Send the verification email or SMS again. A bare address is treated as
an email. The server allows one resend per address per minute.`,
		Example: `  musify resend owl@example.com
  musify resend sms:+61400000000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, target := musifysdk.ParseVerificationTarget(args[0])
			return c.withClient(cmd, func(client *musifysdk.SDKClient) error {
				mr, err := client.ResendVerification(cmd.Context(), channel, target)
				if err != nil {
					return describe(err)
				}
				c.printf("%s\n", mr.Message)
				return nil
			})
		},
	}
}

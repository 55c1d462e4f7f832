package main

import (
	"github.com/Rostanic20/Musify-Frontend/internal/app"
	"github.com/spf13/cobra"
)

func newMockServerCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory Musify auth API",
		Long: `Run an in-memory Musify auth API on PORT. Access tokens are EdDSA JWTs
signed with a key generated at startup, so sessions do not survive a restart.

Swagger UI is served on /swagger/index.html and pending verification
tokens and codes on /_mock/outbox unless --expose-outbox=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := app.NewLogger(c.cfg, "musify-mock-api")
			srv, err := app.NewMockServer(c.cfg, logger)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&c.cfg.Port, "port", c.cfg.Port, "listen port (PORT)")
	cmd.Flags().DurationVar(&c.cfg.MockAccessTTL, "access-ttl", c.cfg.MockAccessTTL, "access token lifetime (MOCK_ACCESS_TTL)")
	cmd.Flags().BoolVar(&c.cfg.MockRotateRefresh, "rotate-refresh", c.cfg.MockRotateRefresh, "rotate refresh tokens (MOCK_ROTATE_REFRESH)")
	cmd.Flags().BoolVar(&c.cfg.MockExposeOutbox, "expose-outbox", c.cfg.MockExposeOutbox, "serve pending verification tokens on /_mock/outbox (MOCK_EXPOSE_OUTBOX)")
	cmd.Flags().StringVar(&c.cfg.MockSeedUser, "seed-user", c.cfg.MockSeedUser, "username:password created at startup (MOCK_SEED_USER)")
	return cmd
}

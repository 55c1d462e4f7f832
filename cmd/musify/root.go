package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/Rostanic20/Musify-Frontend/internal/app"
	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/spf13/cobra"
)

// cli carries what every subcommand shares. Commands that talk to the API
// call open first and close when done.
type cli struct {
	cfg    app.Config
	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger

	// clientOpts are appended to every SDK client; tests use it to inject
	// a transport.
	clientOpts []musifysdk.Option
}

func newRootCmd(in io.Reader, out io.Writer, clientOpts ...musifysdk.Option) *cobra.Command {
	c := &cli{
		cfg:        app.LoadConfig(),
		in:         bufio.NewReader(in),
		out:        out,
		clientOpts: clientOpts,
	}

	root := &cobra.Command{
		Use:   "musify",
		Short: "Musify account and session tool",
		Long: `Log in to Musify, inspect and refresh the stored session, and run a local
mock of the Musify auth API for development.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			c.logger = app.NewLogger(c.cfg, "musify-cli")
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfg.BaseURL, "base-url", c.cfg.BaseURL, "Musify API base URL (MUSIFY_BASE_URL)")
	flags.StringVar(&c.cfg.Store, "store", c.cfg.Store, "credential store: memory, sqlite, bolt, redis, enclave (MUSIFY_STORE)")
	flags.StringVar(&c.cfg.StorePath, "store-path", c.cfg.StorePath, "sqlite or bolt file (MUSIFY_STORE_PATH)")
	flags.StringVar(&c.cfg.RedisAddr, "redis-addr", c.cfg.RedisAddr, "redis address for the redis store (MUSIFY_REDIS_ADDR)")
	flags.StringVar(&c.cfg.Profile, "profile", c.cfg.Profile, "session profile (MUSIFY_PROFILE)")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "debug, info, warn or error (LOG_LEVEL)")

	root.AddCommand(
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newStatusCmd(c),
		newRefreshCmd(c),
		newVerifyCmd(c),
		newResendCmd(c),
		newMockServerCmd(c),
	)
	return root
}

// withClient opens the configured store, builds a client and runs fn.
func (c *cli) withClient(cmd *cobra.Command, fn func(*musifysdk.SDKClient) error) error {
	store, err := app.OpenStore(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			c.logger.Warn("failed to close credential store", "err", err)
		}
	}()

	return fn(app.NewClient(c.cfg, store, c.logger, c.clientOpts...))
}

// readSecret returns flagValue, or one line from stdin when fromStdin is set.
func (c *cli) readSecret(name, flagValue string, fromStdin bool) (string, error) {
	if !fromStdin {
		if flagValue == "" {
			return "", fmt.Errorf("--%s or --%s-stdin is required", name, name)
		}
		return flagValue, nil
	}

	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("empty %s on stdin", name)
	}
	return line, nil
}

func (c *cli) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// describe turns SDK errors into the message a user should see.
func describe(err error) error {
	var sdkErr *musifysdk.Error
	if !errors.As(err, &sdkErr) {
		return err
	}
	if len(sdkErr.Fields) > 0 {
		parts := make([]string, 0, len(sdkErr.Fields))
		for field, reason := range sdkErr.Fields {
			parts = append(parts, field+" "+reason)
		}
		slices.Sort(parts)
		return fmt.Errorf("%s (%s)", sdkErr.Message, strings.Join(parts, "; "))
	}
	if sdkErr.Message != "" {
		return errors.New(sdkErr.Message)
	}
	return err
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/wikidb/internal/gateway"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string // overrides http.addr from the config file
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dispatcher and the HTTP gateway",
		Long: `Start the wiki.

serve opens the database, creates the Pages table if needed, registers the
dispatcher on the configured queue and then serves the HTML gateway until
SIGINT or SIGTERM.

Example:
  wikidb serve
  wikidb serve --config wikidb.yaml --addr :9090 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "HTTP listen address (default from config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	rt, err := startRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gateway.NewRouter(rt.client, logger)

	fmt.Fprintf(cmd.OutOrStdout(), "Wiki listening on %s (queue %s)\n", cfg.HTTP.Addr, rt.service.Address())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := gateway.ListenAndServe(ctx, cfg.HTTP.Addr, router, logger); err != nil {
		return WrapExitError(ExitCommandError, "gateway error", err)
	}

	logger.Info("wiki stopped gracefully")
	return nil
}

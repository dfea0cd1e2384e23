package cli

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/wikidb/internal/bus"
	"github.com/roach88/wikidb/internal/config"
	"github.com/roach88/wikidb/internal/dispatch"
)

// SendOptions holds flags for the send command.
type SendOptions struct {
	*RootOptions
	Body    string
	Timeout time.Duration
}

// NewSendCommand creates the send command.
func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "send [action]",
		Short: "Send one message to an in-process dispatcher",
		Long: `Send one message to the dispatcher and print its reply.

send boots the store and dispatcher in this process, delivers a single
message with the given action header and JSON body, and prints the reply.
Omitting the action sends the message without an action header.

A failed message prints the failure code and exits with status 1.

Example:
  wikidb send all-pages
  wikidb send create-page --body '{"title":"Home","markdown":"# Home"}'
  wikidb send get-page --body '{"page":"Home"}' --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendMessage(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Body, "body", "{}", "message body as JSON")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "reply timeout (default from config)")

	return cmd
}

func sendMessage(opts *SendOptions, args []string, cmd *cobra.Command) error {
	if !json.Valid([]byte(opts.Body)) {
		return NewExitError(ExitCommandError, "invalid --body JSON")
	}
	body := json.RawMessage(opts.Body)

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Timeout > 0 {
		cfg.RequestTimeout = config.Duration(opts.Timeout)
	}

	ctx := commandContext(cmd)
	rt, err := startRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	var reply *bus.Message
	if len(args) == 0 {
		reply, err = rt.bus.Request(ctx, rt.service.Address(), body, bus.WithTimeout(cfg.RequestTimeout.Std()))
	} else {
		reply, err = rt.client.Request(ctx, args[0], body)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var replyErr *bus.ReplyError
	switch {
	case errors.As(err, &replyErr):
		code := dispatch.ErrorCode(replyErr.Code).String()
		if outErr := formatter.Error(code, replyErr.Message, map[string]int{"code": replyErr.Code}); outErr != nil {
			return WrapExitError(ExitCommandError, "failed to write output", outErr)
		}
		return &ExitError{Code: ExitFailure, Message: "message failed", Err: err, Reported: true}
	case errors.Is(err, bus.ErrTimeout):
		return WrapExitError(ExitFailure, "no reply", err)
	case err != nil:
		return WrapExitError(ExitCommandError, "send failed", err)
	}

	formatter.VerboseLog("reply %s from %s", reply.ID, reply.Address)
	if err := formatter.Reply(reply.ID, reply.Body); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	slacklib "github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/justmike1/mentionbot/action"
	"github.com/justmike1/mentionbot/config"
	"github.com/justmike1/mentionbot/server"
	"github.com/justmike1/mentionbot/slack"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to Slack and dispatch actions for bot mentions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var opts []slacklib.Option
		if cfg.Slack.Mode == config.ModeSocket {
			opts = append(opts, slacklib.OptionAppLevelToken(cfg.Slack.AppToken))
		}
		if cfg.Slack.Debug {
			opts = append(opts, slack.DebugOptions(logger)...)
		}
		client := slack.NewClient(cfg.Slack.BotToken, logger, opts...)

		if _, err := client.BotUserID(ctx); err != nil {
			return fmt.Errorf("slack auth check: %w", err)
		}

		d, closeSettings, err := newDispatcher(cfg, client, logger)
		if err != nil {
			return err
		}
		defer closeSettings()

		onMessage := func(ctx context.Context, msg action.Message) {
			d.Handle(ctx, msg)
		}

		g, ctx := errgroup.WithContext(ctx)
		switch cfg.Slack.Mode {
		case config.ModeEvents:
			events := slack.NewEventsHandler(cfg.Slack.SigningSecret, client, onMessage, logger)
			srv := server.New(server.Config{Port: cfg.Server.Port, AllowedCIDRs: cfg.Server.AllowedCIDRs}, events, logger)
			g.Go(func() error { return srv.Run(ctx) })
		default:
			srv := server.New(server.Config{Port: cfg.Server.Port}, nil, logger)
			listener := slack.NewSocketListener(client, onMessage, cfg.Slack.Debug, logger)
			g.Go(func() error { return srv.Run(ctx) })
			g.Go(func() error {
				if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
					return fmt.Errorf("socket mode: %w", err)
				}
				return nil
			})
		}

		logger.Info("mentionbot started", "mode", cfg.Slack.Mode)
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

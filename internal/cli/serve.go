package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/zoebot/internal/config"
	"github.com/soyeahso/zoebot/internal/logging"
	"github.com/soyeahso/zoebot/internal/webhook"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the fulfillment webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Webhook.Port = port
			}
			if bind != "" {
				cfg.Webhook.Bind = bind
			}
			if issues := config.Validate(&cfg); len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			logger, logCloser, err := logging.Open(logging.Options{
				Level: effectiveLevel(cfg.Logging.Level),
				Style: cfg.Logging.ConsoleStyle,
				File:  cfg.Logging.File,
			})
			if err != nil {
				return err
			}
			defer logCloser.Close()

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			a, err := buildApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := webhook.New(cfg, a.router, logger,
				webhook.WithHooks(a.hooks),
				webhook.WithGatherer(a.registry),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override webhook port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")

	return cmd
}

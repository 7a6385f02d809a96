package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/zoebot/internal/config"
	"github.com/soyeahso/zoebot/internal/store"
	"github.com/soyeahso/zoebot/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show zoebot status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "zoebot %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:     %s\n", paths.Logs)
			fmt.Fprintln(out)

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config:   not found (using defaults)")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:   error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Webhook:  port=%d bind=%s path=%s auth=%s tls=%v\n",
				cfg.Webhook.Port, cfg.Webhook.Bind, cfg.Webhook.Path, cfg.Webhook.Auth.Mode, cfg.Webhook.TLS.Enabled)
			fmt.Fprintf(out, "Renault:  country=%s gigyaKey=%s kamereonKey=%s\n",
				cfg.Renault.Country, setOrMissing(cfg.Renault.GigyaAPIKey), setOrMissing(cfg.Renault.KamereonAPIKey))
			fmt.Fprintf(out, "Session:  store=%s identity=%s await=%d turns/%s\n",
				cfg.Session.Store, cfg.Session.Identity, cfg.Session.AwaitTurns, cfg.Session.AwaitTimeout())
			if cfg.Metrics.Enabled {
				fmt.Fprintf(out, "Metrics:  %s\n", cfg.Metrics.Path)
			} else {
				fmt.Fprintln(out, "Metrics:  disabled")
			}

			hooks := 0
			for _, b := range cfg.Hooks.Bindings() {
				hooks += len(b.Entries)
			}
			fmt.Fprintf(out, "Hooks:    %d shell command(s)\n", hooks)

			if cfg.Session.Store == "sqlite" {
				printDatabaseStatus(cmd.Context(), cmd, paths.Database())
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}

			return nil
		},
	}

	return cmd
}

func printDatabaseStatus(ctx context.Context, cmd *cobra.Command, path string) {
	out := cmd.OutOrStdout()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "Database: %s (not created yet)\n", path)
		return
	}

	db, err := store.Open(path, log)
	if err != nil {
		fmt.Fprintf(out, "Database: %s (error: %v)\n", path, err)
		return
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	schema, err := db.SchemaVersion(ctx)
	if err != nil {
		fmt.Fprintf(out, "Database: %s (error: %v)\n", path, err)
		return
	}
	sessions, err := store.NewSQLiteSessionStore(db).List(ctx)
	if err != nil {
		fmt.Fprintf(out, "Database: %s (error: %v)\n", path, err)
		return
	}
	fmt.Fprintf(out, "Database: %s schema=v%d sessions=%d\n", path, schema, len(sessions))
}

func setOrMissing(s string) string {
	if s == "" {
		return "missing"
	}
	return "set"
}

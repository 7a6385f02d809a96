package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/zoebot/internal/domain"
	"github.com/soyeahso/zoebot/internal/routing"
)

const intentTimeout = 2 * time.Minute

func newIntentCmd() *cobra.Command {
	var (
		identity string
		params   []string
	)

	cmd := &cobra.Command{
		Use:   "intent <name> [query...]",
		Short: "Run one turn locally against the configured store and vehicle API",
		Long: "Run one turn locally. Intents: " + intentNames() + ".\n\n" +
			"Examples:\n" +
			"  zoebot intent provide-token --param any=<loginToken>\n" +
			"  zoebot intent start-hvac värm upp bilen --param temperature=22",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := parseParams(params)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			a, err := buildApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), intentTimeout)
			defer cancel()

			turn := domain.Turn{
				Identity: routing.ResolveIdentity(identity, "local", cfg.Session.Identity),
				Intent:   domain.Intent(args[0]),
				Query:    strings.Join(args[1:], " "),
			}
			reply, err := a.router.RouteParams(ctx, turn, raw)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if reply.Empty() {
				fmt.Fprintln(out, "(no reply)")
			}
			for _, t := range reply.Texts {
				fmt.Fprintln(out, t)
			}
			for _, c := range reply.Contexts {
				fmt.Fprintf(out, "[context %s lifespan=%d]\n", c.Name, c.Lifespan)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&identity, "identity", "local", "user id the turn is attributed to")
	cmd.Flags().StringArrayVar(&params, "param", nil, "intent parameter as key=value (repeatable)")

	return cmd
}

// parseParams turns key=value flags into a raw parameter map.
func parseParams(kvs []string) (map[string]any, error) {
	raw := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q, want key=value", kv)
		}
		raw[k] = v
	}
	return raw, nil
}

func intentNames() string {
	names := make([]string, 0, len(domain.Intents()))
	for _, i := range domain.Intents() {
		names = append(names, string(i))
	}
	return strings.Join(names, ", ")
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/zoebot/internal/domain"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect stored sessions",
	}

	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionShowCmd())
	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recently used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sessions, closer, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer closer.Close()

			list, err := sessions.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No sessions.")
				return nil
			}
			fmt.Fprintf(out, "%-40s %-8s %-18s %-15s %s\n", "IDENTITY", "TOKEN", "VIN", "PHASE", "UPDATED")
			for _, s := range list {
				fmt.Fprintf(out, "%-40s %-8s %-18s %-15s %s\n",
					s.Identity, tokenState(&s), orDash(s.VIN), orDash(string(s.Bootstrap.Phase)),
					s.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <identity>",
		Short: "Print one session as JSON (the login token is never shown)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sessions, closer, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer closer.Close()

			sess, err := sessions.Get(cmd.Context(), args[0])
			if errors.Is(err, domain.ErrSessionNotFound) {
				return fmt.Errorf("no session for %q", args[0])
			}
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(sess, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func tokenState(s *domain.Session) string {
	if s.HasToken() {
		return "stored"
	}
	return "-"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/blitz/internal/config"
	"github.com/soyeahso/blitz/internal/domain"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent exchanges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			history, closeHistory, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer closeHistory()

			records, err := history.Recent(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No exchanges yet.")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, rec := range records {
				status := string(rec.Status)
				if rec.Status == domain.StatusError {
					status = fmt.Sprintf("error (%s)", rec.ErrorMessage)
				}
				fmt.Fprintf(out, "%s  %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(rec.Question, 70))
				fmt.Fprintf(out, "        %s", truncate(rec.Answer, 100))
				if rec.Answer == "" {
					fmt.Fprint(out, "(no answer)")
				}
				fmt.Fprintln(out)
				if rec.TraceID != "" {
					fmt.Fprintf(out, "        trace=%s status=%s\n", rec.TraceID, status)
				} else {
					fmt.Fprintf(out, "        status=%s\n", status)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of exchanges to show")

	return cmd
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

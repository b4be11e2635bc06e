package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/blitz/internal/config"
	"github.com/soyeahso/blitz/internal/domain"
	"github.com/soyeahso/blitz/internal/feedback"
)

func newFeedbackCmd() *cobra.Command {
	var (
		rating  string
		comment string
	)

	cmd := &cobra.Command{
		Use:   "feedback <trace-id>",
		Short: "Rate a past exchange by its trace id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			traceID := args[0]

			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := newPlatformClient(ctx, cfg)
			if err != nil {
				return err
			}

			history, closeHistory, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer closeHistory()

			rec, err := history.ByTrace(traceID)
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no exchange found for trace %q", traceID)
			}

			binder := feedback.NewBinder(client, history, log)
			ack, err := binder.Submit(ctx, domain.ExchangeResult{
				Text:         rec.Answer,
				ToolCalls:    rec.ToolCalls,
				TraceID:      rec.TraceID,
				SessionID:    rec.SessionID,
				Status:       rec.Status,
				ErrorMessage: rec.ErrorMessage,
			}, domain.Rating(rating), comment, cfg.Assistant.UserName)
			if err != nil {
				return err
			}
			if !ack.Success {
				return fmt.Errorf("feedback rejected: %s", ack.Message)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Feedback recorded.")
			return nil
		},
	}

	cmd.Flags().StringVar(&rating, "rating", "up", "rating (up or down)")
	cmd.Flags().StringVar(&comment, "comment", "", "optional comment")

	return cmd
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/blitz/internal/config"
	"github.com/soyeahso/blitz/internal/domain"
	"github.com/soyeahso/blitz/internal/exchange"
	"github.com/soyeahso/blitz/internal/feedback"
	"github.com/soyeahso/blitz/internal/store"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive multi-turn conversation with the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			conv := exchange.NewConversation(exchange.NewCoordinator(client, log))
			binder := feedback.NewBinder(client, history, log)

			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()
			fmt.Fprintln(out, "Type a question, /reset to start a new session, /up or /down to rate the last answer, /quit to exit.")

			var lastResult domain.ExchangeResult
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				switch {
				case line == "/quit" || line == "/exit":
					return nil

				case line == "/reset":
					conv.Reset()
					fmt.Fprintln(out, "Session reset.")
					continue

				case line == "/up" || line == "/down",
					strings.HasPrefix(line, "/up "), strings.HasPrefix(line, "/down "):
					rating, comment := parseRatingLine(line)
					submitChatFeedback(ctx, binder, lastResult, rating, comment, cfg, errOut)
					continue

				case strings.HasPrefix(line, "/"):
					fmt.Fprintf(errOut, "unknown command: %s\n", line)
					continue
				}

				printer := newStreamPrinter(out, errOut)
				ex, err := conv.Ask(ctx, line, printer.Observe)
				if err != nil {
					fmt.Fprintf(errOut, "error: %v\n", err)
					continue
				}
				result, err := ex.Wait(ctx)
				if err != nil {
					ex.Cancel()
					return err
				}
				printer.Finish(result)
				lastResult = result

				if _, err := history.SaveExchange(store.NewRecord(line, result)); err != nil {
					log.Warn().Err(err).Msg("failed to save exchange")
				}
			}
		},
	}
}

func parseRatingLine(line string) (domain.Rating, string) {
	word, comment, _ := strings.Cut(line, " ")
	return domain.Rating(strings.TrimPrefix(word, "/")), strings.TrimSpace(comment)
}

func submitChatFeedback(ctx context.Context, binder *feedback.Binder, result domain.ExchangeResult, rating domain.Rating, comment string, cfg config.Config, errOut io.Writer) {
	ack, err := binder.Submit(ctx, result, rating, comment, cfg.Assistant.UserName)
	switch {
	case err != nil:
		fmt.Fprintf(errOut, "feedback not sent: %v\n", err)
	case !ack.Success:
		fmt.Fprintf(errOut, "feedback rejected: %s\n", ack.Message)
	default:
		fmt.Fprintln(errOut, "Feedback recorded.")
	}
}

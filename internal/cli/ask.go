package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/blitz/internal/config"
	"github.com/soyeahso/blitz/internal/domain"
	"github.com/soyeahso/blitz/internal/exchange"
	"github.com/soyeahso/blitz/internal/store"
)

func newAskCmd() *cobra.Command {
	var showTrace bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the agent a question and stream the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

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
			printer := newStreamPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			ex, err := conv.Ask(ctx, question, printer.Observe)
			if err != nil {
				return err
			}
			result, err := ex.Wait(ctx)
			if err != nil {
				ex.Cancel()
				return err
			}
			printer.Finish(result)

			if _, err := history.SaveExchange(store.NewRecord(question, result)); err != nil {
				log.Warn().Err(err).Msg("failed to save exchange")
			}

			if result.Status == domain.StatusError {
				return fmt.Errorf("exchange failed: %s", result.ErrorMessage)
			}

			if showTrace && result.TraceID != "" {
				info, err := client.TracingInfo(ctx)
				if err != nil {
					log.Warn().Err(err).Msg("tracing info unavailable")
				} else if url := info.TraceURL(result.TraceID); url != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "trace: %s\n", url)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTrace, "trace", false, "print the trace URL after the answer")

	return cmd
}

// streamPrinter renders incremental exchange snapshots to a terminal:
// new text is printed as it arrives, tool calls as one-line notices.
type streamPrinter struct {
	out    io.Writer
	errOut io.Writer

	mu      sync.Mutex
	printed int
	tools   int
}

func newStreamPrinter(out, errOut io.Writer) *streamPrinter {
	return &streamPrinter{out: out, errOut: errOut}
}

// Observe is an exchange.Snapshot callback.
func (p *streamPrinter) Observe(result domain.ExchangeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A terminal snapshot may replace the accumulated list with a
	// shorter authoritative one.
	if p.tools > len(result.ToolCalls) {
		p.tools = len(result.ToolCalls)
	}
	for _, call := range result.ToolCalls[p.tools:] {
		if p.printed > 0 {
			// Preliminary text is superseded once a tool runs.
			fmt.Fprintln(p.out)
			p.printed = 0
		}
		fmt.Fprintf(p.errOut, "[tool: %s]\n", call.Name)
	}
	p.tools = len(result.ToolCalls)

	if len(result.Text) < p.printed {
		p.printed = 0
	}
	if len(result.Text) > p.printed {
		fmt.Fprint(p.out, result.Text[p.printed:])
		p.printed = len(result.Text)
	}
}

// Finish closes the streamed output once the exchange is over.
func (p *streamPrinter) Finish(result domain.ExchangeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.printed > 0 {
		fmt.Fprintln(p.out)
	}
	if result.Status == domain.StatusError && result.ErrorMessage != "" {
		fmt.Fprintf(p.errOut, "error: %s\n", result.ErrorMessage)
	}
}

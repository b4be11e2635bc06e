package protocol

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/soyeahso/blitz/internal/domain"
)

// Encode writes one event as a "data: " framed record to w. Used by the
// relay when re-emitting a decoded stream to downstream clients.
func Encode(w io.Writer, ev domain.Event) error {
	we, err := toWire(ev)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(we)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s%s\n\n", dataPrefix, payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func toWire(ev domain.Event) (wireEvent, error) {
	switch ev.Type {
	case domain.EventToken:
		return wireEvent{Type: "token", Content: ev.Content}, nil

	case domain.EventToolCall:
		if ev.Tool == nil {
			return wireEvent{}, fmt.Errorf("tool_call event without tool")
		}
		wt, err := toWireTool(*ev.Tool)
		if err != nil {
			return wireEvent{}, err
		}
		return wireEvent{Type: "tool_call", Tool: &wt}, nil

	case domain.EventDone:
		we := wireEvent{Type: "done", TraceID: ev.TraceID, SessionID: ev.SessionID}
		for _, inv := range ev.ToolCalls {
			wt, err := toWireTool(inv)
			if err != nil {
				return wireEvent{}, err
			}
			we.ToolCalls = append(we.ToolCalls, wt)
		}
		return we, nil

	case domain.EventError:
		return wireEvent{Type: "error", Error: ev.Message}, nil

	default:
		return wireEvent{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
}

func toWireTool(inv domain.ToolInvocation) (wireTool, error) {
	wt := wireTool{Name: inv.Name}
	switch {
	case inv.Arguments.Invalid:
		raw, err := json.Marshal(inv.Arguments.Raw)
		if err != nil {
			return wireTool{}, fmt.Errorf("encode raw arguments: %w", err)
		}
		wt.Arguments = raw
	case inv.Arguments.Fields != nil:
		raw, err := json.Marshal(inv.Arguments.Fields)
		if err != nil {
			return wireTool{}, fmt.Errorf("encode arguments: %w", err)
		}
		wt.Arguments = raw
	}
	return wt, nil
}

package protocol

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/soyeahso/blitz/internal/domain"
)

const dataPrefix = "data: "

// DecodeChunk consumes one transport chunk against the carried-over
// buffer and returns the events completed by it plus the new remainder.
// Chunks may split a record anywhere or pack several records together;
// only complete lines are decoded. Lines that do not carry the "data: "
// prefix, records with an unknown type, and records that fail to parse
// are skipped.
func DecodeChunk(buf, chunk []byte) ([]domain.Event, []byte) {
	buf = append(buf, chunk...)

	var events []domain.Event
	for {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		line := buf[:idx]
		buf = buf[idx+1:]

		ev, ok := decodeLine(line)
		if ok {
			events = append(events, ev)
		}
	}
	return events, buf
}

func decodeLine(line []byte) (domain.Event, bool) {
	line = bytes.TrimRight(line, "\r")
	if !bytes.HasPrefix(line, []byte(dataPrefix)) {
		return domain.Event{}, false
	}
	payload := line[len(dataPrefix):]

	var we wireEvent
	if err := json.Unmarshal(payload, &we); err != nil {
		return domain.Event{}, false
	}

	switch we.Type {
	case "token":
		return domain.Event{Type: domain.EventToken, Content: we.Content}, true

	case "tool_call":
		if we.Tool == nil || we.Tool.name() == "" {
			return domain.Event{}, false
		}
		return domain.Event{
			Type: domain.EventToolCall,
			Tool: &domain.ToolInvocation{
				Name:      we.Tool.name(),
				Arguments: parseArguments(we.Tool.Arguments),
			},
		}, true

	case "done":
		ev := domain.Event{
			Type:      domain.EventDone,
			TraceID:   we.TraceID,
			SessionID: we.SessionID,
		}
		for _, wt := range we.ToolCalls {
			if wt.name() == "" {
				continue
			}
			ev.ToolCalls = append(ev.ToolCalls, domain.ToolInvocation{
				Name:      wt.name(),
				Arguments: parseArguments(wt.Arguments),
			})
		}
		return ev, true

	case "error":
		return domain.Event{Type: domain.EventError, Message: we.Error}, true

	default:
		return domain.Event{}, false
	}
}

// parseArguments decodes a tool's argument payload. Arguments arrive
// either as a JSON object or as a JSON string wrapping one; anything
// that cannot be decoded to an object is kept as a raw fallback rather
// than dropping the event.
func parseArguments(raw json.RawMessage) domain.ArgumentValue {
	if len(raw) == 0 {
		return domain.ArgumentValue{}
	}

	text := string(raw)
	if strings.HasPrefix(text, `"`) {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return domain.ArgumentValue{Raw: text, Invalid: true}
		}
		text = inner
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return domain.ArgumentValue{Raw: text, Invalid: true}
	}
	return domain.ArgumentValue{Fields: fields}
}

// Decoder wraps DecodeChunk with an internal buffer for callers that
// feed chunks as they arrive from a transport read loop.
type Decoder struct {
	buf []byte
}

// Decode feeds one chunk and returns the events it completed.
func (d *Decoder) Decode(chunk []byte) []domain.Event {
	events, rest := DecodeChunk(d.buf, chunk)
	d.buf = rest
	return events
}

// Flush decodes any complete record still sitting in the buffer
// without a trailing newline. Called once at end of stream.
func (d *Decoder) Flush() []domain.Event {
	if len(d.buf) == 0 {
		return nil
	}
	line := d.buf
	d.buf = nil
	if ev, ok := decodeLine(line); ok {
		return []domain.Event{ev}
	}
	return nil
}

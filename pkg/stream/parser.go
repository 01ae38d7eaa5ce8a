package stream

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Dialect selects which of the two wire formats the parser decodes.
type Dialect int

const (
	// DialectSimple is the interview token stream: `data: <json>` lines with
	// a `data: [DONE]` completion sentinel.
	DialectSimple Dialect = iota

	// DialectTyped is the synthesis job stream: `event: <type>` / `data: <json>`
	// paired lines, frames separated by blank lines.
	DialectTyped
)

// Kind is the type of a decoded stream event.
type Kind int

const (
	KindToken Kind = iota
	KindStatus
	KindComplete
	KindError
)

// Event is one decoded frame.
type Event struct {
	Kind    Kind
	Text    string          // token fragment (KindToken)
	Message string          // progress or error message (KindStatus, KindError)
	Payload json.RawMessage // final result object (KindComplete, typed dialect)

	// Protocol is set on KindError events generated by the parser itself
	// (malformed frame, premature end) as opposed to error events carried
	// on the wire by the upstream service.
	Protocol bool
}

// Terminal reports whether no further events can follow this one.
func (e Event) Terminal() bool {
	return e.Kind == KindComplete || e.Kind == KindError
}

// Parser decodes a newline-delimited pseudo-SSE stream incrementally.
// Chunks may split lines and frames arbitrarily; the parser buffers the
// incomplete tail and only emits events for fully received lines.
// After a terminal event the parser ignores any further input.
type Parser struct {
	dialect Dialect
	buf     []byte
	pending string // typed dialect: committed event type awaiting its data line
	done    bool
}

func NewParser(dialect Dialect) *Parser {
	return &Parser{dialect: dialect}
}

// Done reports whether a terminal event has been emitted.
func (p *Parser) Done() bool {
	return p.done
}

// Feed consumes the next raw chunk and returns the events completed by it.
func (p *Parser) Feed(chunk []byte) []Event {
	if p.done {
		return nil
	}
	p.buf = append(p.buf, chunk...)

	var events []Event
	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			break
		}
		line := string(p.buf[:idx])
		p.buf = p.buf[idx+1:]

		events = append(events, p.parseLine(line)...)
		if p.done {
			p.buf = nil
			break
		}
	}
	return events
}

// Close signals end of input. A stream that ends without a terminal frame is
// itself an error condition the caller must treat as a failed turn/job.
func (p *Parser) Close() []Event {
	if p.done {
		return nil
	}

	var events []Event
	// A final line is valid without a trailing newline.
	if len(p.buf) > 0 {
		line := string(p.buf)
		p.buf = nil
		events = append(events, p.parseLine(line)...)
	}
	if p.done {
		return events
	}

	p.done = true
	return append(events, Event{
		Kind:     KindError,
		Message:  "stream ended unexpectedly",
		Protocol: true,
	})
}

func (p *Parser) parseLine(line string) []Event {
	line = strings.TrimSuffix(line, "\r")
	if p.dialect == DialectSimple {
		return p.parseSimpleLine(line)
	}
	return p.parseTypedLine(line)
}

// tokenPayload is the JSON carried by simple-dialect data lines.
type tokenPayload struct {
	Delta string `json:"delta"`
}

func (p *Parser) parseSimpleLine(line string) []Event {
	if !strings.HasPrefix(line, "data:") {
		// Blank lines and comment/other fields are not meaningful here.
		return nil
	}
	payload := strings.TrimSpace(line[len("data:"):])

	if payload == "[DONE]" {
		p.done = true
		return []Event{{Kind: KindComplete}}
	}

	var tok tokenPayload
	if err := json.Unmarshal([]byte(payload), &tok); err != nil {
		// Token deltas are noisy; a garbled payload is skipped, not fatal.
		return nil
	}
	if tok.Delta == "" {
		return nil
	}
	return []Event{{Kind: KindToken, Text: tok.Delta}}
}

// messagePayload is the JSON carried by typed-dialect status and error frames.
type messagePayload struct {
	Message string `json:"message"`
}

func (p *Parser) parseTypedLine(line string) []Event {
	switch {
	case line == "":
		// Frame separator.
		return nil

	case strings.HasPrefix(line, "event:"):
		if p.pending != "" {
			return p.protocolError("event frame without data line")
		}
		p.pending = strings.TrimSpace(line[len("event:"):])
		return nil

	case strings.HasPrefix(line, "data:"):
		if p.pending == "" {
			return p.protocolError("data line without event type")
		}
		eventType := p.pending
		p.pending = ""
		return p.dispatchTyped(eventType, strings.TrimSpace(line[len("data:"):]))

	default:
		return p.protocolError("unrecognized frame line")
	}
}

func (p *Parser) dispatchTyped(eventType, payload string) []Event {
	switch eventType {
	case "status":
		var msg messagePayload
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			// The event line committed to structured data; a broken payload
			// here is job control corruption, not token noise.
			return p.protocolError("malformed status payload")
		}
		return []Event{{Kind: KindStatus, Message: msg.Message}}

	case "error":
		var msg messagePayload
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return p.protocolError("malformed error payload")
		}
		p.done = true
		return []Event{{Kind: KindError, Message: msg.Message}}

	case "complete":
		if !json.Valid([]byte(payload)) {
			return p.protocolError("malformed complete payload")
		}
		p.done = true
		return []Event{{Kind: KindComplete, Payload: json.RawMessage(payload)}}

	default:
		return p.protocolError("unknown event type " + eventType)
	}
}

func (p *Parser) protocolError(msg string) []Event {
	p.done = true
	return []Event{{Kind: KindError, Message: msg, Protocol: true}}
}

package stream

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func collect(p *Parser, input string, chunkSize int) []Event {
	var events []Event
	for i := 0; i < len(input); i += chunkSize {
		end := i + chunkSize
		if end > len(input) {
			end = len(input)
		}
		events = append(events, p.Feed([]byte(input[i:end]))...)
	}
	return append(events, p.Close()...)
}

func TestSimpleDialect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Event
	}{
		{
			name:  "tokens then done",
			input: "data: {\"delta\":\"Hel\"}\ndata: {\"delta\":\"lo\"}\ndata: [DONE]\n",
			want: []Event{
				{Kind: KindToken, Text: "Hel"},
				{Kind: KindToken, Text: "lo"},
				{Kind: KindComplete},
			},
		},
		{
			name:  "done without trailing newline",
			input: "data: {\"delta\":\"x\"}\ndata: [DONE]",
			want: []Event{
				{Kind: KindToken, Text: "x"},
				{Kind: KindComplete},
			},
		},
		{
			name:  "garbled json is skipped",
			input: "data: {\"delta\":\"a\"}\ndata: {not json}\ndata: {\"delta\":\"b\"}\ndata: [DONE]\n",
			want: []Event{
				{Kind: KindToken, Text: "a"},
				{Kind: KindToken, Text: "b"},
				{Kind: KindComplete},
			},
		},
		{
			name:  "missing sentinel is an error",
			input: "data: {\"delta\":\"a\"}\n",
			want: []Event{
				{Kind: KindToken, Text: "a"},
				{Kind: KindError, Message: "stream ended unexpectedly", Protocol: true},
			},
		},
		{
			name:  "non data lines ignored",
			input: ": keepalive\n\ndata: [DONE]\n",
			want: []Event{
				{Kind: KindComplete},
			},
		},
		{
			name:  "nothing after done",
			input: "data: [DONE]\ndata: {\"delta\":\"late\"}\n",
			want: []Event{
				{Kind: KindComplete},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(NewParser(DialectSimple), tt.input, len(tt.input))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("events = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTypedDialect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Event
	}{
		{
			name: "status frames then complete",
			input: "event: status\ndata: {\"message\":\"reading sources\"}\n\n" +
				"event: status\ndata: {\"message\":\"drafting\"}\n\n" +
				"event: complete\ndata: {\"title\":\"T\",\"content\":\"C\"}\n\n",
			want: []Event{
				{Kind: KindStatus, Message: "reading sources"},
				{Kind: KindStatus, Message: "drafting"},
				{Kind: KindComplete, Payload: []byte(`{"title":"T","content":"C"}`)},
			},
		},
		{
			name:  "error event terminates",
			input: "event: status\ndata: {\"message\":\"working\"}\n\nevent: error\ndata: {\"message\":\"model overloaded\"}\n\n",
			want: []Event{
				{Kind: KindStatus, Message: "working"},
				{Kind: KindError, Message: "model overloaded"},
			},
		},
		{
			name:  "malformed status payload is fatal",
			input: "event: status\ndata: {broken\n\nevent: complete\ndata: {}\n\n",
			want: []Event{
				{Kind: KindError, Message: "malformed status payload", Protocol: true},
			},
		},
		{
			name:  "data without event",
			input: "data: {\"message\":\"orphan\"}\n\n",
			want: []Event{
				{Kind: KindError, Message: "data line without event type", Protocol: true},
			},
		},
		{
			name:  "stream end without terminal frame",
			input: "event: status\ndata: {\"message\":\"one\"}\n\n",
			want: []Event{
				{Kind: KindStatus, Message: "one"},
				{Kind: KindError, Message: "stream ended unexpectedly", Protocol: true},
			},
		},
		{
			name:  "unknown event type",
			input: "event: heartbeat\ndata: {}\n\n",
			want: []Event{
				{Kind: KindError, Message: "unknown event type heartbeat", Protocol: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(NewParser(DialectTyped), tt.input, len(tt.input))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("events = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Chunk-boundary independence: any split of the input must produce the same
// event sequence as feeding it whole.
func TestChunkBoundaryIndependence(t *testing.T) {
	inputs := map[Dialect]string{
		DialectSimple: "data: {\"delta\":\"The first\"}\ndata: {\"delta\":\" answer\"}\ndata: {\"delta\":\"…\"}\ndata: [DONE]\n",
		DialectTyped: "event: status\ndata: {\"message\":\"collecting documents\"}\n\n" +
			"event: status\ndata: {\"message\":\"merging sections\"}\n\n" +
			"event: complete\ndata: {\"content\":\"# Playbook\"}\n\n",
	}

	for dialect, input := range inputs {
		whole := collect(NewParser(dialect), input, len(input))
		for chunkSize := 1; chunkSize <= len(input); chunkSize++ {
			split := collect(NewParser(dialect), input, chunkSize)
			if !reflect.DeepEqual(split, whole) {
				t.Fatalf("dialect %d chunkSize %d: events %+v, want %+v", dialect, chunkSize, split, whole)
			}
		}
	}
}

func TestConsume(t *testing.T) {
	input := "event: status\ndata: {\"message\":\"working\"}\n\nevent: complete\ndata: {\"ok\":true}\n\n"

	var got []Event
	err := Consume(context.Background(), strings.NewReader(input), DialectTyped, func(ev Event) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Kind != KindStatus || got[1].Kind != KindComplete {
		t.Errorf("unexpected event kinds: %+v", got)
	}
}

func TestConsumeDeliversPrematureEnd(t *testing.T) {
	input := "event: status\ndata: {\"message\":\"phase one\"}\n\n"

	var last Event
	err := Consume(context.Background(), strings.NewReader(input), DialectTyped, func(ev Event) error {
		last = ev
		return nil
	})
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if last.Kind != KindError || !last.Protocol {
		t.Errorf("last event = %+v, want protocol error", last)
	}
}

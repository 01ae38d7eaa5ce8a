package synthesis

import (
	"context"
	"encoding/json"
	"io"

	"ai-playbook-be/pkg/fault"
	"ai-playbook-be/pkg/llm"
	"ai-playbook-be/pkg/stream"
)

// Result is the final payload of a successful synthesis run.
type Result struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// StatusFunc receives human-readable phase messages as the backend works
// through the job (analyzing sources, drafting sections, polishing).
type StatusFunc func(message string)

// Job runs one synthesis pass against the AI backend. The request carries
// the full source set plus the ids that are new since the previous run, so
// the backend can merge rather than regenerate from scratch.
type Job struct {
	Provider llm.Provider
	Request  llm.SynthesisRequest
}

// Run opens the progress stream and consumes it to completion. Status events
// are forwarded to onStatus as they arrive; the terminal complete event is
// decoded into the Result. Wire-level error events surface as upstream
// faults, malformed streams as protocol faults. No partial result is ever
// returned: the error path yields a nil Result.
func (j *Job) Run(ctx context.Context, onStatus StatusFunc) (*Result, error) {
	body, err := j.Provider.StreamSynthesis(ctx, j.Request)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	result, err := consume(ctx, body, onStatus)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func consume(ctx context.Context, body io.Reader, onStatus StatusFunc) (*Result, error) {
	var result *Result
	var terminal error

	err := stream.Consume(ctx, body, stream.DialectTyped, func(ev stream.Event) error {
		switch ev.Kind {
		case stream.KindStatus:
			if onStatus != nil {
				onStatus(ev.Message)
			}
		case stream.KindComplete:
			var res Result
			if err := json.Unmarshal(ev.Payload, &res); err != nil {
				terminal = fault.Wrap(fault.KindStreamProtocol, err, "malformed completion payload")
				return nil
			}
			result = &res
		case stream.KindError:
			if ev.Protocol {
				terminal = fault.StreamProtocol("%s", ev.Message)
			} else {
				terminal = fault.Upstream("synthesis failed: %s", ev.Message)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if terminal != nil {
		return nil, terminal
	}
	if result == nil {
		return nil, fault.StreamProtocol("synthesis stream ended without a completion event")
	}
	return result, nil
}

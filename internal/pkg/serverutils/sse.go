package serverutils

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// SSEWriter writes server-sent events onto a streaming response body. Each
// event is flushed immediately so clients see tokens as they arrive.
type SSEWriter struct {
	w *bufio.Writer
}

// Event emits a named event with a JSON payload. An empty name emits a bare
// data event.
func (s *SSEWriter) Event(name string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if name != "" {
		fmt.Fprintf(s.w, "event: %s\n", name)
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.w.Flush()
}

// Token emits a single model token.
func (s *SSEWriter) Token(token string) {
	s.Event("", fiber.Map{"token": token})
}

// Error reports a failure in-stream. Once streaming has begun the status
// line is already sent, so this is the only way to surface errors.
func (s *SSEWriter) Error(err error) {
	s.Event("error", fiber.Map{"error": err.Error()})
}

// StreamSSE switches the response to a server-sent event stream. The
// callback runs after the headers are flushed, so it must report its own
// errors through the writer.
func StreamSSE(ctx *fiber.Ctx, fn func(sse *SSEWriter)) error {
	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		fn(&SSEWriter{w: w})
	}))
	return nil
}

package stream

import (
	"context"
	"io"
)

const readChunkSize = 4096

// Consume reads r to completion, feeding the parser and invoking fn for every
// decoded event, the terminal one included. It returns the first error from
// fn, a read error, or nil once a terminal event has been delivered. When the
// reader is exhausted without a terminal frame, the parser's "stream ended
// unexpectedly" error event is delivered like any other.
func Consume(ctx context.Context, r io.Reader, dialect Dialect, fn func(Event) error) error {
	p := NewParser(dialect)
	buf := make([]byte, readChunkSize)

	deliver := func(events []Event) (bool, error) {
		for _, ev := range events {
			if err := fn(ev); err != nil {
				return true, err
			}
			if ev.Terminal() {
				return true, nil
			}
		}
		return false, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf)
		if n > 0 {
			if stop, ferr := deliver(p.Feed(buf[:n])); stop {
				return ferr
			}
		}
		if err == io.EOF {
			_, ferr := deliver(p.Close())
			return ferr
		}
		if err != nil {
			return err
		}
	}
}

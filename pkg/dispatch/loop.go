package dispatch

import (
	"bufio"
	"bytes"
	"context"
	"io"
)

// DefaultMaxLine bounds input lines when no limit is configured.
const DefaultMaxLine = bufio.MaxScanTokenSize

// ScanLines calls fn for every line of r, stripped of its "\n" or "\r\n"
// terminator, until r is exhausted or fn returns false. A final line without
// a terminator is delivered too.
//
// Lines longer than maxLine bytes are read to their end and discarded without
// being buffered whole; tooLong, if non-nil, receives the discarded size and
// may stop the scan by returning false. A non-positive maxLine selects
// DefaultMaxLine.
func ScanLines(r io.Reader, maxLine int, fn func(line string) bool, tooLong func(size int) bool) error {
	if maxLine <= 0 {
		maxLine = DefaultMaxLine
	}
	br := bufio.NewReaderSize(r, min(maxLine, 64*1024))

	var (
		buf     []byte
		size    int
		dropped bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		size += len(chunk)
		if !dropped {
			// Room for a "\r\n" terminator on top of maxLine.
			if len(buf)+len(chunk) > maxLine+2 {
				dropped, buf = true, buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil && err != io.EOF {
			return err
		}
		if err == io.EOF && size == 0 {
			return nil
		}

		line := trimEOL(buf)
		if !dropped && len(line) > maxLine {
			dropped = true
		}
		keepGoing := true
		switch {
		case dropped && tooLong != nil:
			eol := len(chunk) - len(trimEOL(chunk))
			keepGoing = tooLong(size - eol)
		case !dropped:
			keepGoing = fn(string(line))
		}
		if !keepGoing || err == io.EOF {
			return nil
		}
		buf, size, dropped = buf[:0], 0, false
	}
}

func trimEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte{'\n'})
	return bytes.TrimSuffix(b, []byte{'\r'})
}

// Loop drives a Dispatcher from a line source and an event channel on a
// single goroutine. Only the line reader runs concurrently, and it merely
// hands lines over.
type Loop struct {
	D *Dispatcher
	// MaxLine bounds a single input line; longer lines are dropped and
	// reported through [Dispatcher.OnOversized].
	MaxLine int
}

// input is one unit read by the line reader: a line, or the size of a line
// that was discarded for exceeding the limit.
type input struct {
	line      string
	oversized int
}

// Run reads lines from r and events from events until r is exhausted, ctx is
// done, or the reader fails. A nil events channel is never selected. Run
// returns nil on end of input.
func (l *Loop) Run(ctx context.Context, r io.Reader, events <-chan Event) error {
	limit := l.MaxLine
	if limit <= 0 {
		limit = DefaultMaxLine
	}

	inputs := make(chan input)
	done := make(chan error, 1)
	send := func(in input) bool {
		select {
		case inputs <- in:
			return true
		case <-ctx.Done():
			return false
		}
	}
	go func() {
		done <- ScanLines(r, limit,
			func(line string) bool { return send(input{line: line}) },
			func(size int) bool { return send(input{oversized: size}) },
		)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-inputs:
			if in.oversized > 0 {
				_ = l.D.OnOversized(ctx, in.oversized, limit)
				continue
			}
			_ = l.D.OnLine(ctx, in.line)
		case ev := <-events:
			_ = l.D.Handle(ctx, ev)
		case err := <-done:
			// Sends on inputs are unbuffered, so every scanned line has
			// already been handled.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

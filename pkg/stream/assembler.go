// Package stream implements the incremental side of the preview pipeline:
// an Assembler that accumulates raw Markdown and decides when the buffer is
// safe to re-render, and a latest-value-wins Channel that hands finished
// snapshots to the display layer.
package stream

import (
	"bytes"
	"time"
	"unicode/utf8"
)

// Decision is the outcome of feeding the Assembler: either the buffer sits
// at a safe boundary and should be re-rendered now, or rendering must wait
// for more input.
type Decision int

const (
	// Defer withholds re-rendering; the buffer ends inside an open
	// multi-line construct or no boundary-completing newline has arrived.
	Defer Decision = iota
	// Flush requests a re-render of the full buffer.
	Flush
)

func (d Decision) String() string {
	if d == Flush {
		return "flush"
	}
	return "defer"
}

// Assembler owns the growing raw-text buffer for one input stream. It
// repairs invalid UTF-8, tracks open-construct state line by line, and
// returns a Decision per ingested chunk. An Assembler has a single owner;
// it is not safe for concurrent use.
type Assembler struct {
	buf     bytes.Buffer
	pending []byte // incomplete trailing UTF-8 sequence held for the next chunk
	scanned int    // offset of the first byte not yet covered by a complete line

	state boundary

	sawNewline bool // a newline completed since the last flush
	idle       time.Duration
	lastFlush  time.Time
	now        func() time.Time
}

// NewAssembler creates an Assembler. idle is the optional period after which
// a top-level buffer flushes even without a fresh newline; zero disables
// idle flushing.
func NewAssembler(idle time.Duration) *Assembler {
	a := &Assembler{idle: idle, now: time.Now}
	a.lastFlush = a.now()
	return a
}

// Ingest appends chunk to the buffer and reports whether the buffer should
// be re-rendered now. Invalid UTF-8 bytes are replaced with U+FFFD; a
// multi-byte rune split across chunks is held back until it completes, so a
// chunk boundary inside a rune never corrupts the buffer.
func (a *Assembler) Ingest(chunk []byte) Decision {
	if len(chunk) > 0 {
		if a.appendRepaired(chunk) {
			a.sawNewline = true
		}
		a.scan()
	}
	return a.decide()
}

// Finalize marks end of stream and always returns Flush. Any held-back
// partial rune becomes a replacement character, and open constructs are left
// for the renderer to close best-effort at end of input.
func (a *Assembler) Finalize() Decision {
	if len(a.pending) > 0 {
		a.buf.WriteRune(utf8.RuneError)
		a.pending = nil
	}
	a.scan()
	a.sawNewline = false
	a.lastFlush = a.now()
	return Flush
}

// Buffer returns the accumulated text. The result is the exact input the
// renderer should be handed on a flush.
func (a *Assembler) Buffer() string {
	return a.buf.String()
}

// Len returns the accumulated buffer length in bytes.
func (a *Assembler) Len() int {
	return a.buf.Len()
}

// Reset discards all accumulated state, replacing the buffer wholesale.
// Used when a new document is opened on the same pipeline.
func (a *Assembler) Reset() {
	a.buf.Reset()
	a.pending = nil
	a.scanned = 0
	a.state = boundary{}
	a.sawNewline = false
	a.lastFlush = a.now()
}

// AtBoundary reports whether the buffer currently ends outside every
// multi-line construct.
func (a *Assembler) AtBoundary() bool {
	return !a.state.open()
}

func (a *Assembler) decide() Decision {
	if a.state.open() {
		return Defer
	}
	idleElapsed := a.idle > 0 && a.now().Sub(a.lastFlush) >= a.idle
	if a.sawNewline || idleElapsed {
		a.sawNewline = false
		a.lastFlush = a.now()
		return Flush
	}
	return Defer
}

// appendRepaired writes chunk into the buffer, substituting U+FFFD for
// invalid bytes and holding back an incomplete trailing sequence. Reports
// whether a newline was appended.
func (a *Assembler) appendRepaired(chunk []byte) bool {
	data := make([]byte, 0, len(a.pending)+len(chunk))
	data = append(data, a.pending...)
	data = append(data, chunk...)
	a.pending = nil

	newline := false
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			if !utf8.FullRune(data[i:]) {
				// Truncated sequence at the end; the next chunk may complete it.
				a.pending = append([]byte(nil), data[i:]...)
				break
			}
			a.buf.WriteRune(utf8.RuneError)
			i++
			continue
		}
		a.buf.Write(data[i : i+size])
		if r == '\n' {
			newline = true
		}
		i += size
	}
	return newline
}

// scan advances boundary state over every newly completed line. Each byte is
// visited once across the life of the stream; the open-construct markers in
// the boundary struct are the look-back context that keeps the incremental
// result identical to a full re-scan.
func (a *Assembler) scan() {
	data := a.buf.Bytes()
	for {
		idx := bytes.IndexByte(data[a.scanned:], '\n')
		if idx < 0 {
			return
		}
		a.state.processLine(string(data[a.scanned : a.scanned+idx]))
		a.scanned += idx + 1
	}
}

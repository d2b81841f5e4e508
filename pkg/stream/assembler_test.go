package stream_test

import (
	"strings"
	"testing"

	"github.com/yaklabco/gomdview/pkg/stream"
)

func TestIngestFenceAcrossChunks(t *testing.T) {
	t.Parallel()

	a := stream.NewAssembler(0)

	if d := a.Ingest([]byte("```\ncode\n")); d != stream.Defer {
		t.Errorf("after open fence chunk: decision = %v, want defer", d)
	}
	if d := a.Ingest([]byte("```\n")); d != stream.Flush {
		t.Errorf("after closing fence chunk: decision = %v, want flush", d)
	}
	if got := a.Buffer(); got != "```\ncode\n```\n" {
		t.Errorf("Buffer() = %q", got)
	}
}

func TestIngestCompleteLineFlushes(t *testing.T) {
	t.Parallel()

	a := stream.NewAssembler(0)
	if d := a.Ingest([]byte("# Title\n")); d != stream.Flush {
		t.Errorf("decision = %v, want flush", d)
	}
}

func TestIngestMidLineDefers(t *testing.T) {
	t.Parallel()

	a := stream.NewAssembler(0)
	if d := a.Ingest([]byte("# Titl")); d != stream.Defer {
		t.Errorf("mid-line: decision = %v, want defer", d)
	}
	if d := a.Ingest([]byte("e\n")); d != stream.Flush {
		t.Errorf("line completed: decision = %v, want flush", d)
	}
	if got := a.Buffer(); got != "# Title\n" {
		t.Errorf("Buffer() = %q", got)
	}
}

func TestIngestSingleChunkOpensAndClosesFence(t *testing.T) {
	t.Parallel()

	a := stream.NewAssembler(0)
	if d := a.Ingest([]byte("```go\nx := 1\n```\n")); d != stream.Flush {
		t.Errorf("net-closed fence: decision = %v, want flush", d)
	}
	if !a.AtBoundary() {
		t.Error("AtBoundary() = false after closed fence")
	}
}

func TestIngestFenceInterruptsTable(t *testing.T) {
	t.Parallel()

	a := stream.NewAssembler(0)

	if d := a.Ingest([]byte("| a | b |\n| - | - |\n")); d != stream.Defer {
		t.Errorf("open table: decision = %v, want defer", d)
	}
	// A fence opener ends the table; once the fence closes the buffer is back
	// at a top-level boundary and must flush without waiting for a blank line.
	if d := a.Ingest([]byte("```\ncode\n```\n")); d != stream.Flush {
		t.Errorf("after closed fence following a table: decision = %v, want flush", d)
	}
	if !a.AtBoundary() {
		t.Error("AtBoundary() = false after closed fence")
	}

	// Same interruption for a raw HTML opener.
	b := stream.NewAssembler(0)
	b.Ingest([]byte("| a | b |\n"))
	if d := b.Ingest([]byte("<!-- note -->\nnext\n")); d != stream.Flush {
		t.Errorf("after same-line comment following a table: decision = %v, want flush", d)
	}
}

func TestIngestOpenConstructsDefer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opens  []string
		closes string
	}{
		{
			name:   "table rows keep table open",
			opens:  []string{"| a | b |\n", "| - | - |\n| 1 | 2 |\n"},
			closes: "\n",
		},
		{
			name:   "div block until blank line",
			opens:  []string{"<div>\n", "content\n"},
			closes: "\n",
		},
		{
			name:   "comment until marker",
			opens:  []string{"<!-- hidden\n", "still hidden\n"},
			closes: "bye -->\n",
		},
		{
			name:   "script until end tag",
			opens:  []string{"<script>\n", "var x = 1;\n"},
			closes: "</script>\n",
		},
		{
			name:   "tilde fence",
			opens:  []string{"~~~\n", "text\n```\n"},
			closes: "~~~\n",
		},
		{
			name:   "long fence ignores shorter close",
			opens:  []string{"````\n", "```\n"},
			closes: "````\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := stream.NewAssembler(0)
			for _, chunk := range tt.opens {
				if d := a.Ingest([]byte(chunk)); d != stream.Defer {
					t.Fatalf("Ingest(%q) = %v, want defer while construct open", chunk, d)
				}
			}
			if d := a.Ingest([]byte(tt.closes)); d != stream.Flush {
				t.Errorf("Ingest(%q) = %v, want flush after close", tt.closes, d)
			}
		})
	}
}

func TestNoTornFenceForAnySplit(t *testing.T) {
	t.Parallel()

	doc := "before\n\n```go\ncode line one\ncode line two\n```\n\nafter\n"

	// Independent oracle: does the complete-line portion of prefix end
	// inside an open fence?
	insideFence := func(prefix string) bool {
		open := false
		lines := strings.Split(prefix, "\n")
		for _, line := range lines[:len(lines)-1] {
			if strings.HasPrefix(line, "```") {
				open = !open
			}
		}
		return open
	}

	for split := 1; split < len(doc); split++ {
		a := stream.NewAssembler(0)

		d1 := a.Ingest([]byte(doc[:split]))
		if d1 == stream.Flush && insideFence(doc[:split]) {
			t.Errorf("split %d: flushed inside the open fence", split)
		}
		if d2 := a.Ingest([]byte(doc[split:])); d2 != stream.Flush {
			t.Errorf("split %d: final chunk decision = %v, want flush", split, d2)
		}
		if got := a.Buffer(); got != doc {
			t.Errorf("split %d: Buffer() = %q, want original document", split, got)
		}
	}
}

func TestFinalizeAlwaysFlushes(t *testing.T) {
	t.Parallel()

	a := stream.NewAssembler(0)
	if d := a.Ingest([]byte("```\nfoo\n")); d != stream.Defer {
		t.Fatalf("decision = %v, want defer inside open fence", d)
	}
	if d := a.Finalize(); d != stream.Flush {
		t.Errorf("Finalize() = %v, want flush", d)
	}
	if got := a.Buffer(); got != "```\nfoo\n" {
		t.Errorf("Buffer() = %q", got)
	}
}

func TestIngestRepairsInvalidUTF8(t *testing.T) {
	t.Parallel()

	a := stream.NewAssembler(0)
	a.Ingest([]byte{0xFF})
	a.Ingest([]byte("ok\n"))

	if got := a.Buffer(); got != "�ok\n" {
		t.Errorf("Buffer() = %q, want replacement rune then content", got)
	}
}

func TestIngestRuneSplitAcrossChunks(t *testing.T) {
	t.Parallel()

	// "é" is 0xC3 0xA9; split it between two chunks.
	a := stream.NewAssembler(0)
	a.Ingest([]byte{'a', 0xC3})
	a.Ingest([]byte{0xA9, '\n'})

	if got := a.Buffer(); got != "aé\n" {
		t.Errorf("Buffer() = %q, want rune reassembled across chunks", got)
	}
}

func TestFinalizeReplacesDanglingPartialRune(t *testing.T) {
	t.Parallel()

	a := stream.NewAssembler(0)
	a.Ingest([]byte{'x', 0xE4, 0xB8}) // truncated 3-byte sequence
	a.Finalize()

	if got := a.Buffer(); got != "x�" {
		t.Errorf("Buffer() = %q, want truncated rune replaced at end of stream", got)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	a := stream.NewAssembler(0)
	a.Ingest([]byte("```\nstuck\n"))
	a.Reset()

	if a.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", a.Len())
	}
	if d := a.Ingest([]byte("fresh\n")); d != stream.Flush {
		t.Errorf("decision after Reset = %v, want flush", d)
	}
}

func TestIncrementalMatchesFullScan(t *testing.T) {
	t.Parallel()

	doc := "# Head\n\n| a |\n| - |\n\n```mermaid\ngraph\n```\n<div>\nraw\n\ntail\n"

	// Byte-at-a-time ingestion must land in the same terminal state as a
	// single-chunk scan.
	whole := stream.NewAssembler(0)
	whole.Ingest([]byte(doc))

	bytewise := stream.NewAssembler(0)
	for i := 0; i < len(doc); i++ {
		bytewise.Ingest([]byte{doc[i]})
	}

	if whole.AtBoundary() != bytewise.AtBoundary() {
		t.Errorf("boundary state diverged: whole=%v bytewise=%v",
			whole.AtBoundary(), bytewise.AtBoundary())
	}
	if whole.Buffer() != bytewise.Buffer() {
		t.Error("buffers diverged between whole and bytewise ingestion")
	}
}

package stream_test

import (
	"sync"
	"testing"

	"github.com/yaklabco/gomdview/pkg/stream"
)

func TestChannelLatestWins(t *testing.T) {
	t.Parallel()

	ch := stream.NewChannel()

	if _, ok := ch.Latest(); ok {
		t.Error("Latest() on empty channel reported a snapshot")
	}

	for _, html := range []string{"<p>1</p>", "<p>2</p>", "<p>3</p>"} {
		if _, ok := ch.Publish(stream.Snapshot{HTML: html}); !ok {
			t.Fatalf("Publish(%q) rejected", html)
		}
	}

	snap, ok := ch.Latest()
	if !ok {
		t.Fatal("Latest() reported no snapshot after publishes")
	}
	if snap.HTML != "<p>3</p>" {
		t.Errorf("Latest().HTML = %q, want newest value", snap.HTML)
	}
	if snap.Seq != 3 {
		t.Errorf("Latest().Seq = %d, want 3", snap.Seq)
	}
}

func TestChannelSequenceStrictlyIncreasing(t *testing.T) {
	t.Parallel()

	ch := stream.NewChannel()

	var last uint64
	for i := 0; i < 10; i++ {
		snap, ok := ch.Publish(stream.Snapshot{HTML: "x"})
		if !ok {
			t.Fatal("Publish rejected")
		}
		if snap.Seq <= last {
			t.Fatalf("sequence not strictly increasing: %d after %d", snap.Seq, last)
		}
		last = snap.Seq
	}

	// Repeated polling without new input never observes a decrease.
	first, _ := ch.Latest()
	second, _ := ch.Latest()
	if second.Seq < first.Seq {
		t.Errorf("Latest() went backwards: %d then %d", first.Seq, second.Seq)
	}
}

func TestChannelPublishNeverBlocks(t *testing.T) {
	t.Parallel()

	ch := stream.NewChannel()

	// No consumer drains Changed(); publishing must still complete.
	for i := 0; i < 100; i++ {
		if _, ok := ch.Publish(stream.Snapshot{HTML: "x"}); !ok {
			t.Fatalf("Publish %d rejected", i)
		}
	}

	snap, _ := ch.Latest()
	if snap.Seq != 100 {
		t.Errorf("Seq = %d, want 100", snap.Seq)
	}
}

func TestChannelChangedCoalesces(t *testing.T) {
	t.Parallel()

	ch := stream.NewChannel()
	ch.Publish(stream.Snapshot{HTML: "a"})
	ch.Publish(stream.Snapshot{HTML: "b"})

	<-ch.Changed()
	snap, _ := ch.Latest()
	if snap.HTML != "b" {
		t.Errorf("after signal, Latest().HTML = %q, want newest", snap.HTML)
	}

	select {
	case _, open := <-ch.Changed():
		if open {
			t.Error("second signal pending, want coalesced notification")
		}
	default:
	}
}

func TestChannelClose(t *testing.T) {
	t.Parallel()

	ch := stream.NewChannel()
	ch.Publish(stream.Snapshot{HTML: "kept"})
	<-ch.Changed() // drain the pending signal

	ch.Close()
	ch.Close() // idempotent

	if _, ok := ch.Publish(stream.Snapshot{HTML: "dropped"}); ok {
		t.Error("Publish after Close succeeded")
	}

	snap, ok := ch.Latest()
	if !ok || snap.HTML != "kept" {
		t.Errorf("Latest() after Close = %+v, want pre-close snapshot", snap)
	}

	if _, open := <-ch.Changed(); open {
		t.Error("Changed() still open after Close")
	}
}

func TestChannelPublishDuringClose(t *testing.T) {
	t.Parallel()

	// A producer finishing an in-flight render while the display tears down
	// must land as a dropped publish, never a send on a closed channel.
	for i := 0; i < 200; i++ {
		ch := stream.NewChannel()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, ok := ch.Publish(stream.Snapshot{HTML: "x"}); !ok {
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			ch.Close()
		}()
		wg.Wait()

		if _, ok := ch.Publish(stream.Snapshot{HTML: "late"}); ok {
			t.Fatal("Publish after Close succeeded")
		}
	}
}

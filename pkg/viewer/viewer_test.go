package viewer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/yaklabco/gomdview/pkg/config"
	"github.com/yaklabco/gomdview/pkg/stream"
	"github.com/yaklabco/gomdview/pkg/viewer"
)

const sampleDoc = "# Title\n\nSome *text* with a list:\n\n- one\n- two\n\n```go\nfunc main() {}\n```\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"

// noIdle disables idle flushing so tests only see newline-driven publishes.
func noIdle() *config.Config {
	cfg := config.Default()
	cfg.IdleFlush = 0
	return cfg
}

func TestStreamPublishesFinalDocument(t *testing.T) {
	t.Parallel()

	ch := stream.NewChannel()
	v := viewer.New(viewer.Options{Config: noIdle(), Channel: ch})

	if err := v.Stream(context.Background(), strings.NewReader(sampleDoc)); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	snap, has := ch.Latest()
	if !has {
		t.Fatal("no snapshot published")
	}
	if !strings.Contains(snap.HTML, "<h1 id=\"title\">Title</h1>") {
		t.Error("missing rendered heading")
	}
	if !strings.Contains(snap.HTML, "<table>") {
		t.Error("missing rendered table")
	}
	if !strings.Contains(snap.HTML, "<!DOCTYPE html>") {
		t.Error("snapshot is not a complete document")
	}
}

func TestStreamReplayIdempotence(t *testing.T) {
	t.Parallel()

	// The final document must not depend on how the input was chunked.
	oneShot := stream.NewChannel()
	v := viewer.New(viewer.Options{Config: noIdle(), Channel: oneShot})
	if err := v.Stream(context.Background(), bytes.NewReader([]byte(sampleDoc))); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	byteWise := stream.NewChannel()
	v2 := viewer.New(viewer.Options{Config: noIdle(), Channel: byteWise})
	if err := v2.Stream(context.Background(), iotest.OneByteReader(strings.NewReader(sampleDoc))); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	want, _ := oneShot.Latest()
	got, _ := byteWise.Latest()
	if got.HTML != want.HTML {
		t.Error("byte-wise delivery produced a different final document")
	}
	if got.Seq < want.Seq {
		t.Error("byte-wise delivery should publish at least as many snapshots")
	}
}

func TestStreamSequenceIncreases(t *testing.T) {
	t.Parallel()

	ch := stream.NewChannel()
	v := viewer.New(viewer.Options{Config: noIdle(), Channel: ch})

	if err := v.Stream(context.Background(), strings.NewReader(sampleDoc)); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	snap, _ := ch.Latest()
	if snap.Seq < 2 {
		t.Errorf("expected multiple publishes for multi-line input, got seq %d", snap.Seq)
	}
}

func TestStreamCancelledPublishesNothing(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := stream.NewChannel()
	v := viewer.New(viewer.Options{Config: noIdle(), Channel: ch})

	err := v.Stream(ctx, strings.NewReader(sampleDoc))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Stream() error = %v, want context.Canceled", err)
	}
	if _, has := ch.Latest(); has {
		t.Error("cancelled stream must not publish")
	}
}

func TestStreamLostPublishesBestEffort(t *testing.T) {
	t.Parallel()

	broken := io.MultiReader(
		strings.NewReader("# Partial\n\ncontent\n"),
		iotest.ErrReader(errors.New("pipe burst")),
	)

	ch := stream.NewChannel()
	v := viewer.New(viewer.Options{Config: noIdle(), Channel: ch})

	err := v.Stream(context.Background(), broken)
	if !errors.Is(err, viewer.ErrStreamLost) {
		t.Fatalf("Stream() error = %v, want ErrStreamLost", err)
	}

	snap, has := ch.Latest()
	if !has {
		t.Fatal("expected a best-effort final snapshot")
	}
	if !strings.Contains(snap.HTML, "Partial") {
		t.Error("final snapshot missing content read before the failure")
	}
}

func TestViewFileUsesBaseName(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("# Notes\n"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	ch := stream.NewChannel()
	v := viewer.New(viewer.Options{Config: noIdle(), Channel: ch})

	if err := v.ViewFile(context.Background(), path); err != nil {
		t.Fatalf("ViewFile() error = %v", err)
	}

	snap, has := ch.Latest()
	if !has {
		t.Fatal("no snapshot published")
	}
	if snap.Title != "notes.md" {
		t.Errorf("title = %q, want %q", snap.Title, "notes.md")
	}
	if snap.Seq != 1 {
		t.Errorf("expected exactly one publish, got seq %d", snap.Seq)
	}
}

func TestViewFileMissing(t *testing.T) {
	t.Parallel()

	ch := stream.NewChannel()
	v := viewer.New(viewer.Options{Config: noIdle(), Channel: ch})

	if err := v.ViewFile(context.Background(), filepath.Join(t.TempDir(), "absent.md")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSourceModePublishesRawSource(t *testing.T) {
	t.Parallel()

	cfg := noIdle()
	cfg.Mode = config.ModeSource

	ch := stream.NewChannel()
	v := viewer.New(viewer.Options{Config: cfg, Channel: ch, Title: "raw"})

	if err := v.Stream(context.Background(), strings.NewReader("# Heading\n")); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	snap, _ := ch.Latest()
	if strings.Contains(snap.HTML, "<h1") {
		t.Error("source mode must not render markdown structure")
	}
	if !strings.Contains(snap.Title, "raw") {
		t.Errorf("title = %q", snap.Title)
	}
}

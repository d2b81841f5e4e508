// Package viewer drives the streaming preview pipeline: it reads raw bytes
// from an input source, feeds the stream assembler, re-renders the buffer on
// every safe boundary, and publishes complete HTML documents to the content
// channel. The viewer is the single producer; the display consumer polls the
// channel on its own schedule and never blocks it.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gomdview/internal/logging"
	"github.com/yaklabco/gomdview/pkg/config"
	"github.com/yaklabco/gomdview/pkg/page"
	"github.com/yaklabco/gomdview/pkg/render"
	"github.com/yaklabco/gomdview/pkg/stream"
	"github.com/yaklabco/gomdview/pkg/transform"
)

// chunkSize is the read granularity for piped input.
const chunkSize = 1024

// ErrStreamLost marks an input source that failed before end of stream. The
// pipeline still publishes a best-effort final snapshot before returning it.
var ErrStreamLost = errors.New("input stream lost")

// Options configures a Viewer.
type Options struct {
	// Config is the resolved session configuration. Nil means defaults.
	Config *config.Config

	// Registry supplies block transforms. Nil means the built-ins.
	Registry *transform.Registry

	// Channel receives published snapshots. Required.
	Channel *stream.Channel

	// Title overrides the document title. Empty means "Piped Input" for
	// streams and the base file name for files.
	Title string
}

// Viewer owns the assembler and renderer for one input source. It has a
// single owner goroutine; only the published snapshots are shared.
type Viewer struct {
	cfg      *config.Config
	asm      *stream.Assembler
	renderer *render.Renderer
	ch       *stream.Channel
	assets   transform.Assets
	title    string
}

// New creates a Viewer. The transform registry must already be frozen.
func New(opts Options) *Viewer {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = transform.NewDefaultRegistry()
	}

	return &Viewer{
		cfg: cfg,
		asm: stream.NewAssembler(time.Duration(cfg.IdleFlush)),
		renderer: render.New(render.Options{
			Flavor:         string(cfg.Flavor),
			HighlightStyle: cfg.HighlightStyle,
			Registry:       registry,
			DetectLanguage: cfg.DetectLanguage,
			Sanitize:       cfg.Sanitize,
		}),
		ch:     opts.Channel,
		assets: registry.CollectAssets(),
		title:  opts.Title,
	}
}

// Stream reads r in chunks until end of stream, publishing a snapshot at
// every safe boundary. On EOF the buffer is flushed one last time and Stream
// returns nil. A read failure other than EOF publishes a best-effort final
// snapshot and returns ErrStreamLost. Cancelling ctx stops reading; an
// in-flight render finishes but is not published.
func (v *Viewer) Stream(ctx context.Context, r io.Reader) error {
	logger := logging.FromContext(ctx)
	buf := make([]byte, chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stream cancelled: %w", err)
		}

		n, err := r.Read(buf)
		if n > 0 {
			if v.asm.Ingest(buf[:n]) == stream.Flush {
				v.publish(ctx, logger)
			}
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			v.asm.Finalize()
			v.publish(ctx, logger)
			return nil
		default:
			// Abrupt loss of the input source: render what we have, then
			// surface the loss once.
			v.asm.Finalize()
			v.publish(ctx, logger)
			return fmt.Errorf("%w: %w", ErrStreamLost, err)
		}
	}
}

// ViewFile reads an entire file and publishes a single snapshot, titling it
// after the file name.
func (v *Viewer) ViewFile(ctx context.Context, path string) error {
	logger := logging.FromContext(ctx)

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	if v.title == "" {
		v.title = filepath.Base(path)
	}

	v.asm.Reset()
	v.asm.Ingest(content)
	v.asm.Finalize()
	v.publish(ctx, logger)
	return nil
}

// publish renders the current buffer into a complete document and hands it
// to the channel. After cancellation the render may complete but nothing is
// published.
func (v *Viewer) publish(ctx context.Context, logger *log.Logger) {
	if ctx.Err() != nil {
		return
	}

	text := v.asm.Buffer()
	pageOpts := page.Options{
		Title:          v.title,
		Theme:          page.Theme(v.cfg.Theme),
		Assets:         v.assets,
		HighlightStyle: v.cfg.HighlightStyle,
	}

	var doc string
	var warnings []render.Warning
	if v.cfg.Mode == config.ModeSource {
		doc = page.BuildSource(text, pageOpts)
	} else {
		var body string
		body, warnings = v.renderer.Render(text)
		doc = page.Build(body, pageOpts)
	}

	if ctx.Err() != nil {
		return
	}

	snap, ok := v.ch.Publish(stream.Snapshot{
		HTML:     doc,
		Title:    v.title,
		Warnings: warnings,
	})
	if !ok {
		return
	}
	logger.Debug("published snapshot",
		logging.FieldSeq, snap.Seq,
		logging.FieldBytes, len(doc),
		logging.FieldWarnings, len(warnings),
	)
}

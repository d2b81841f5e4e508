package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yaklabco/gomdview/internal/configloader"
	"github.com/yaklabco/gomdview/internal/httpview"
	"github.com/yaklabco/gomdview/internal/logging"
	"github.com/yaklabco/gomdview/internal/ui/pretty"
	"github.com/yaklabco/gomdview/pkg/config"
	"github.com/yaklabco/gomdview/pkg/fsutil"
	"github.com/yaklabco/gomdview/pkg/stream"
	"github.com/yaklabco/gomdview/pkg/viewer"
)

type viewFlags struct {
	theme          string
	mode           string
	flavor         string
	highlightStyle string
	idleFlush      time.Duration
	sanitize       bool
	detectLanguage bool
	serve          string
	output         string
	title          string
}

func addViewFlags(cmd *cobra.Command, flags *viewFlags) {
	cmd.Flags().StringVar(&flags.theme, "theme", "", "page theme: light, dark, system")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "view mode: preview, source")
	cmd.Flags().StringVar(&flags.flavor, "flavor", "", "markdown flavor: gfm, commonmark")
	cmd.Flags().StringVar(&flags.highlightStyle, "highlight-style", "", "chroma style for code blocks")
	cmd.Flags().DurationVar(&flags.idleFlush, "idle-flush", 0,
		"re-render a quiet buffer after this long (0 disables)")
	cmd.Flags().BoolVar(&flags.sanitize, "sanitize", false, "strip raw HTML down to a safe subset")
	cmd.Flags().BoolVar(&flags.detectLanguage, "detect-language", true,
		"auto-detect the language of untagged code blocks")
	cmd.Flags().StringVar(&flags.serve, "serve", "", "serve the preview over HTTP on this address")
	cmd.Flags().StringVar(&flags.output, "output", "", "write the latest HTML document to this file")
	cmd.Flags().StringVar(&flags.title, "title", "", "override the document title")
}

// applyFlagOverrides copies explicitly set flags onto cfg. Flags the user did
// not touch leave the loaded configuration alone.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, flags *viewFlags) {
	set := cmd.Flags().Changed

	if set("theme") {
		cfg.Theme = config.Theme(flags.theme)
	}
	if set("mode") {
		cfg.Mode = config.ViewMode(flags.mode)
	}
	if set("flavor") {
		cfg.Flavor = config.Flavor(flags.flavor)
	}
	if set("highlight-style") {
		cfg.HighlightStyle = flags.highlightStyle
	}
	if set("idle-flush") {
		cfg.IdleFlush = config.Duration(flags.idleFlush)
	}
	if set("sanitize") {
		cfg.Sanitize = flags.sanitize
	}
	if set("detect-language") {
		cfg.DetectLanguage = flags.detectLanguage
	}
	cfg.Serve = flags.serve
	cfg.Output = flags.output
}

func runView(cmd *cobra.Command, args []string, flags *viewFlags, colorMode string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.Default()
	ctx = logging.WithLogger(ctx, logger)

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("get config flag: %w", err)
	}

	loadResult, err := configloader.Load(ctx, configloader.LoadOptions{ExplicitPath: configPath})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	for _, warning := range loadResult.Warnings {
		logger.Warn(warning)
	}

	cfg := loadResult.Config
	applyFlagOverrides(cmd, cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Debug("configuration resolved",
		logging.FieldTheme, cfg.Theme,
		logging.FieldFlavor, cfg.Flavor,
		logging.FieldMode, cfg.Mode,
	)

	ch := stream.NewChannel()
	v := viewer.New(viewer.Options{
		Config:  cfg,
		Channel: ch,
		Title:   flags.title,
	})

	var srv *httpview.Server
	serverErr := make(chan error, 1)
	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()
	if cfg.Serve != "" {
		srv = httpview.New(ch)
		go func() {
			serverErr <- srv.Run(serveCtx, cfg.Serve)
		}()
	}

	// Single consumer of the content channel: it mirrors each snapshot to
	// the output file and wakes browser clients.
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		consumeSnapshots(ctx, ch, cfg, srv, logger)
	}()

	runErr := produce(ctx, v, args)

	// When serving, keep the preview up after end of stream until the user
	// interrupts.
	if srv != nil && runErr == nil {
		<-ctx.Done()
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	ch.Close()
	<-consumerDone

	if srv != nil {
		stopServe()
		if err := <-serverErr; err != nil && runErr == nil {
			runErr = err
		}
	}

	reportWarnings(ch, colorMode)
	return runErr
}

// produce runs the stream pipeline to completion: a named file is rendered
// once, stdin is streamed.
func produce(ctx context.Context, v *viewer.Viewer, args []string) error {
	if len(args) == 1 {
		return v.ViewFile(ctx, args[0])
	}
	return v.Stream(ctx, os.Stdin)
}

// consumeSnapshots drains change signals until the channel closes. Signals
// coalesce, so each wake-up handles only the newest snapshot.
func consumeSnapshots(
	ctx context.Context,
	ch *stream.Channel,
	cfg *config.Config,
	srv *httpview.Server,
	logger *log.Logger,
) {
	for range ch.Changed() {
		snap, has := ch.Latest()
		if !has {
			continue
		}

		if cfg.Output != "" {
			written, err := fsutil.WriteAtomicIfChanged(ctx, cfg.Output, []byte(snap.HTML), 0)
			if err != nil {
				logger.Error("write output",
					logging.FieldPath, cfg.Output,
					logging.FieldError, err,
				)
			} else if written {
				logger.Debug("wrote output",
					logging.FieldPath, cfg.Output,
					logging.FieldSeq, snap.Seq,
				)
			}
		}

		if srv != nil {
			srv.Broadcast(snap.Seq)
		}
	}
}

// reportWarnings prints the final snapshot's render warnings to stderr.
func reportWarnings(ch *stream.Channel, colorMode string) {
	snap, has := ch.Latest()
	if !has || len(snap.Warnings) == 0 {
		return
	}

	styles := pretty.NewStyles(pretty.IsColorEnabled(colorMode, os.Stderr))
	width := pretty.TerminalWidth(os.Stderr)
	_, _ = fmt.Fprint(os.Stderr, styles.FormatWarnings(snap.Title, snap.Warnings, width))
}

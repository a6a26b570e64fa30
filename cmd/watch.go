package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leonardomso/nopreview/internal/inbox"
	"github.com/leonardomso/nopreview/internal/note"
	"github.com/leonardomso/nopreview/internal/notify"
	"github.com/leonardomso/nopreview/internal/pipeline"
	"github.com/leonardomso/nopreview/internal/settings"
)

// Watch command flag variables.
var (
	watchNote        string
	watchPaste       bool
	watchAttachments string
	watchRemove      bool
	watchSettle      time.Duration
	watchConcurrency int
)

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:   "watch <inbox>",
	Short: "Drop files that appear in a folder into a note",
	Long: `Watch an inbox folder. Files that appear in it are grouped into a batch
once writes settle, then dropped into the note: saved into the vault and
appended as [[links]] or ![[embeds]].

Hidden files and partial downloads (.part, .crdownload, .tmp) are ignored.
When the settings come from a file, edits to it apply to the next batch.

Examples:
  nopreview watch ~/Drop --note inbox.md
  nopreview watch ~/Scans --note scans.md --attachments ./files --remove`,
	Args: cobra.ExactArgs(1),
	Run:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchNote, "note", "N", "",
		"Note receiving the files, relative to the vault (required)")
	watchCmd.Flags().BoolVar(&watchPaste, "paste", false,
		"Dispatch batches as pastes instead of drops")
	watchCmd.Flags().StringVarP(&watchAttachments, "attachments", "a", "",
		`Attachment folder: "" for the vault root, "./x" relative to the note, "x" relative to the vault`)
	watchCmd.Flags().BoolVar(&watchRemove, "remove", false,
		"Delete files from the inbox once they are saved into the vault")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 500*time.Millisecond,
		"Quiet period before a batch is dispatched")
	watchCmd.Flags().IntVarP(&watchConcurrency, "concurrency", "c", pipeline.DefaultConcurrency,
		"Number of files saved concurrently")

	_ = watchCmd.MarkFlagRequired("note")
}

func runWatch(_ *cobra.Command, args []string) {
	logger := newLogger(logrus.InfoLevel)
	lc := loadConfigFromFlags()

	doc, err := note.Open(vaultDir, watchNote, note.End)
	exitOnError(err, "Invalid --note")

	sess, err := newSession(lc, SessionOptions{
		VaultDir:         vaultDir,
		AttachmentFolder: watchAttachments,
		Concurrency:      watchConcurrency,
		Notifier:         notify.Multi{notify.NewConsole(os.Stderr), notify.NewLog(logger)},
		Logger:           logger,
	})
	exitOnError(err, "Error opening vault")

	kind := eventKind(watchPaste)
	handle := func(ctx context.Context, paths []string) {
		outcome, intercepted := sess.dispatch(ctx, kind, paths, doc)
		s := pipeline.Summarize(outcome)
		logger.WithFields(logrus.Fields{
			"batch":       outcome.BatchID,
			"files":       len(paths),
			"linked":      s.Linked,
			"embedded":    s.Embedded,
			"failed":      s.Failed,
			"intercepted": intercepted,
		}).Info("inbox batch dropped")

		if watchRemove {
			removeStored(logger, paths, outcome)
		}
	}

	w, err := inbox.New(args[0], handle, inbox.WithSettle(watchSettle), inbox.WithLogger(logger))
	exitOnError(err, "Error opening inbox")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	if lc.Persistent() {
		sw, err := settings.NewWatcher(lc.Path(), lc.Live(), settings.WithWatchLogger(logger))
		exitOnError(err, "Error watching settings")
		g.Go(func() error {
			return sw.Run(gctx)
		})
	}

	fmt.Fprintf(os.Stderr, "Watching %s, dropping into %s. Press Ctrl+C to stop.\n", w.Dir(), doc.Path())
	exitOnError(g.Wait(), "Watch stopped")
}

// removeStored deletes the inbox files whose copy made it into the vault.
func removeStored(logger *logrus.Logger, paths []string, outcome pipeline.Outcome) {
	for _, r := range outcome.Results {
		if !r.OK() || r.Index >= len(paths) {
			continue
		}
		if err := os.Remove(paths[r.Index]); err != nil {
			logger.WithError(err).WithField("file", paths[r.Index]).Warn("could not remove inbox file")
		}
	}
}

package daemon

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/source"
)

const inboxDebounce = 500 * time.Millisecond

// watchInbox imports the inbox once at startup and again whenever an export
// file is created or written there. Imports are idempotent, so rescanning the
// whole directory on each change is safe.
func (s *Service) watchInbox(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.InboxDir, 0o750); err != nil {
		return fmt.Errorf("creating inbox: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(s.cfg.InboxDir); err != nil {
		return fmt.Errorf("watch %s: %w", s.cfg.InboxDir, err)
	}
	s.logger.Info("watching inbox", zap.String("dir", s.cfg.InboxDir))

	s.importInbox()

	// A stopped timer whose channel is drained; armed on the first change.
	timer := time.NewTimer(inboxDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !source.IsExportFile(ev.Name) {
				continue
			}
			timer.Reset(inboxDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("inbox watcher error", zap.Error(err))
		case <-timer.C:
			s.importInbox()
		}
	}
}

func (s *Service) importInbox() {
	files, err := source.ScanDir(s.cfg.InboxDir)
	if err != nil {
		s.logger.Error("scanning inbox", zap.Error(err))
		return
	}
	res, err := pipeline.Import(s.ledger, files, nil, s.logger)
	if err != nil {
		s.logger.Error("importing inbox", zap.Error(err))
		return
	}
	s.metrics.RecordImported(res.Imported)
	if res.Imported > 0 {
		s.pollOnce()
	}
}

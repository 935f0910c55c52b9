// Package watch runs unattended analyses from a drop folder: once the
// inbound and outbound exports land there, a run fires and the report
// appears in the reports directory.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jalad-shrimali/missed-calls/analysis"
	"github.com/jalad-shrimali/missed-calls/msisdn"
	"github.com/jalad-shrimali/missed-calls/table"
)

// Expected file names inside the drop folder.
const (
	InboundFile   = "inbound.xlsx"
	OutboundFile  = "outbound.xlsx"
	ReferenceFile = "catpro.xlsx"
)

// Watcher monitors a drop folder and triggers an analysis run whenever the
// required pair of exports is present.
type Watcher struct {
	dir        string
	reportsDir string
	canon      msisdn.Canonicalizer
	ops        *analysis.OperatorDB
	lang       analysis.Language
	logger     *zap.Logger
}

func New(dir, reportsDir string, canon msisdn.Canonicalizer, ops *analysis.OperatorDB, lang analysis.Language, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:        dir,
		reportsDir: reportsDir,
		canon:      canon,
		ops:        ops,
		lang:       lang,
		logger:     logger,
	}
}

// Start watches the drop folder until the context is cancelled. An initial
// sweep covers files that were already there before the watch began.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		w.sweep()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					w.sweep()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("watch error", zap.Error(err))
			}
		}
	}()
	return nil
}

// sweep checks the precondition and runs once when it holds. Inputs are
// consumed: processed files are removed so the next drop starts a fresh run.
func (w *Watcher) sweep() {
	missing := w.missingInputs()
	if len(missing) > 0 {
		w.logger.Info("waiting for input", zap.Strings("missing", missing))
		return
	}
	if err := w.runOnce(); err != nil {
		var schemaErr *table.SchemaError
		var parseErr *table.ParseError
		if errors.As(err, &schemaErr) || errors.As(err, &parseErr) {
			w.logger.Error("input rejected; fix the source file and drop it again", zap.Error(err))
			w.consumeInputs()
			return
		}
		w.logger.Error("analysis failed", zap.Error(err))
	}
}

func (w *Watcher) missingInputs() []string {
	var missing []string
	for _, name := range []string{InboundFile, OutboundFile} {
		if _, err := os.Stat(filepath.Join(w.dir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

func (w *Watcher) runOnce() error {
	inbound, err := w.readTable(InboundFile, "inbound", 0)
	if err != nil {
		return err
	}
	outbound, err := w.readTable(OutboundFile, "outbound", 0)
	if err != nil {
		return err
	}
	var reference *table.Table
	if _, err := os.Stat(filepath.Join(w.dir, ReferenceFile)); err == nil {
		reference, err = w.readTable(ReferenceFile, "reference", analysis.ReferenceHeaderRow)
		if err != nil {
			return err
		}
	}

	res, err := analysis.Run(analysis.RunRequest{
		Inbound:   inbound,
		Outbound:  outbound,
		Reference: reference,
		Canon:     w.canon,
		Operators: w.ops,
		Logger:    w.logger,
	})
	if err != nil {
		return err
	}

	rows := analysis.Assemble(res, analysis.AssembleOptions{
		Language: w.lang,
		Canon:    w.canon,
	})

	if err := os.MkdirAll(w.reportsDir, 0o755); err != nil {
		return err
	}
	name := filepath.Join(w.reportsDir, res.ID+"_missed_calls.xlsx")
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := analysis.WriteXLSX(out, rows); err != nil {
		return err
	}

	w.logger.Info("report written",
		zap.String("path", name),
		zap.Int("missed", res.Total()),
		zap.Int("not_entered", res.NotEntered))
	w.consumeInputs()
	return nil
}

func (w *Watcher) readTable(name, dataset string, headerRow int) (*table.Table, error) {
	f, err := os.Open(filepath.Join(w.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return table.ReadXLSX(f, dataset, headerRow)
}

func (w *Watcher) consumeInputs() {
	for _, name := range []string{InboundFile, OutboundFile, ReferenceFile} {
		path := filepath.Join(w.dir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			w.logger.Warn("could not remove processed input", zap.String("path", path), zap.Error(err))
		}
	}
}

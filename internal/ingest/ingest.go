// Package ingest turns raw per-source daily dumps into normalized clean
// record files and serves them back to the matcher.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/cart-monitor/internal/fetcher"
	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/tabular"
)

// Options configures where dumps are found and how they are normalized.
type Options struct {
	RawDirs  map[model.Source]string
	Globs    map[model.Source][]string
	CleanDir string
	Synonyms map[string][]string
	Required map[model.Source][]string
}

// Summary counts the outcome of an ingest run.
type Summary struct {
	Written int
	Skipped int
	Failed  int
}

// Ingester cleans raw dumps into per-source, per-day clean files.
type Ingester struct {
	opts   Options
	schema *Schema
}

// New creates an Ingester. Nil synonym or required tables fall back to the
// defaults.
func New(opts Options) *Ingester {
	if opts.Synonyms == nil {
		opts.Synonyms = DefaultSynonyms()
	}
	if opts.Required == nil {
		opts.Required = DefaultRequired()
	}
	return &Ingester{opts: opts, schema: NewSchema(opts.Synonyms, opts.Required)}
}

// provenanceColumns are written to every clean file regardless of what the
// dump carried.
var provenanceColumns = map[string]bool{"source": true, "source_file": true, "file_date": true}

// CleanPath returns the clean file path for a source and date.
func CleanPath(dir string, src model.Source, date string) string {
	return filepath.Join(dir, fmt.Sprintf("clean_%s_%s.csv", src.Tag(), date))
}

// Run cleans every dump of both sources. A file that cannot be read or
// fails validation is logged and skipped; it never aborts the run, and any
// clean file an earlier run wrote for it is removed. Existing clean files
// are kept unless force is set.
func (in *Ingester) Run(ctx context.Context, force bool) (Summary, error) {
	log := zap.L().With(zap.String("component", "ingest"))
	var sum Summary

	for _, src := range []model.Source{model.SourceA, model.SourceB} {
		files, err := in.listDumps(src)
		if err != nil {
			return sum, err
		}
		if len(files) == 0 {
			log.Warn("no dumps found", zap.String("source", string(src)), zap.String("dir", in.opts.RawDirs[src]))
			continue
		}

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return sum, eris.Wrap(err, "ingest: cancelled")
			}

			fileLog := log.With(zap.String("source", string(src)), zap.String("file", filepath.Base(path)))
			written, err := in.cleanOne(ctx, src, path, force)
			switch {
			case err != nil:
				fileLog.Error("ingest failed, file skipped", zap.Error(err))
				sum.Failed++
			case written:
				sum.Written++
			default:
				fileLog.Debug("clean file exists, skipping")
				sum.Skipped++
			}
		}
	}

	log.Info("ingest complete",
		zap.Int("written", sum.Written),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

func (in *Ingester) listDumps(src model.Source) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, glob := range in.opts.Globs[src] {
		matches, err := filepath.Glob(filepath.Join(in.opts.RawDirs[src], glob))
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: bad glob %q", glob)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func (in *Ingester) cleanOne(ctx context.Context, src model.Source, path string, force bool) (bool, error) {
	name := filepath.Base(path)
	date, ok := FileDate(name)
	if !ok {
		return false, eris.Errorf("ingest: no YYYY-MM-DD in file name %s", name)
	}

	out := CleanPath(in.opts.CleanDir, src, date)
	if !force && tabular.Exists(out) {
		return false, nil
	}

	rs, err := in.read(ctx, src, path, date)
	if err != nil {
		// An invalid dump leaves the source empty for the date.
		if rmErr := os.Remove(out); rmErr == nil {
			zap.L().Warn("removed stale clean file", zap.String("file", filepath.Base(out)))
		} else if !errors.Is(rmErr, fs.ErrNotExist) {
			return false, eris.Wrapf(rmErr, "ingest: remove stale %s", out)
		}
		return false, err
	}

	if dropped := rs.Dedupe(); dropped > 0 {
		zap.L().Warn("duplicate cart ids, keeping last occurrence",
			zap.String("source", string(src)),
			zap.String("file", name),
			zap.Int("dropped", dropped),
		)
	}

	keep := func(col string) bool { return rs.Columns[col] || provenanceColumns[col] }
	if err := tabular.WriteFileColumns(out, rs.Records, keep); err != nil {
		return false, eris.Wrapf(err, "ingest: write %s", out)
	}

	zap.L().Info("wrote clean file",
		zap.String("file", filepath.Base(out)),
		zap.Int("rows", len(rs.Records)),
		zap.Int("cols", len(rs.Columns)+len(provenanceColumns)),
		zap.String("from", name),
	)
	return true, nil
}

func (in *Ingester) read(ctx context.Context, src model.Source, path, date string) (*model.RecordSet, error) {
	tbl, err := fetcher.ReadDump(ctx, path)
	if err != nil {
		return nil, err
	}
	return in.schema.Clean(tbl, src, date, filepath.Base(path))
}

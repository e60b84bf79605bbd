// Package tabular reads and writes typed rows as delimited files. Writes are
// staged next to the target and swapped in with a rename so a failed write
// never leaves a half-written artifact behind.
package tabular

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// ReadFile decodes every row of a CSV file into T and returns the header
// found in the file. Columns missing from the file leave fields at their
// zero value; unknown columns are ignored.
func ReadFile[T any](path string) ([]T, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "tabular: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return Read[T](f)
}

// Read decodes CSV rows from r into T.
func Read[T any](r io.Reader) ([]T, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, eris.Wrap(err, "tabular: read header")
	}

	var rows []T
	for {
		var row T
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, eris.Wrapf(err, "tabular: decode row %d", len(rows)+1)
		}
		rows = append(rows, row)
	}
	return rows, dec.Header(), nil
}

// Write encodes rows as CSV to w. The header is always written, even for an
// empty slice.
func Write[T any](w io.Writer, rows []T) error {
	return WriteColumns(w, rows, nil)
}

// WriteColumns encodes rows as CSV to w, keeping only the columns for which
// keep returns true. A nil keep writes every column.
func WriteColumns[T any](w io.Writer, rows []T, keep func(col string) bool) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(&columnFilter{w: cw, keep: keep})

	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		return eris.Wrap(err, "tabular: write header")
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return eris.Wrapf(err, "tabular: encode row %d", i+1)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "tabular: flush")
	}
	return nil
}

// columnFilter drops columns from every record based on the header it sees
// first.
type columnFilter struct {
	w     *csv.Writer
	keep  func(col string) bool
	index []int
}

func (c *columnFilter) Write(record []string) error {
	if c.keep == nil {
		return c.w.Write(record)
	}
	if c.index == nil {
		c.index = make([]int, 0, len(record))
		for i, col := range record {
			if c.keep(col) {
				c.index = append(c.index, i)
			}
		}
	}
	out := make([]string, len(c.index))
	for j, i := range c.index {
		out[j] = record[i]
	}
	return c.w.Write(out)
}

// Header returns the CSV column names T encodes to.
func Header[T any]() ([]string, error) {
	var zero T
	h, err := csvutil.Header(zero, "csv")
	if err != nil {
		return nil, eris.Wrap(err, "tabular: header")
	}
	return h, nil
}

// WriteFile atomically replaces path with the CSV encoding of rows.
func WriteFile[T any](path string, rows []T) error {
	return WriteFileColumns(path, rows, nil)
}

// WriteFileColumns atomically replaces path with the selected columns of rows.
func WriteFileColumns[T any](path string, rows []T, keep func(col string) bool) error {
	var b Batch
	if err := StageColumns(&b, path, rows, keep); err != nil {
		return err
	}
	return b.Commit()
}

// Batch groups staged files that are swapped in together by Commit.
type Batch struct {
	staged []staged
}

type staged struct {
	tmp  string
	dest string
}

// Stage writes rows to a temporary file beside path and records it in b.
// Nothing at path changes until Commit.
func Stage[T any](b *Batch, path string, rows []T) error {
	return StageColumns(b, path, rows, nil)
}

// StageColumns is Stage restricted to the columns keep accepts.
func StageColumns[T any](b *Batch, path string, rows []T, keep func(col string) bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "tabular: create dir %s", dir)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "tabular: stage %s", path)
	}
	tmp := f.Name()

	if err := WriteColumns(f, rows, keep); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "tabular: stage %s", path)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "tabular: sync %s", tmp)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "tabular: close %s", tmp)
	}

	b.staged = append(b.staged, staged{tmp: tmp, dest: path})
	return nil
}

// Commit renames every staged file over its destination.
func (b *Batch) Commit() error {
	for i, s := range b.staged {
		if err := os.Rename(s.tmp, s.dest); err != nil {
			for _, rest := range b.staged[i:] {
				_ = os.Remove(rest.tmp)
			}
			b.staged = nil
			return eris.Wrapf(err, "tabular: replace %s", s.dest)
		}
	}
	b.staged = nil
	return nil
}

// Discard removes every staged file without touching the destinations.
func (b *Batch) Discard() {
	for _, s := range b.staged {
		_ = os.Remove(s.tmp)
	}
	b.staged = nil
}

// Exists reports whether a regular file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

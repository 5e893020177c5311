// Package decoder normalizes heterogeneous tabular inputs (CSV and XLSX
// files, directories, tar and zip archives, arbitrarily nested) into
// canonical CSV output with renamed, restricted columns and normalized text
// encoding.
package decoder

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// OutputMode selects how decoded files land in the working directory.
type OutputMode int

const (
	// SingleFile merges every decoded input into one destination CSV,
	// writing the header exactly once across the whole run.
	SingleFile OutputMode = iota + 1
	// SeparateFiles writes one uniquely numbered CSV per decoded input,
	// each with its own header.
	SeparateFiles
)

// ColumnMapping pairs a source column (matched case-insensitively) with the
// canonical name it is written under. Mapping order is output column order.
type ColumnMapping struct {
	Source string
	Target string
}

// Options configures a decoder run.
type Options struct {
	// Path is the input root: a tabular file, a directory, or an archive.
	Path string
	// Columns is the source-to-canonical map. Required, sources unique
	// after lowercasing. Output is restricted to these columns; every
	// value is carried as text to avoid locale-dependent coercion.
	Columns []ColumnMapping
	// Mode defaults to SingleFile.
	Mode OutputMode
	// Dest names the merged output file in SingleFile mode. Defaults to
	// "out.csv".
	Dest string
	// Logger is the slog backend; defaults to slog.Default().
	Logger slog.Handler
	// OnRows, when set, observes the running total of rows written after
	// each decoded file. Used for caller-visible progress.
	OnRows func(total int)
}

// Decoder performs one strictly sequential depth-first normalization run.
// It is not safe for concurrent use and not reusable across runs.
type Decoder struct {
	opts   Options
	logger *slog.Logger

	targets map[string]string // lowercased source -> canonical name
	order   []string          // lowercased sources in mapping order

	workDir       string
	headerWritten bool
	fileCount     int
	rows          int
}

// New validates opts and prepares a run.
func New(opts Options) (*Decoder, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: input path is required", ErrInvalidOptions)
	}
	if len(opts.Columns) == 0 {
		return nil, fmt.Errorf("%w: at least one column mapping is required", ErrInvalidOptions)
	}
	if opts.Mode == 0 {
		opts.Mode = SingleFile
	}
	if opts.Mode != SingleFile && opts.Mode != SeparateFiles {
		return nil, fmt.Errorf("%w: unknown output mode %d", ErrInvalidOptions, opts.Mode)
	}
	if opts.Dest == "" {
		opts.Dest = "out.csv"
	}
	handler := opts.Logger
	if handler == nil {
		handler = slog.Default().Handler()
	}
	d := &Decoder{
		opts:    opts,
		logger:  slog.New(handler).With(slog.String("component", "decoder")),
		targets: make(map[string]string, len(opts.Columns)),
	}
	for _, c := range opts.Columns {
		src := strings.ToLower(c.Source)
		if src == "" || c.Target == "" {
			return nil, fmt.Errorf("%w: column mapping needs both source and target", ErrInvalidOptions)
		}
		if _, dup := d.targets[src]; dup {
			return nil, fmt.Errorf("%w: duplicate source column %q", ErrInvalidOptions, src)
		}
		d.targets[src] = c.Target
		d.order = append(d.order, src)
	}
	return d, nil
}

// RowsOpened returns the total number of data rows written so far.
func (d *Decoder) RowsOpened() int { return d.rows }

// Run executes the traversal and returns the output location: the merged
// CSV path in SingleFile mode, the working directory otherwise. The working
// directory is timestamped and created once per run; it is left in place
// for the caller.
func (d *Decoder) Run(ctx context.Context) (string, error) {
	d.workDir = filepath.Join(os.TempDir(), "updir-"+stamp())
	if err := os.MkdirAll(d.workDir, 0o755); err != nil {
		return "", fmt.Errorf("creating working directory: %w", err)
	}
	d.logger.Debug("Starting decode run",
		slog.String("path", d.opts.Path),
		slog.String("workDir", d.workDir))
	if err := d.dispatch(ctx, d.opts.Path); err != nil {
		return "", err
	}
	if d.opts.Mode == SingleFile {
		return filepath.Join(d.workDir, d.opts.Dest), nil
	}
	return d.workDir, nil
}

// dispatch classifies one path and recurses accordingly. Unrecognized
// entries are skipped with a diagnostic; they never abort the run.
func (d *Decoder) dispatch(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kind, err := classify(path)
	if err != nil {
		return fmt.Errorf("classifying %s: %w", path, err)
	}
	switch kind {
	case kindDirectory:
		return d.walkDir(ctx, path)
	case kindTabular:
		return d.decodeFile(path)
	case kindTar:
		return d.expandArchive(ctx, path, "tar-output-", untar)
	case kindZip:
		return d.expandArchive(ctx, path, "zip-output-", unzip)
	default:
		d.logger.Info("Skipping unrecognized entry", slog.String("path", path))
		return nil
	}
}

// walkDir recurses over the immediate children of a directory, depth-first,
// in raw filesystem listing order. The order is deliberately left unsorted;
// merged output row order across sibling files is therefore not stable.
func (d *Decoder) walkDir(ctx context.Context, dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("opening directory %s: %w", dir, err)
	}
	names, err := f.Readdirnames(-1)
	f.Close()
	if err != nil {
		return fmt.Errorf("listing directory %s: %w", dir, err)
	}
	for _, name := range names {
		if err := d.dispatch(ctx, filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// expandArchive extracts an archive into a fresh timestamped scratch
// directory, recurses over it as a directory, and removes the scratch
// space unconditionally, error or not.
func (d *Decoder) expandArchive(ctx context.Context, path, prefix string, extract func(src, dst string) error) error {
	dir := filepath.Join(os.TempDir(), prefix+stamp())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating extraction directory: %w", err)
	}
	defer os.RemoveAll(dir)
	if err := extract(path, dir); err != nil {
		return fmt.Errorf("extracting %s: %w", path, err)
	}
	d.logger.Debug("Extracted archive", slog.String("path", path), slog.String("into", dir))
	return d.walkDir(ctx, dir)
}

// decodeFile normalizes one tabular file: spreadsheet decoding first, and
// on format mismatch the delimited-text encoding ladder.
func (d *Decoder) decodeFile(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		// Not a spreadsheet; fall through to delimited text.
		return d.decodeCSV(path)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return fmt.Errorf("reading sheet from %s: %w", path, err)
	}
	fr := newFrame(rows)
	if len(fr.columns) == 0 {
		d.logger.Info("Skipping empty spreadsheet", slog.String("path", path))
		return nil
	}
	if err := d.write(fr); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	d.logger.Info("Decoded spreadsheet", slog.String("path", path), slog.Int("rows", len(fr.rows)))
	return nil
}

// decodeCSV walks the encoding ladder. The first encoding that decodes
// wins; decode failures fall through, while CSV parse failures after a
// successful decode propagate. The terminal latin-1 rung cannot fail on
// decode, so the final error branch is defensive and unreachable.
func (d *Decoder) decodeCSV(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for i, enc := range textEncodings {
		text, decErr := transcode(content, enc)
		if decErr != nil {
			if i == len(textEncodings)-1 {
				return fmt.Errorf("%w: %s: %v", ErrDecode, path, decErr)
			}
			d.logger.Info("Encoding mismatch",
				slog.String("path", path), slog.String("encoding", enc))
			continue
		}
		records, err := csv.NewReader(bytes.NewReader(text)).ReadAll()
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		fr := newFrame(records)
		if len(fr.columns) == 0 {
			d.logger.Info("Skipping empty file", slog.String("path", path))
			return nil
		}
		if err := d.write(fr); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		d.logger.Info("Decoded delimited text",
			slog.String("path", path),
			slog.String("encoding", enc),
			slog.Int("rows", len(fr.rows)))
		return nil
	}
	return nil
}

// frame is a decoded table: a header row plus data rows, all text.
type frame struct {
	columns []string
	rows    [][]string
}

func newFrame(records [][]string) frame {
	if len(records) == 0 {
		return frame{}
	}
	return frame{columns: records[0], rows: records[1:]}
}

// project renames mapped columns to their canonical names (unmapped columns
// keep their original casing and are excluded from output) and returns the
// output header plus the source positions to take, in mapping order.
func (d *Decoder) project(fr *frame) (header []string, take []int, err error) {
	positions := make(map[string]int, len(fr.columns))
	for i, col := range fr.columns {
		lowered := strings.ToLower(col)
		if target, mapped := d.targets[lowered]; mapped {
			fr.columns[i] = target
			positions[lowered] = i
		}
	}
	for _, src := range d.order {
		pos, ok := positions[src]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrMissingColumn, src)
		}
		header = append(header, d.targets[src])
		take = append(take, pos)
	}
	return header, take, nil
}

// write appends (merged mode) or creates (per-file mode) the projection of
// one frame, then advances the row counter and progress callback.
func (d *Decoder) write(fr frame) error {
	header, take, err := d.project(&fr)
	if err != nil {
		return err
	}

	var out *os.File
	writeHeader := true
	if d.opts.Mode == SingleFile {
		out, err = os.OpenFile(filepath.Join(d.workDir, d.opts.Dest),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		writeHeader = !d.headerWritten
	} else {
		d.fileCount++
		out, err = os.Create(filepath.Join(d.workDir, fmt.Sprintf("%d.csv", d.fileCount)))
	}
	if err != nil {
		return err
	}

	w := csv.NewWriter(out)
	if writeHeader {
		if err := w.Write(header); err != nil {
			out.Close()
			return err
		}
	}
	for _, row := range fr.rows {
		record := make([]string, len(take))
		for j, pos := range take {
			if pos < len(row) {
				record[j] = row[pos]
			}
		}
		if err := w.Write(record); err != nil {
			out.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if d.opts.Mode == SingleFile {
		d.headerWritten = true
	}
	d.rows += len(fr.rows)
	if d.opts.OnRows != nil {
		d.opts.OnRows(d.rows)
	}
	return nil
}

// stamp produces the timestamp suffix for per-run scratch directories.
func stamp() string {
	return time.Now().Format("20060102150405.000000000")
}

package gctx

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/robert-malhotra/go-gctx/hdf5"
)

const (
	metaPath    = "/0/META"
	versionAttr = "version"
)

// ParseOption configures Parse.
type ParseOption func(*parseOptions)

type parseOptions struct {
	rows          Selection
	cols          Selection
	convertNeg666 bool
	rowMetaOnly   bool
	colMetaOnly   bool
	logger        log.Logger
	metrics       *Metrics
	fileOpts      []hdf5.Option
}

// WithRows restricts the rows read.
func WithRows(sel Selection) ParseOption {
	return func(o *parseOptions) { o.rows = sel }
}

// WithCols restricts the columns read.
func WithCols(sel Selection) ParseOption {
	return func(o *parseOptions) { o.cols = sel }
}

// WithConvertNeg666 turns sentinel metadata values into missing values
// instead of the string "-666".
func WithConvertNeg666(convert bool) ParseOption {
	return func(o *parseOptions) { o.convertNeg666 = convert }
}

// RowMetaOnly reads only the row metadata; the payload is not touched.
func RowMetaOnly() ParseOption {
	return func(o *parseOptions) { o.rowMetaOnly = true }
}

// ColMetaOnly reads only the column metadata; the payload is not touched.
func ColMetaOnly() ParseOption {
	return func(o *parseOptions) { o.colMetaOnly = true }
}

// WithLogger sets the logger for parse stages and the underlying file.
func WithLogger(logger log.Logger) ParseOption {
	return func(o *parseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records parses in m.
func WithMetrics(m *Metrics) ParseOption {
	return func(o *parseOptions) { o.metrics = m }
}

// WithFileOptions passes options through to hdf5.Open.
func WithFileOptions(opts ...hdf5.Option) ParseOption {
	return func(o *parseOptions) { o.fileOpts = append(o.fileOpts, opts...) }
}

// Parse reads the GCTX file at path. Rows and columns are those selected
// by WithRows and WithCols, all of them by default, in ascending storage
// order unless the selection is Unsorted. The file is closed before Parse
// returns.
//
// The planes are checked before they are returned: a value above
// MaxValue or a negative or fractional coverage fails the parse with an
// *IntegrityError.
func Parse(path string, opts ...ParseOption) (c *MatrixContainer, err error) {
	o := &parseOptions{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics != nil {
		start := time.Now()
		defer func() {
			o.metrics.ParseDuration.Observe(time.Since(start).Seconds())
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			o.metrics.Parses.WithLabelValues(outcome).Inc()
		}()
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return nil, err
	}
	logger := log.With(o.logger, "path", path)

	f, err := hdf5.Open(path, append([]hdf5.Option{hdf5.WithLogger(o.logger)}, o.fileOpts...)...)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err = parseFile(f, o, logger)
	if err != nil {
		return nil, err
	}
	c.SourcePath = path
	return c, nil
}

func parseFile(f *hdf5.File, o *parseOptions, logger log.Logger) (*MatrixContainer, error) {
	metaOnly := o.rowMetaOnly || o.colMetaOnly

	var rowMeta, colMeta *MetadataTable
	var err error
	if !metaOnly || o.rowMetaOnly {
		if rowMeta, err = readAxis(f, Rows, o.convertNeg666); err != nil {
			return nil, err
		}
	}
	if !metaOnly || o.colMetaOnly {
		if colMeta, err = readAxis(f, Cols, o.convertNeg666); err != nil {
			return nil, err
		}
	}
	rows, cols, err := Resolve(o.rows, o.cols, rowMeta, colMeta)
	if err != nil {
		return nil, err
	}

	version, err := readVersion(f)
	if err != nil {
		return nil, err
	}
	c := &MatrixContainer{Version: version}
	if metaOnly {
		if rows != nil {
			c.RowMeta = rowMeta.Take(rows.Positions())
		}
		if cols != nil {
			c.ColMeta = colMeta.Take(cols.Positions())
		}
		level.Debug(logger).Log("msg", "read metadata only", "rows", c.Rows(), "cols", c.Cols())
		return c, nil
	}
	level.Debug(logger).Log("msg", "resolved selection", "rows", rows.Len(), "cols", cols.Len())

	ds, err := f.OpenDataset(MatrixPath)
	if err != nil {
		return nil, err
	}
	value, coverage, err := extractPlanes(ds, rows.Read, cols.Read, rowMeta.Len(), colMeta.Len())
	if err != nil {
		return nil, err
	}
	if o.metrics != nil {
		o.metrics.CellsRead.Add(float64(2 * len(value)))
	}

	sorted := &MatrixContainer{
		RowMeta: rowMeta.Take(rows.Read),
		ColMeta: colMeta.Take(cols.Read),
	}
	sorted.Value = &Matrix{RowIDs: sorted.RowMeta.IDs, ColIDs: sorted.ColMeta.IDs, Data: value}
	sorted.Coverage = &Matrix{RowIDs: sorted.RowMeta.IDs, ColIDs: sorted.ColMeta.IDs, Data: coverage}
	if err := sorted.Validate(); err != nil {
		level.Warn(logger).Log("msg", "integrity check failed", "err", err)
		return nil, err
	}
	level.Debug(logger).Log("msg", "extracted planes", "rows", sorted.Rows(), "cols", sorted.Cols())

	if rows.Order == nil && cols.Order == nil {
		sorted.Version = version
		return sorted, nil
	}
	c, err = sorted.Subset(rows.Order, cols.Order)
	if err != nil {
		return nil, err
	}
	c.Version = version
	return c, nil
}

func readAxis(f *hdf5.File, axis Axis, convertNeg666 bool) (*MetadataTable, error) {
	g, err := f.OpenGroup(metaPath + "/" + axis.group())
	if err != nil {
		return nil, fmt.Errorf("opening %s metadata: %w", axis, err)
	}
	return ReadMetadata(g, axis, convertNeg666)
}

// readVersion returns the root version attribute, taking the first
// element of an array. A file without one has version "".
func readVersion(f *hdf5.File) (string, error) {
	a := f.Root().Attr(versionAttr)
	if a == nil {
		return "", nil
	}
	v, err := a.Values()
	if err != nil {
		return "", fmt.Errorf("reading version: %w", err)
	}
	switch vals := v.(type) {
	case []string:
		if len(vals) > 0 {
			return vals[0], nil
		}
	case []int64:
		if len(vals) > 0 {
			return fmt.Sprint(vals[0]), nil
		}
	case []uint64:
		if len(vals) > 0 {
			return fmt.Sprint(vals[0]), nil
		}
	case []float64:
		if len(vals) > 0 {
			return formatFloat(vals[0]), nil
		}
	}
	return "", nil
}

// ParseRowMetadata reads only the row metadata of the file at path.
// Sentinels are converted to missing values unless opts say otherwise.
func ParseRowMetadata(path string, opts ...ParseOption) (*MetadataTable, error) {
	c, err := Parse(path, append([]ParseOption{WithConvertNeg666(true), RowMetaOnly()}, opts...)...)
	if err != nil {
		return nil, err
	}
	return c.RowMeta, nil
}

// ParseColMetadata reads only the column metadata of the file at path.
// Sentinels are converted to missing values unless opts say otherwise.
func ParseColMetadata(path string, opts ...ParseOption) (*MetadataTable, error) {
	c, err := Parse(path, append([]ParseOption{WithConvertNeg666(true), ColMetaOnly()}, opts...)...)
	if err != nil {
		return nil, err
	}
	return c.ColMeta, nil
}

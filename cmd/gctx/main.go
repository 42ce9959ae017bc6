// Command gctx inspects, parses, subsets and merges GCTX files.
//
//	gctx view [-filter S] [-l] FILE
//	gctx parse [-convert-neg-666] [-row-meta-only] [-col-meta-only] [-dump value|coverage] FILE
//	gctx subset [-rid ID]... [-cid ID]... [-ridx N]... [-cidx N]... [-keep-order] FILE
//	gctx merge [-reset-cids] FILE FILE...
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/robert-malhotra/go-gctx/gctx"
	"github.com/robert-malhotra/go-gctx/hdf5"
)

type arrayFlags []string

func (a *arrayFlags) String() string {
	return strings.Join(*a, ",")
}

func (a *arrayFlags) Set(value string) error {
	*a = append(*a, value)
	return nil
}

var errUsage = errors.New("usage")

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	if err := run(os.Args[1:], os.Stdout, os.Stderr, logger); err != nil {
		if !errors.Is(err, errUsage) {
			level.Error(logger).Log("msg", "command failed", "err", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer, logger log.Logger) error {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: gctx view|parse|subset|merge [flags] FILE...")
		return errUsage
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "view":
		return view(args, stdout, stderr)
	case "parse":
		return parse(args, stdout, stderr, logger, false)
	case "subset":
		return parse(args, stdout, stderr, logger, true)
	case "merge":
		return merge(args, stdout, stderr, logger)
	}
	fmt.Fprintf(stderr, "error: unknown command %q\n", cmd)
	return errUsage
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func view(args []string, stdout, stderr io.Writer) error {
	var (
		filter string
		long   bool
	)
	fs := newFlagSet("view", stderr)
	fs.StringVar(&filter, "filter", "", "Only list dataset paths containing this substring")
	fs.BoolVar(&long, "l", false, "Also print shape, type and storage layout")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "error: view takes exactly one file")
		fs.Usage()
		return errUsage
	}
	path := fs.Arg(0)

	if !long {
		names, err := gctx.View(path, filter)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	infos, err := gctx.Describe(path, filter)
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Fprintf(stdout, "%s\t%v\t%s\t%s\n", info.Path, info.Shape, info.Dtype, info.Layout)
	}
	return nil
}

func parse(args []string, stdout, stderr io.Writer, logger log.Logger, subset bool) error {
	var (
		rids, cids, ridxs, cidxs arrayFlags
		keepOrder                bool
		convert                  bool
		rowMetaOnly              bool
		colMetaOnly              bool
		dump                     string
		cacheSize                int
		verbose                  bool
	)
	name := "parse"
	if subset {
		name = "subset"
	}
	fs := newFlagSet(name, stderr)
	if subset {
		fs.Var(&rids, "rid", "Row id to keep (repeatable)")
		fs.Var(&cids, "cid", "Column id to keep (repeatable)")
		fs.Var(&ridxs, "ridx", "Row position to keep (repeatable)")
		fs.Var(&cidxs, "cidx", "Column position to keep (repeatable)")
		fs.BoolVar(&keepOrder, "keep-order", false, "Keep rows and columns in the order given instead of file order")
	}
	fs.BoolVar(&convert, "convert-neg-666", false, "Read -666 metadata values as missing")
	fs.BoolVar(&rowMetaOnly, "row-meta-only", false, "Read only the row metadata")
	fs.BoolVar(&colMetaOnly, "col-meta-only", false, "Read only the column metadata")
	fs.StringVar(&dump, "dump", "", "Write the value or coverage plane as TSV to stdout")
	fs.IntVar(&cacheSize, "cache-size", hdf5.DefaultChunkCacheSize, "Number of decoded chunks to cache")
	fs.BoolVar(&verbose, "v", false, "Log each parse stage")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "error: %s takes exactly one file\n", name)
		fs.Usage()
		return errUsage
	}
	if dump != "" && dump != "value" && dump != "coverage" {
		fmt.Fprintf(stderr, "error: -dump must be value or coverage, got %q\n", dump)
		return errUsage
	}

	rows, err := selection(rids, ridxs, keepOrder)
	if err != nil {
		return err
	}
	cols, err := selection(cids, cidxs, keepOrder)
	if err != nil {
		return err
	}
	if !verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	opts := []gctx.ParseOption{
		gctx.WithRows(rows),
		gctx.WithCols(cols),
		gctx.WithConvertNeg666(convert),
		gctx.WithLogger(logger),
		gctx.WithFileOptions(hdf5.WithChunkCacheSize(cacheSize)),
	}
	if rowMetaOnly {
		opts = append(opts, gctx.RowMetaOnly())
	}
	if colMetaOnly {
		opts = append(opts, gctx.ColMetaOnly())
	}

	c, err := gctx.Parse(fs.Arg(0), opts...)
	if err != nil {
		return err
	}
	level.Info(logger).Log("msg", "parsed", "path", c.SourcePath, "rows", c.Rows(), "cols", c.Cols())
	if dump != "" {
		return writePlane(stdout, c, dump)
	}
	summarize(stdout, c)
	return nil
}

// selection builds a Selection from repeated id or position flags. With
// neither set the whole axis is selected.
func selection(ids, positions arrayFlags, keepOrder bool) (gctx.Selection, error) {
	sel := gctx.Selection{Unsorted: keepOrder}
	if len(ids) > 0 {
		sel.IDs = ids
	}
	if len(positions) > 0 {
		sel.Indices = make([]int, len(positions))
		for i, s := range positions {
			n, err := strconv.Atoi(s)
			if err != nil {
				return sel, fmt.Errorf("%w: position %q is not an integer", gctx.ErrInvalidSelection, s)
			}
			sel.Indices[i] = n
		}
	}
	return sel, nil
}

func merge(args []string, stdout, stderr io.Writer, logger log.Logger) error {
	var (
		resetCids bool
		convert   bool
		dump      string
	)
	fs := newFlagSet("merge", stderr)
	fs.BoolVar(&resetCids, "reset-cids", false, "Renumber columns instead of failing on duplicate column ids")
	fs.BoolVar(&convert, "convert-neg-666", false, "Read -666 metadata values as missing")
	fs.StringVar(&dump, "dump", "", "Write the merged value or coverage plane as TSV to stdout")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "error: merge needs at least one file")
		fs.Usage()
		return errUsage
	}

	logger = level.NewFilter(logger, level.AllowInfo())
	containers := make([]*gctx.MatrixContainer, 0, fs.NArg())
	for _, path := range fs.Args() {
		c, err := gctx.Parse(path, gctx.WithConvertNeg666(convert), gctx.WithLogger(logger))
		if err != nil {
			return err
		}
		level.Info(logger).Log("msg", "parsed", "path", path, "rows", c.Rows(), "cols", c.Cols())
		containers = append(containers, c)
	}
	var opts []gctx.MergeOption
	if resetCids {
		opts = append(opts, gctx.WithResetColumnIDs())
	}
	m, err := gctx.Merge(containers, opts...)
	if err != nil {
		return err
	}
	level.Info(logger).Log("msg", "merged", "files", len(containers), "rows", m.Rows(), "cols", m.Cols())
	if dump != "" {
		return writePlane(stdout, m, dump)
	}
	summarize(stdout, m)
	return nil
}

func summarize(w io.Writer, c *gctx.MatrixContainer) {
	if c.SourcePath != "" {
		fmt.Fprintf(w, "path\t%s\n", c.SourcePath)
	}
	fmt.Fprintf(w, "version\t%s\n", c.Version)
	if c.RowMeta != nil {
		fmt.Fprintf(w, "rows\t%d\t%s\n", c.Rows(), strings.Join(c.RowMeta.FieldNames(), ","))
	}
	if c.ColMeta != nil {
		fmt.Fprintf(w, "cols\t%d\t%s\n", c.Cols(), strings.Join(c.ColMeta.FieldNames(), ","))
	}
	if c.Value != nil {
		fmt.Fprintf(w, "fingerprint\t%016x\n", c.Fingerprint())
	}
}

func writePlane(w io.Writer, c *gctx.MatrixContainer, plane string) error {
	m := c.Value
	if plane == "coverage" {
		m = c.Coverage
	}
	if m == nil {
		return fmt.Errorf("no %s plane: metadata-only parse", plane)
	}
	indexName := "rid"
	if c.RowMeta != nil {
		indexName = c.RowMeta.IndexName
	}
	fmt.Fprintf(w, "%s\t%s\n", indexName, strings.Join(m.ColIDs, "\t"))
	cells := make([]string, m.Cols())
	for i, id := range m.RowIDs {
		for j, v := range m.Row(i) {
			cells[j] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
		fmt.Fprintf(w, "%s\t%s\n", id, strings.Join(cells, "\t"))
	}
	return nil
}

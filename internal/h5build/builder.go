package h5build

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

// ErrInvalid reports a file description that cannot be encoded.
var ErrInvalid = errors.New("invalid file description")

// File is an HDF5 file under construction.
type File struct {
	root *Group
	err  error
}

// New returns an empty file.
func New() *File {
	f := &File{}
	f.root = &Group{file: f}
	return f
}

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

func (f *File) fail(format string, args ...any) {
	if f.err == nil {
		f.err = fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
	}
}

// Group is a group under construction. Members are written in the order
// they were added.
type Group struct {
	file    *File
	members []*member
	attrs   []*attribute
}

type member struct {
	name    string
	group   *Group
	dataset *Dataset
	target  string
}

func (g *Group) find(name string) *member {
	for _, m := range g.members {
		if m.name == name {
			return m
		}
	}
	return nil
}

func (g *Group) add(m *member) {
	if g.find(m.name) != nil {
		g.file.fail("duplicate member %q", m.name)
		return
	}
	g.members = append(g.members, m)
}

// Group returns the group at path below g, creating missing groups on
// the way.
func (g *Group) Group(path string) *Group {
	cur := g
	for _, name := range strings.Split(strings.Trim(path, "/"), "/") {
		if name == "" {
			continue
		}
		m := cur.find(name)
		if m == nil {
			m = &member{name: name, group: &Group{file: g.file}}
			cur.members = append(cur.members, m)
		}
		if m.group == nil {
			g.file.fail("%q is not a group", name)
			return &Group{file: g.file}
		}
		cur = m.group
	}
	return cur
}

// Dataset adds a dataset at path below g. values is a Go number, string
// or slice of either; shape may be nil for one-dimensional and scalar
// values.
func (g *Group) Dataset(path string, shape []uint64, values any, opts ...Option) *Dataset {
	dir, name := split(path)
	d := &Dataset{shape: shape, values: values}
	for _, opt := range opts {
		opt(&d.spec)
	}
	g.Group(dir).add(&member{name: name, dataset: d})
	return d
}

// SoftLink adds a soft link at path pointing to target.
func (g *Group) SoftLink(path, target string) {
	dir, name := split(path)
	g.Group(dir).add(&member{name: name, target: target})
}

// Attr attaches an attribute. Slices become one-dimensional attributes,
// other values scalars.
func (g *Group) Attr(name string, value any, opts ...Option) *Group {
	g.attrs = append(g.attrs, newAttribute(name, value, opts))
	return g
}

func split(path string) (dir, name string) {
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

// Dataset is a dataset under construction.
type Dataset struct {
	shape  []uint64
	values any
	spec   spec
	attrs  []*attribute
}

// Attr attaches an attribute to the dataset.
func (d *Dataset) Attr(name string, value any, opts ...Option) *Dataset {
	d.attrs = append(d.attrs, newAttribute(name, value, opts))
	return d
}

type attribute struct {
	name  string
	value any
	spec  spec
}

func newAttribute(name string, value any, opts []Option) *attribute {
	a := &attribute{name: name, value: value}
	for _, opt := range opts {
		opt(&a.spec)
	}
	return a
}

// Option adjusts how a dataset or attribute is stored. Storage options
// have no effect on attributes.
type Option func(*spec)

type spec struct {
	chunks    []uint64
	filters   []message.FilterInfo
	compact   bool
	varLen    bool
	bigEndian bool
}

// Chunks stores the dataset in chunks of the given shape, indexed by a
// fixed array.
func Chunks(dims ...uint64) Option {
	return func(s *spec) { s.chunks = dims }
}

// Compact stores the data inside the object header.
func Compact() Option {
	return func(s *spec) { s.compact = true }
}

// VarLen stores strings as variable-length strings.
func VarLen() Option {
	return func(s *spec) { s.varLen = true }
}

// BigEndian stores numbers most significant byte first.
func BigEndian() Option {
	return func(s *spec) { s.bigEndian = true }
}

// Deflate adds the gzip filter at level.
func Deflate(level uint32) Option {
	return addFilter(message.FilterDeflate, 0, level)
}

// Shuffle adds the byte shuffle filter.
func Shuffle() Option {
	return addFilter(message.FilterShuffle, 1)
}

// Fletcher32 adds the checksum filter.
func Fletcher32() Option {
	return addFilter(message.FilterFletcher32, 0)
}

// LZ4 adds the lz4 filter with its default block size.
func LZ4() Option {
	return addFilter(message.FilterLZ4, 1)
}

// Zstd adds the zstd filter at level.
func Zstd(level uint32) Option {
	return addFilter(message.FilterZstd, 1, level)
}

func addFilter(id, flags uint16, cd ...uint32) Option {
	return func(s *spec) {
		s.filters = append(s.filters, message.FilterInfo{ID: id, Flags: flags, ClientData: cd})
	}
}

// Bytes encodes the file.
func (f *File) Bytes() ([]byte, error) {
	im, err := f.Build()
	if err != nil {
		return nil, err
	}
	return im.Bytes, nil
}

// WriteFile encodes the file and writes it to path.
func (f *File) WriteFile(path string) error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

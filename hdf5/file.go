package hdf5

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/heap"
	"github.com/robert-malhotra/go-gctx/internal/layout"
	"github.com/robert-malhotra/go-gctx/internal/object"
	"github.com/robert-malhotra/go-gctx/internal/superblock"
)

// File is an open HDF5 file. Its methods may be called from multiple
// goroutines.
type File struct {
	name       string
	closer     io.Closer
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	logger     log.Logger
	cache      *layout.ChunkCache
	observer   layout.Observer

	mu     sync.Mutex
	heaps  *heap.Cache
	closed bool
}

// Open opens the HDF5 file at path for reading.
func Open(path string, opts ...Option) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	f, err := open(fh, path, opts)
	if err != nil {
		fh.Close()
		return nil, err
	}
	f.closer = fh
	return f, nil
}

// OpenReader reads an HDF5 file from ra. Closing the returned File does
// not close ra.
func OpenReader(ra io.ReaderAt, opts ...Option) (*File, error) {
	return open(ra, "", opts)
}

func open(ra io.ReaderAt, name string, opts []Option) (*File, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.name != "" {
		name = o.name
	}

	sb, err := superblock.Read(ra)
	if err != nil {
		if errors.Is(err, superblock.ErrNotHDF5) {
			return nil, fmt.Errorf("%w: %s", ErrNotHDF5, name)
		}
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	// Addresses are relative to the superblock, which follows the user
	// block when there is one, whatever base address the file records.
	if sb.Location != 0 {
		ra = io.NewSectionReader(ra, sb.Location, math.MaxInt64-sb.Location)
	}

	f := &File{
		name:       name,
		reader:     binary.NewReader(ra, sb.ReaderConfig()),
		superblock: sb,
		logger:     log.With(o.logger, "file", name),
	}
	f.heaps = heap.NewCache(f.reader)

	var onEvict func()
	if o.metrics != nil {
		obs := observer{m: o.metrics}
		f.observer = obs
		onEvict = obs.evicted
		o.metrics.FilesOpened.Inc()
	}
	if o.cacheSize > 0 {
		if f.cache, err = layout.NewChunkCache(o.cacheSize, onEvict); err != nil {
			return nil, fmt.Errorf("creating chunk cache: %w", err)
		}
	}

	level.Debug(f.logger).Log("msg", "opened file", "superblock_version", sb.Version,
		"offset_size", sb.OffsetSize, "length_size", sb.LengthSize, "base_address", sb.BaseAddress)

	root, err := f.openGroupAt(sb.RootGroupAddress, "/")
	if err != nil {
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	f.root = root
	return f, nil
}

// Close releases the file. It is safe to call more than once.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.cache.Purge()
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

func (f *File) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Name returns the path the file was opened from.
func (f *File) Name() string { return f.name }

// Version returns the superblock version.
func (f *File) Version() int { return int(f.superblock.Version) }

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

// OpenGroup opens a group by absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.isClosed() {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens a dataset by absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.isClosed() {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

// Attr returns the attribute addressed by an attribute path such as
// "/@version" or "/0/DATA/0/matrix@units".
func (f *File) Attr(path string) (*Attribute, error) {
	if f.isClosed() {
		return nil, ErrClosed
	}
	objPath, name, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}
	obj, err := f.root.Open(objPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", objPath, err)
	}
	attr := obj.Attr(name)
	if attr == nil {
		return nil, fmt.Errorf("attribute %q on %s: %w", name, objPath, ErrNotFound)
	}
	return attr, nil
}

func (f *File) openHeader(address uint64) (*object.Header, error) {
	h, err := object.Read(f.reader, address)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}
	return h, nil
}

func (f *File) openGroupAt(address uint64, path string) (*Group, error) {
	h, err := f.openHeader(address)
	if err != nil {
		return nil, err
	}
	return newGroup(f, path, address, h), nil
}

// varLen resolves a variable-length element through the global heap.
func (f *File) varLen(raw []byte) ([]byte, error) {
	ref, err := heap.DecodeRef(f.reader, raw)
	if err != nil {
		return nil, fmt.Errorf("decoding heap reference: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heaps.Resolve(ref)
}

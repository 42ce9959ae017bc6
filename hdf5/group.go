package hdf5

import (
	"fmt"
	pathpkg "path"
	"sort"

	"github.com/robert-malhotra/go-gctx/internal/btree"
	"github.com/robert-malhotra/go-gctx/internal/heap"
	"github.com/robert-malhotra/go-gctx/internal/message"
	"github.com/robert-malhotra/go-gctx/internal/object"
)

// Object is a group or a dataset.
type Object interface {
	Name() string
	Path() string
	Attrs() []string
	Attr(name string) *Attribute
}

// Group is an HDF5 group.
type Group struct {
	file   *File
	path   string
	addr   uint64
	header *object.Header
}

func newGroup(f *File, path string, addr uint64, h *object.Header) *Group {
	return &Group{file: f, path: path, addr: addr, header: h}
}

// Name returns the last component of the group's path.
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return pathpkg.Base(g.path)
}

func (g *Group) Path() string { return g.path }

// entry is one member link of a group, whichever way the group stores it.
type entry struct {
	name    string
	kind    message.LinkKind
	address uint64
	target  string
}

// entries returns the group's links sorted by name.
func (g *Group) entries() ([]entry, error) {
	if li := g.header.LinkInfo(); li != nil && li.Dense() {
		return nil, fmt.Errorf("%w: dense link storage in group %s", ErrUnsupported, g.path)
	}
	var out []entry
	for _, l := range g.header.Links() {
		out = append(out, entry{name: l.Name, kind: l.Kind, address: l.Address, target: l.Target})
	}

	st := g.header.SymbolTable()
	if st == nil && len(out) == 0 && g.path == "/" && g.file.superblock.RootCacheType == 1 {
		st = &message.SymbolTable{
			BTreeAddress: g.file.superblock.RootBTreeAddress,
			HeapAddress:  g.file.superblock.RootHeapAddress,
		}
	}
	if st != nil {
		names, err := heap.ReadLocalHeap(g.file.reader, st.HeapAddress)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.path, err)
		}
		ents, err := btree.ReadGroupEntries(g.file.reader, st.BTreeAddress, names)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.path, err)
		}
		for _, e := range ents {
			kind := message.LinkHard
			if e.Soft {
				kind = message.LinkSoft
			}
			out = append(out, entry{name: e.Name, kind: kind, address: e.Address, target: e.Target})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

func (g *Group) lookup(name string) (entry, error) {
	ents, err := g.entries()
	if err != nil {
		return entry{}, err
	}
	i := sort.Search(len(ents), func(i int) bool { return ents[i].name >= name })
	if i < len(ents) && ents[i].name == name {
		return ents[i], nil
	}
	return entry{}, fmt.Errorf("%w: %s", ErrNotFound, pathpkg.Join(g.path, name))
}

// Members returns the names of the group's members in name order.
func (g *Group) Members() ([]string, error) {
	ents, err := g.entries()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ents))
	for i, e := range ents {
		names[i] = e.name
	}
	return names, nil
}

// resolved is an object reached by following a path.
type resolved struct {
	addr   uint64
	header *object.Header
	path   string
}

// resolve follows path from g, or from the root when path is absolute.
// Soft links are followed with relative targets resolved from the group
// that holds the link.
func (g *Group) resolve(path string, depth int) (resolved, error) {
	cur := g
	if len(path) > 0 && path[0] == '/' {
		cur = g.file.root
	}
	res := resolved{addr: cur.addr, header: cur.header, path: cur.path}
	parts := SplitPath(path)
	for i, name := range parts {
		if name == "." {
			continue
		}
		e, err := cur.lookup(name)
		if err != nil {
			return resolved{}, err
		}
		full := pathpkg.Join(cur.path, name)
		switch e.kind {
		case message.LinkHard:
			h, err := g.file.openHeader(e.address)
			if err != nil {
				return resolved{}, err
			}
			res = resolved{addr: e.address, header: h, path: full}
		case message.LinkSoft:
			if depth >= MaxLinkDepth {
				return resolved{}, fmt.Errorf("%w: %s -> %s", ErrLinkDepth, full, e.target)
			}
			if res, err = cur.resolve(e.target, depth+1); err != nil {
				return resolved{}, fmt.Errorf("soft link %s -> %s: %w", full, e.target, err)
			}
			res.path = full
		default:
			return resolved{}, fmt.Errorf("%w: %s link %s", ErrUnsupported, e.kind, full)
		}
		if i < len(parts)-1 {
			if res.header.IsDataset() {
				return resolved{}, fmt.Errorf("%w: %s", ErrNotGroup, res.path)
			}
			cur = newGroup(g.file, res.path, res.addr, res.header)
		}
	}
	return res, nil
}

// Open opens the group or dataset at path, relative to g unless absolute.
func (g *Group) Open(path string) (Object, error) {
	if g.file.isClosed() {
		return nil, ErrClosed
	}
	res, err := g.resolve(path, 0)
	if err != nil {
		return nil, err
	}
	if res.header.IsDataset() {
		return newDataset(g.file, res.path, res.header)
	}
	return newGroup(g.file, res.path, res.addr, res.header), nil
}

// OpenGroup opens the group at path.
func (g *Group) OpenGroup(path string) (*Group, error) {
	obj, err := g.Open(path)
	if err != nil {
		return nil, err
	}
	grp, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, obj.Path())
	}
	return grp, nil
}

// OpenDataset opens the dataset at path.
func (g *Group) OpenDataset(path string) (*Dataset, error) {
	obj, err := g.Open(path)
	if err != nil {
		return nil, err
	}
	ds, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDataset, obj.Path())
	}
	return ds, nil
}

// Datasets opens every dataset directly inside g, in name order. Soft
// links to datasets are included.
func (g *Group) Datasets() ([]*Dataset, error) {
	names, err := g.Members()
	if err != nil {
		return nil, err
	}
	var out []*Dataset
	for _, name := range names {
		obj, err := g.Open(name)
		if err != nil {
			return nil, err
		}
		if ds, ok := obj.(*Dataset); ok {
			out = append(out, ds)
		}
	}
	return out, nil
}

func (g *Group) Attrs() []string { return attrNames(g.header) }

// Attr returns the named attribute, or nil.
func (g *Group) Attr(name string) *Attribute { return findAttr(g.file, g.header, name) }

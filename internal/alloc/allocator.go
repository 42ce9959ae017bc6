package alloc

import (
	"fmt"
	"sort"
)

// Region is one allocated span of file space.
type Region struct {
	Addr uint64
	Size uint64
	Tag  string
}

// End returns the first address after the region.
func (r Region) End() uint64 { return r.Addr + r.Size }

func (r Region) String() string {
	return fmt.Sprintf("%s [%d, %d)", r.Tag, r.Addr, r.End())
}

// Allocator places structures at increasing file addresses.
type Allocator struct {
	base    uint64
	eof     uint64
	regions []Region
}

// New returns an allocator whose first region starts at base.
func New(base uint64) *Allocator {
	return &Allocator{base: base, eof: base}
}

// Alloc reserves size bytes at the end of file. A zero size reserves
// nothing and returns the current end of file.
func (a *Allocator) Alloc(size uint64, tag string) uint64 {
	addr := a.eof
	if size == 0 {
		return addr
	}
	a.eof += size
	a.regions = append(a.regions, Region{Addr: addr, Size: size, Tag: tag})
	return addr
}

// AllocAligned is Alloc with the start rounded up to a multiple of align.
// Skipped bytes belong to no region.
func (a *Allocator) AllocAligned(size, align uint64, tag string) uint64 {
	if align > 1 {
		if rem := a.eof % align; rem != 0 {
			a.eof += align - rem
		}
	}
	return a.Alloc(size, tag)
}

// Base returns the address of the first allocation.
func (a *Allocator) Base() uint64 { return a.base }

// EOF returns the end-of-file address.
func (a *Allocator) EOF() uint64 { return a.eof }

// Regions returns the allocations in address order.
func (a *Allocator) Regions() []Region {
	out := make([]Region, len(a.regions))
	copy(out, a.regions)
	return out
}

// Find returns the region holding addr.
func (a *Allocator) Find(addr uint64) (Region, bool) {
	i := sort.Search(len(a.regions), func(i int) bool { return a.regions[i].End() > addr })
	if i < len(a.regions) && a.regions[i].Addr <= addr {
		return a.regions[i], true
	}
	return Region{}, false
}

package hdf5

import (
	"errors"
	pathpkg "path"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

// ErrStopWalk ends a Walk early without reporting an error.
var ErrStopWalk = errors.New("walk stopped")

// WalkFunc is called for every object reached by Walk. obj is a *Group or
// a *Dataset, or nil when err reports why the object could not be opened.
// Returning a non-nil error stops the walk.
type WalkFunc func(path string, obj Object, err error) error

// Walk visits g and everything below it in name order, depth first. Only
// hard links are followed, and an object reachable through several hard
// links is visited once.
func Walk(g *Group, fn WalkFunc) error {
	seen := map[uint64]bool{g.addr: true}
	if err := fn(g.path, g, nil); err != nil {
		if errors.Is(err, ErrStopWalk) {
			return nil
		}
		return err
	}
	err := walkGroup(g, fn, seen)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

func walkGroup(g *Group, fn WalkFunc, seen map[uint64]bool) error {
	ents, err := g.entries()
	if err != nil {
		return fn(g.path, nil, err)
	}
	for _, e := range ents {
		if e.kind != message.LinkHard || seen[e.address] {
			continue
		}
		seen[e.address] = true
		p := pathpkg.Join(g.path, e.name)

		h, err := g.file.openHeader(e.address)
		if err != nil {
			if err := fn(p, nil, err); err != nil {
				return err
			}
			continue
		}
		if h.IsDataset() {
			ds, err := newDataset(g.file, p, h)
			if err != nil {
				if err := fn(p, nil, err); err != nil {
					return err
				}
				continue
			}
			if err := fn(p, ds, nil); err != nil {
				return err
			}
			continue
		}
		child := newGroup(g.file, p, e.address, h)
		if err := fn(p, child, nil); err != nil {
			return err
		}
		if err := walkGroup(child, fn, seen); err != nil {
			return err
		}
	}
	return nil
}

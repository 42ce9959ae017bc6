package gctx

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/robert-malhotra/go-gctx/hdf5"
)

// DatasetInfo describes one dataset found by Describe.
type DatasetInfo struct {
	Path   string // without the leading slash
	Shape  []uint64
	Dtype  string
	Layout string
}

// View lists the path of every dataset in the file, without the leading
// slash, in name order. When filter is not empty only paths containing it
// are returned.
func View(path, filter string, opts ...hdf5.Option) ([]string, error) {
	infos, err := Describe(path, filter, opts...)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Path
	}
	return names, nil
}

// Describe is View with the shape, element type and storage layout of
// each dataset, collected in the same walk.
func Describe(path, filter string, opts ...hdf5.Option) ([]DatasetInfo, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return nil, err
	}
	f, err := hdf5.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return describeDatasets(f, filter)
}

func describeDatasets(f *hdf5.File, filter string) ([]DatasetInfo, error) {
	var infos []DatasetInfo
	err := hdf5.Walk(f.Root(), func(p string, obj hdf5.Object, err error) error {
		if err != nil {
			return err
		}
		ds, ok := obj.(*hdf5.Dataset)
		if !ok {
			return nil
		}
		name := strings.TrimPrefix(p, "/")
		if filter == "" || strings.Contains(name, filter) {
			infos = append(infos, DatasetInfo{
				Path:   name,
				Shape:  ds.Shape(),
				Dtype:  ds.Dtype(),
				Layout: ds.Layout(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", f.Name(), err)
	}
	return infos, nil
}

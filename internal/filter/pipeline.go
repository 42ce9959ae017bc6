package filter

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

type stage struct {
	// bit is the filter's position in the pipeline message, which is the
	// bit that skips it in a chunk filter mask.
	bit    uint
	filter Filter
}

// Pipeline decodes and encodes chunks through a dataset's filters.
type Pipeline struct {
	stages []stage
}

// NewPipeline builds a pipeline from a filter pipeline message. A nil
// message yields an empty pipeline. Unknown optional filters are left out;
// unknown mandatory filters are an error.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for i, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			if info.Optional() {
				continue
			}
			return nil, err
		}
		p.stages = append(p.stages, stage{bit: uint(i), filter: f})
	}
	return p, nil
}

// Empty reports whether the pipeline does nothing.
func (p *Pipeline) Empty() bool { return len(p.stages) == 0 }

// Len returns the number of active filters.
func (p *Pipeline) Len() int { return len(p.stages) }

// Decode undoes the filters in reverse order.
func (p *Pipeline) Decode(in []byte, mask uint32) ([]byte, error) {
	data := in
	for i := len(p.stages) - 1; i >= 0; i-- {
		s := p.stages[i]
		if mask&(1<<s.bit) != 0 {
			continue
		}
		out, err := s.filter.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", Name(s.filter.ID()), err)
		}
		data = out
	}
	return data, nil
}

// Encode applies the filters in order.
func (p *Pipeline) Encode(in []byte) ([]byte, error) {
	data := in
	for _, s := range p.stages {
		out, err := s.filter.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", Name(s.filter.ID()), err)
		}
		data = out
	}
	return data, nil
}

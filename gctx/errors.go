package gctx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrPathNotFound     = errors.New("path not found")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrLookup           = errors.New("lookup failed")
	ErrTypeCoercion     = errors.New("cannot convert ids")
	ErrDataIntegrity    = errors.New("data integrity violation")
)

// LookupError reports requested ids that are not in a metadata table, or
// requested positions outside it.
type LookupError struct {
	Axis    Axis
	IDs     []string
	Indices []int
	// Max is the largest valid position, -1 for an empty axis.
	Max int
}

func (e *LookupError) Error() string {
	if len(e.IDs) > 0 {
		return fmt.Sprintf("%s ids not found in %s metadata: %s",
			e.Axis, e.Axis, strings.Join(quoteAll(e.IDs), ", "))
	}
	idx := make([]string, len(e.Indices))
	for i, v := range e.Indices {
		idx[i] = strconv.Itoa(v)
	}
	return fmt.Sprintf("%s indices out of range [0, %d]: %s", e.Axis, e.Max, strings.Join(idx, ", "))
}

func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// TypeCoercionError reports caller ids that cannot be converted to the
// metadata index type.
type TypeCoercionError struct {
	Expected string
	// Types lists each distinct kind of offending value once, sorted.
	Types []string
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("ids cannot be converted to %s: got %s", e.Expected, strings.Join(e.Types, ", "))
}

func (e *TypeCoercionError) Is(target error) bool { return target == ErrTypeCoercion }

// IntegrityError reports data that breaks the GCTX contract: values above
// 100, fractional coverage, or planes whose labels disagree with their
// metadata.
type IntegrityError struct {
	Check   string
	Details []string
}

func (e *IntegrityError) Error() string {
	if len(e.Details) == 0 {
		return e.Check
	}
	return e.Check + ": " + strings.Join(e.Details, ", ")
}

func (e *IntegrityError) Is(target error) bool { return target == ErrDataIntegrity }

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strconv.Quote(s)
	}
	return out
}

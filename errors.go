package typedcache

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNilStore        = errors.New("typedcache: store is required")
	ErrScanLimit       = errors.New("typedcache: scan exceeded page limit")
	ErrOddFieldValues  = errors.New("typedcache: field/value pairs must have even length")
	ErrMissingKeyField = errors.New("typedcache: record has no value at key field")
)

// OpError is returned by operations that surface failures to the caller
// (hash mutations and scan). Err is the underlying store or policy error.
type OpError struct {
	Op     string
	Key    string
	Fields []string
	Err    error
}

func (e *OpError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s %q [%s]: %v", e.Op, e.Key, strings.Join(e.Fields, ","), e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

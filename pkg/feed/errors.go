package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested page holds no entries.
	ErrNotFound = errors.New("page not found")

	// ErrInvalidPageSize indicates a page size that differs from the canonical one.
	ErrInvalidPageSize = errors.New("invalid page size")
)

// PageNotFoundError reports an empty page.
type PageNotFoundError struct {
	Page int64
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("Page %d not found.", e.Page)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *PageNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PageSizeError reports a page size mismatch. Links are always generated with
// the canonical size, so a mismatch means the link was stale or not ours.
type PageSizeError struct {
	Expected int
	Got      int
}

func (e *PageSizeError) Error() string {
	return fmt.Sprintf("page size %d does not match expected value %d, the link used was not generated by this feed",
		e.Got, e.Expected)
}

// Is makes errors.Is(err, ErrInvalidPageSize) hold.
func (e *PageSizeError) Is(target error) bool {
	return target == ErrInvalidPageSize
}

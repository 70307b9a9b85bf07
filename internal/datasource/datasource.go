package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/tradeforge-lab/tradeforge/internal/types"
)

// DataSource is a finite, ordered, replayable sequence of bars for one or
// more instruments. Sources are read-only once a run begins; the same
// source may be shared by concurrent matrix cells.
type DataSource interface {
	// Instruments returns the instrument universe present in the source,
	// sorted lexicographically.
	Instruments() []string
	// ReadAll yields bars in strictly increasing timestamp order.
	// Instruments advance in lock-step: all bars at time T are yielded
	// (ordered by instrument) before any bar at T+1.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// Count returns the number of bars in the given range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases any resources held by the source.
	Close() error
}

func inRange(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}

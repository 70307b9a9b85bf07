package datasource

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"

	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

// MemoryDataSource holds a validated, time-merged bar series in memory.
// Construction validates every bar and enforces strictly increasing
// timestamps per instrument; a violation fails construction rather than
// surfacing mid-run.
type MemoryDataSource struct {
	bars        []types.Bar
	instruments []string
}

// NewMemoryDataSource builds a source from bars in any order. Bars are
// merged into a single timeline sorted by (time, instrument).
func NewMemoryDataSource(bars []types.Bar) (*MemoryDataSource, error) {
	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeNoDataFound, "no bars provided")
	}

	merged := make([]types.Bar, len(bars))
	copy(merged, bars)

	for i := range merged {
		if err := merged[i].Validate(); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Time.Equal(merged[j].Time) {
			return merged[i].Time.Before(merged[j].Time)
		}

		return merged[i].Instrument < merged[j].Instrument
	})

	lastSeen := make(map[string]time.Time)
	instrumentSet := make(map[string]struct{})

	for _, bar := range merged {
		if prev, ok := lastSeen[bar.Instrument]; ok && !bar.Time.After(prev) {
			return nil, errors.Newf(errors.ErrCodeDataOutOfOrder,
				"duplicate or non-increasing timestamp for %s at %s",
				bar.Instrument, bar.Time.Format(time.RFC3339))
		}

		lastSeen[bar.Instrument] = bar.Time
		instrumentSet[bar.Instrument] = struct{}{}
	}

	instruments := make([]string, 0, len(instrumentSet))
	for instrument := range instrumentSet {
		instruments = append(instruments, instrument)
	}

	sort.Strings(instruments)

	return &MemoryDataSource{
		bars:        merged,
		instruments: instruments,
	}, nil
}

// Instruments implements DataSource.
func (m *MemoryDataSource) Instruments() []string {
	out := make([]string, len(m.instruments))
	copy(out, m.instruments)

	return out
}

// ReadAll implements DataSource.
func (m *MemoryDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		for _, bar := range m.bars {
			if !inRange(bar.Time, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (m *MemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, bar := range m.bars {
		if inRange(bar.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (m *MemoryDataSource) Close() error {
	return nil
}

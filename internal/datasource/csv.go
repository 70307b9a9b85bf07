package datasource

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

// csvBar is the on-disk row format: time,open,high,low,close,volume.
// The instrument is taken from the file name, one file per instrument.
type csvBar struct {
	Time   csvTime `csv:"time"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

type csvTime struct {
	time.Time
}

// UnmarshalCSV accepts RFC3339 or the common "2006-01-02 15:04:05" layout.
func (t *csvTime) UnmarshalCSV(value string) error {
	parsed, err := time.Parse(time.RFC3339, value)
	if err == nil {
		t.Time = parsed

		return nil
	}

	parsed, err = time.Parse("2006-01-02 15:04:05", value)
	if err == nil {
		t.Time = parsed

		return nil
	}

	parsed, err = time.Parse("2006-01-02", value)
	if err != nil {
		return err
	}

	t.Time = parsed

	return nil
}

// MarshalCSV writes timestamps as RFC3339.
func (t csvTime) MarshalCSV() (string, error) {
	return t.Time.Format(time.RFC3339), nil
}

// LoadCSVFile reads one instrument's bars from a CSV file. The instrument
// name is derived from the file name without extension (AAPL.csv -> AAPL).
func LoadCSVFile(path string) ([]types.Bar, error) {
	instrument := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open CSV file %s", path)
	}
	defer file.Close()

	var rows []csvBar
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to parse CSV file %s", path)
	}

	bars := make([]types.Bar, 0, len(rows))
	for _, row := range rows {
		bars = append(bars, types.Bar{
			Instrument: instrument,
			Time:       row.Time.Time,
			Open:       row.Open,
			High:       row.High,
			Low:        row.Low,
			Close:      row.Close,
			Volume:     row.Volume,
		})
	}

	return bars, nil
}

// WriteCSVFile writes one instrument's bars in the format LoadCSVFile
// reads. The instrument column is dropped; it lives in the file name.
func WriteCSVFile(path string, bars []types.Bar) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to create CSV file %s", path)
	}
	defer file.Close()

	rows := make([]csvBar, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, csvBar{
			Time:   csvTime{bar.Time},
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to write CSV file %s", path)
	}

	return nil
}

// NewCSVDataSource loads every file matching the glob pattern into a single
// in-memory source, one instrument per file.
func NewCSVDataSource(pattern string) (*MemoryDataSource, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "bad glob pattern %s", pattern)
	}

	if len(paths) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no files match %s", pattern)
	}

	var bars []types.Bar

	for _, path := range paths {
		fileBars, err := LoadCSVFile(path)
		if err != nil {
			return nil, err
		}

		bars = append(bars, fileBars...)
	}

	return NewMemoryDataSource(bars)
}

package datasource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type CSVDataSourceTestSuite struct {
	suite.Suite
	dir string
}

func TestCSVDataSourceSuite(t *testing.T) {
	suite.Run(t, new(CSVDataSourceTestSuite))
}

func (suite *CSVDataSourceTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *CSVDataSourceTestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *CSVDataSourceTestSuite) TestLoadCSVFile() {
	path := suite.writeFile("AAPL.csv", `time,open,high,low,close,volume
2024-01-02T00:00:00Z,100,105,99,104,1000
2024-01-03T00:00:00Z,104,106,103,105,1200
`)

	bars, err := LoadCSVFile(path)
	suite.Require().NoError(err)
	suite.Len(bars, 2)
	suite.Equal("AAPL", bars[0].Instrument)
	suite.InDelta(100.0, bars[0].Open, 1e-9)
	suite.InDelta(105.0, bars[1].Close, 1e-9)
}

func (suite *CSVDataSourceTestSuite) TestLoadCSVFileDateOnly() {
	path := suite.writeFile("MSFT.csv", `time,open,high,low,close,volume
2024-01-02,300,305,299,304,500
`)

	bars, err := LoadCSVFile(path)
	suite.Require().NoError(err)
	suite.Len(bars, 1)
	suite.Equal("MSFT", bars[0].Instrument)
	suite.Equal(2024, bars[0].Time.Year())
}

func (suite *CSVDataSourceTestSuite) TestNewCSVDataSourceMergesFiles() {
	suite.writeFile("AAPL.csv", `time,open,high,low,close,volume
2024-01-02T00:00:00Z,100,105,99,104,1000
`)
	suite.writeFile("MSFT.csv", `time,open,high,low,close,volume
2024-01-02T00:00:00Z,300,305,299,304,500
`)

	source, err := NewCSVDataSource(filepath.Join(suite.dir, "*.csv"))
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL", "MSFT"}, source.Instruments())
}

func (suite *CSVDataSourceTestSuite) TestNewCSVDataSourceNoMatch() {
	_, err := NewCSVDataSource(filepath.Join(suite.dir, "*.csv"))
	suite.Error(err)
}

func (suite *CSVDataSourceTestSuite) TestLoadCSVFileMissing() {
	_, err := LoadCSVFile(filepath.Join(suite.dir, "missing.csv"))
	suite.Error(err)
}

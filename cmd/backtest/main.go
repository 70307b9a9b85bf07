package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/tradeforge-lab/tradeforge/internal/backtest"
	enginev1 "github.com/tradeforge-lab/tradeforge/internal/backtest/engine/engine_v1"
	"github.com/tradeforge-lab/tradeforge/internal/backtest/matrix"
	"github.com/tradeforge-lab/tradeforge/internal/datasource"
	"github.com/tradeforge-lab/tradeforge/internal/logger"
	"github.com/tradeforge-lab/tradeforge/internal/strategy"
	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/internal/version"
)

// runConfig is the on-disk configuration file. The backtest section is
// shared by every cell of the sweep; the sweep section describes the
// strategy/instrument/parameter matrix to run.
type runConfig struct {
	Backtest backtest.Config `yaml:"backtest"`
	Sweep    matrix.Sweep    `yaml:"sweep"`
}

func loadRunConfig(path string) (runConfig, error) {
	var config runConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// loadBars reads every bar from the data path. Parquet files are read
// directly; any other path is treated as a CSV glob, one file per
// instrument.
func loadBars(path string) ([]types.Bar, error) {
	var (
		source *datasource.MemoryDataSource
		err    error
	)

	if strings.HasSuffix(path, ".parquet") {
		source, err = datasource.LoadParquet(path)
	} else {
		source, err = datasource.NewCSVDataSource(path)
	}

	if err != nil {
		return nil, err
	}
	defer source.Close()

	var bars []types.Bar

	for bar, err := range source.ReadAll(nil, nil) {
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputDir := cmd.String("output")
	journal := cmd.Bool("journal")

	config, err := loadRunConfig(configPath)
	if err != nil {
		return err
	}

	bars, err := loadBars(dataPath)
	if err != nil {
		return fmt.Errorf("failed to load market data: %w", err)
	}

	registry := strategy.NewDefaultRegistry()

	sweep := config.Sweep
	if len(sweep.Strategies) == 0 {
		sweep.Strategies = registry.List()
	}

	if len(sweep.Instruments) == 0 {
		sweep.Instruments = config.Backtest.Universe
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	runner := matrix.NewRunner(registry, bars, appLogger)
	if journal {
		runner.SetJournalDir(outputDir)
	}

	cells := sweep.Cells()
	bar := progressbar.New(len(cells))
	onCellDone := matrix.OnCellDoneCallback(func(completed int, total int) {
		_ = bar.Add(1)
	})

	results, err := runner.Run(ctx, config.Backtest, sweep, optional.Some(onCellDone))
	if err != nil {
		return err
	}

	var failed int

	for i, result := range results {
		if result.Err != nil {
			failed++

			log.Printf("cell %s/%s failed: %v", result.Cell.Strategy, result.Cell.Instrument, result.Err)

			continue
		}

		reportPath := filepath.Join(outputDir, matrix.CellDir(result.Cell, i)+".yaml")
		if err := types.WritePerformanceReport(reportPath, result.Result.Report); err != nil {
			return err
		}
	}

	log.Printf("sweep finished: %d cells, %d failed, reports in %s", len(results), failed, outputDir)

	if failed == len(results) {
		return fmt.Errorf("all %d cells failed", failed)
	}

	return nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	schema, err := enginev1.NewBacktestEngineV1(logger.NewNopLogger()).GetConfigSchema()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Run strategy backtests over historical market data",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the sweep described by the config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML run configuration",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "CSV glob (one file per instrument) or a Parquet file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Directory for per-cell reports",
						Value:    "results",
						Required: false,
					},
					&cli.BoolFlag{
						Name:     "journal",
						Aliases:  []string{"j"},
						Usage:    "Export per-cell order, trade and equity journals as Parquet",
						Required: false,
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the backtest config section",
				Action: schemaAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

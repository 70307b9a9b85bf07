package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tradeforge-lab/tradeforge/internal/datasource"
	"github.com/tradeforge-lab/tradeforge/internal/version"
)

// generateAction writes one synthetic CSV file per instrument, suitable as
// input for the backtest CLI's --data glob.
func generateAction(ctx context.Context, cmd *cli.Command) error {
	instruments := strings.Split(cmd.String("instruments"), ",")
	outputDir := cmd.String("output")
	count := cmd.Int("bars")
	seed := cmd.Int("seed")
	start := cmd.Timestamp("start")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	config := datasource.DefaultGeneratorConfig()
	config.Count = int(count)
	config.StartTime = start
	config.Trend = cmd.Float("trend")
	config.Volatility = cmd.Float("volatility")

	generator := datasource.NewGenerator(seed)

	for _, instrument := range instruments {
		instrument = strings.TrimSpace(instrument)
		if instrument == "" {
			continue
		}

		instrumentConfig := config
		instrumentConfig.Instrument = instrument

		bars := generator.Generate(instrumentConfig)

		path := filepath.Join(outputDir, instrument+".csv")
		if err := datasource.WriteCSVFile(path, bars); err != nil {
			return err
		}

		log.Printf("wrote %d bars to %s", len(bars), path)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "generate",
		Usage:   "Generate synthetic market data for backtesting",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "instruments",
				Aliases:  []string{"i"},
				Usage:    "Comma-separated instrument names",
				Value:    "AAPL,MSFT",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Directory for the generated CSV files",
				Value:    "data",
				Required: false,
			},
			&cli.IntFlag{
				Name:     "bars",
				Aliases:  []string{"n"},
				Usage:    "Number of bars per instrument",
				Value:    252,
				Required: false,
			},
			&cli.IntFlag{
				Name:     "seed",
				Usage:    "Random seed, fixed seeds reproduce the same series",
				Value:    42,
				Required: false,
			},
			&cli.FloatFlag{
				Name:     "volatility",
				Usage:    "Per-bar return standard deviation",
				Value:    0.01,
				Required: false,
			},
			&cli.FloatFlag{
				Name:     "trend",
				Usage:    "Total drift spread across the series",
				Value:    0.0,
				Required: false,
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "First bar date in `YYYY-MM-DD` format",
				Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: false,
			},
		},
		Action: generateAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

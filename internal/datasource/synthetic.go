package datasource

import (
	"math"
	"math/rand"
	"time"

	"github.com/tradeforge-lab/tradeforge/internal/types"
)

// Generator produces synthetic bar series for testing and demo data.
// A fixed seed gives reproducible output.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator seeded for reproducible series.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// GeneratorConfig controls the shape of a generated series.
type GeneratorConfig struct {
	// Instrument identifies the generated series.
	Instrument string
	// StartTime is the timestamp of the first bar.
	StartTime time.Time
	// Interval is the spacing between bars.
	Interval time.Duration
	// Count is the number of bars to generate.
	Count int
	// InitialPrice is the open of the first bar.
	InitialPrice float64
	// Volatility is the per-bar standard deviation of returns.
	Volatility float64
	// Trend is the total drift spread across the series.
	Trend float64
	// VolumeBase is the average volume per bar.
	VolumeBase float64
	// VolumeVariance is the relative volume spread, 0 to 1.
	VolumeVariance float64
}

// DefaultGeneratorConfig returns a neutral daily series of 252 bars.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Instrument:     "TEST",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       24 * time.Hour,
		Count:          252,
		InitialPrice:   100.0,
		Volatility:     0.01,
		Trend:          0.0,
		VolumeBase:     100000,
		VolumeVariance: 0.3,
	}
}

// Generate produces one instrument's bars following a geometric Brownian
// motion price path. Each bar's open is the previous close.
func (g *Generator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	price := config.InitialPrice
	barTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := price

		// Box-Muller normal draw
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		closePrice := open * (1 + config.Volatility*z + drift)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, closePrice) + highExtension

		low := math.Min(open, closePrice) - lowExtension
		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Instrument: config.Instrument,
			Time:       barTime,
			Open:       roundTo(open, 4),
			High:       roundTo(high, 4),
			Low:        roundTo(low, 4),
			Close:      roundTo(closePrice, 4),
			Volume:     roundTo(volume, 2),
		}

		price = closePrice
		barTime = barTime.Add(config.Interval)
	}

	return bars
}

// GenerateUniverse produces bars for several instruments sharing the same
// bar grid. Initial price and volatility vary slightly per instrument so
// the series are not clones of each other.
func (g *Generator) GenerateUniverse(instruments []string, base GeneratorConfig) []types.Bar {
	var bars []types.Bar

	for _, instrument := range instruments {
		config := base
		config.Instrument = instrument
		config.InitialPrice = base.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = base.Volatility * (0.8 + g.rng.Float64()*0.4)

		bars = append(bars, g.Generate(config)...)
	}

	return bars
}

func roundTo(value float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(value*pow) / pow
}

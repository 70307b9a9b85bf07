// Package backtest holds the run configuration shared by the engine and the
// matrix runner. A Context is validated once at construction and read-only
// afterwards.
package backtest

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"

	"github.com/tradeforge-lab/tradeforge/internal/backtest/engine/engine_v1/commission"
	"github.com/tradeforge-lab/tradeforge/internal/backtest/engine/engine_v1/slippage"
	"github.com/tradeforge-lab/tradeforge/internal/types"
	"github.com/tradeforge-lab/tradeforge/pkg/errors"
)

// Config is the YAML-facing run configuration.
type Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital in account currency,minimum=0" validate:"gt=0"`
	Universe       []string                   `yaml:"universe" json:"universe" jsonschema:"title=Universe,description=Instruments the run trades" validate:"min=1,dive,required"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional inclusive start of the replay window"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional inclusive end of the replay window"`
	Risk           types.RiskLimits           `yaml:"risk" json:"risk" jsonschema:"title=Risk Limits"`
	FeeModel       commission.ModelName       `yaml:"fee_model" json:"fee_model" jsonschema:"title=Fee Model,description=Commission model applied to every fill"`
	FeeBps         float64                    `yaml:"fee_bps" json:"fee_bps" jsonschema:"title=Fee Bps,description=Basis points for the percentage fee model" validate:"gte=0"`
	SlippageModel  slippage.ModelName         `yaml:"slippage_model" json:"slippage_model" jsonschema:"title=Slippage Model,description=Price impact model applied to every fill"`
	SlippageBps    float64                    `yaml:"slippage_bps" json:"slippage_bps" jsonschema:"title=Slippage Bps,description=Basis points for the fixed slippage model" validate:"gte=0"`
	PeriodsPerYear float64                    `yaml:"periods_per_year" json:"periods_per_year" jsonschema:"title=Periods Per Year,description=Annualization factor for the Sharpe ratio,default=252" validate:"gte=0"`
}

// UnmarshalYAML maps the nullable time fields onto options.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain struct {
		InitialCapital float64              `yaml:"initial_capital"`
		Universe       []string             `yaml:"universe"`
		StartTime      *time.Time           `yaml:"start_time"`
		EndTime        *time.Time           `yaml:"end_time"`
		Risk           *types.RiskLimits    `yaml:"risk"`
		FeeModel       commission.ModelName `yaml:"fee_model"`
		FeeBps         float64              `yaml:"fee_bps"`
		SlippageModel  slippage.ModelName   `yaml:"slippage_model"`
		SlippageBps    float64              `yaml:"slippage_bps"`
		PeriodsPerYear float64              `yaml:"periods_per_year"`
	}

	var parsed plain
	if err := unmarshal(&parsed); err != nil {
		return err
	}

	c.InitialCapital = parsed.InitialCapital
	c.Universe = parsed.Universe
	c.FeeModel = parsed.FeeModel
	c.FeeBps = parsed.FeeBps
	c.SlippageModel = parsed.SlippageModel
	c.SlippageBps = parsed.SlippageBps
	c.PeriodsPerYear = parsed.PeriodsPerYear

	if parsed.StartTime != nil {
		c.StartTime = optional.Some(*parsed.StartTime)
	}

	if parsed.EndTime != nil {
		c.EndTime = optional.Some(*parsed.EndTime)
	}

	if parsed.Risk != nil {
		c.Risk = *parsed.Risk
	} else {
		c.Risk = types.DefaultRiskLimits()
	}

	return nil
}

// GenerateSchema returns a JSON schema for Config, for editor tooling and
// config validation outside the engine.
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if strings.Contains(t.String(), "commission.ModelName") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission.AllModels,
				}
			}
			if strings.Contains(t.String(), "slippage.ModelName") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: slippage.AllModels,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-config"
	schema.Description = "Run configuration for the backtest engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// Context is the validated, immutable view of a Config handed to the
// engine. Accessors return copies so a run cannot mutate shared state.
type Context struct {
	config Config
}

// NewContext validates the configuration and freezes it. All validation
// failures carry ErrCodeInvalidConfiguration-range codes and fail the run
// before any bar is processed.
func NewContext(config Config) (*Context, error) {
	if config.PeriodsPerYear == 0 {
		config.PeriodsPerYear = 252
	}

	if config.InitialCapital <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidInitialCapital, "initial_capital must be positive, got %v", config.InitialCapital)
	}

	if len(config.Universe) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyUniverse, "universe must name at least one instrument")
	}

	seen := make(map[string]bool, len(config.Universe))
	for _, instrument := range config.Universe {
		if instrument == "" {
			return nil, errors.New(errors.ErrCodeEmptyUniverse, "universe contains an empty instrument name")
		}

		if seen[instrument] {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "duplicate instrument %q in universe", instrument)
		}

		seen[instrument] = true
	}

	if config.StartTime.IsSome() && config.EndTime.IsSome() {
		start := config.StartTime.Unwrap()
		end := config.EndTime.Unwrap()

		if !start.Before(end) {
			return nil, errors.Newf(errors.ErrCodeInvalidTimeRange, "start_time %s is not before end_time %s", start, end)
		}
	}

	if err := config.Risk.Validate(); err != nil {
		return nil, err
	}

	if !commission.ValidModel(config.FeeModel) {
		return nil, errors.Newf(errors.ErrCodeInvalidFeeModel, "unknown fee model %q", config.FeeModel)
	}

	if !slippage.ValidModel(config.SlippageModel) {
		return nil, errors.Newf(errors.ErrCodeInvalidSlippageModel, "unknown slippage model %q", config.SlippageModel)
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest configuration", err)
	}

	universe := make([]string, len(config.Universe))
	copy(universe, config.Universe)
	config.Universe = universe

	return &Context{config: config}, nil
}

func (c *Context) InitialCapital() float64 { return c.config.InitialCapital }

// Universe returns a copy of the instrument list.
func (c *Context) Universe() []string {
	universe := make([]string, len(c.config.Universe))
	copy(universe, c.config.Universe)

	return universe
}

// InUniverse reports whether the run trades the instrument.
func (c *Context) InUniverse(instrument string) bool {
	for _, candidate := range c.config.Universe {
		if candidate == instrument {
			return true
		}
	}

	return false
}

func (c *Context) StartTime() optional.Option[time.Time] { return c.config.StartTime }

func (c *Context) EndTime() optional.Option[time.Time] { return c.config.EndTime }

func (c *Context) Risk() types.RiskLimits { return c.config.Risk }

func (c *Context) PeriodsPerYear() float64 { return c.config.PeriodsPerYear }

// FeeModel builds the configured commission model.
func (c *Context) FeeModel() commission.Model {
	return commission.GetModel(c.config.FeeModel, c.config.FeeBps)
}

// SlippageModel builds the configured slippage model.
func (c *Context) SlippageModel() slippage.Model {
	return slippage.GetModel(c.config.SlippageModel, c.config.SlippageBps)
}

// WithUniverse returns a new validated Context restricted to the given
// instruments, keeping everything else. The matrix runner uses it to carve
// one cell's universe out of the run config.
func (c *Context) WithUniverse(instruments ...string) (*Context, error) {
	config := c.config
	config.Universe = instruments

	return NewContext(config)
}

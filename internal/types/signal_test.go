package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type SignalTestSuite struct {
	suite.Suite
}

func TestSignalSuite(t *testing.T) {
	suite.Run(t, new(SignalTestSuite))
}

func (suite *SignalTestSuite) TestValidate() {
	valid := Signal{
		Instrument: "AAPL",
		Action:     SignalActionBuy,
		Time:       time.Now(),
	}
	suite.NoError(valid.Validate())

	noInstrument := Signal{Action: SignalActionBuy}
	suite.Error(noInstrument.Validate())

	badAction := Signal{Instrument: "AAPL", Action: SignalAction("SHRUG")}
	suite.Error(badAction.Validate())
}

func (suite *SignalTestSuite) TestStrengthOrZero() {
	none := Signal{Instrument: "AAPL", Action: SignalActionHold}
	suite.Zero(none.StrengthOrZero())

	some := Signal{
		Instrument: "AAPL",
		Action:     SignalActionBuy,
		Strength:   optional.Some(0.75),
	}
	suite.InDelta(0.75, some.StrengthOrZero(), 1e-9)
}

func (suite *SignalTestSuite) TestStrengthIsClamped() {
	tooStrong := Signal{
		Instrument: "AAPL",
		Action:     SignalActionBuy,
		Strength:   optional.Some(5.0),
	}
	suite.Equal(1.0, tooStrong.StrengthOrZero())

	negative := Signal{
		Instrument: "AAPL",
		Action:     SignalActionSell,
		Strength:   optional.Some(-0.5),
	}
	suite.Zero(negative.StrengthOrZero())
}

package commission

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CommissionTestSuite struct {
	suite.Suite
}

func TestCommissionSuite(t *testing.T) {
	suite.Run(t, new(CommissionTestSuite))
}

func (suite *CommissionTestSuite) TestZeroCommission() {
	model := NewZeroCommission()
	suite.Zero(model.Calculate(1000, 100))
}

func (suite *CommissionTestSuite) TestPercentageCommission() {
	// 10 bps on a 100000 notional
	model := NewPercentageCommission(10)
	suite.InDelta(100.0, model.Calculate(1000, 100), 1e-9)

	suite.Zero(NewPercentageCommission(0).Calculate(1000, 100))
}

func (suite *CommissionTestSuite) TestInteractiveBrokerCommission() {
	model := NewInteractiveBrokerCommission()

	tests := []struct {
		name     string
		quantity float64
		expected float64
	}{
		{name: "minimum applies", quantity: 100, expected: 1.0},
		{name: "at the minimum boundary", quantity: 200, expected: 1.0},
		{name: "per share above minimum", quantity: 1000, expected: 5.0},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.InDelta(tt.expected, model.Calculate(tt.quantity, 100), 1e-9)
		})
	}
}

func (suite *CommissionTestSuite) TestGetModel() {
	suite.IsType(&ZeroCommission{}, GetModel(ModelZero, 0))
	suite.IsType(&ZeroCommission{}, GetModel("", 0))
	suite.IsType(&PercentageCommission{}, GetModel(ModelPercentage, 5))
	suite.IsType(&InteractiveBrokerCommission{}, GetModel(ModelInteractiveBroker, 0))
}

func (suite *CommissionTestSuite) TestValidModel() {
	suite.True(ValidModel(""))
	suite.True(ValidModel(ModelZero))
	suite.True(ValidModel(ModelPercentage))
	suite.True(ValidModel(ModelInteractiveBroker))
	suite.False(ValidModel("robinhood"))
}

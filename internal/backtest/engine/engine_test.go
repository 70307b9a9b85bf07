package engine

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) TestStateConstants() {
	suite.Equal(State("idle"), StateIdle)
	suite.Equal(State("running"), StateRunning)
	suite.Equal(State("finished"), StateFinished)
	suite.Equal(State("failed"), StateFailed)
}

func (suite *EngineTestSuite) TestOnProcessDataCallbackWithProgress() {
	var progress []int
	callback := OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)
		return nil
	})

	for i := 1; i <= 5; i++ {
		err := callback(i, 5)
		suite.NoError(err)
	}

	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
}

func (suite *EngineTestSuite) TestNilCallbacksAreSafeToCopy() {
	var callbacks LifecycleCallbacks

	copied := callbacks
	suite.Nil(copied.OnRunStart)
	suite.Nil(copied.OnProcessData)
	suite.Nil(copied.OnRunEnd)
}

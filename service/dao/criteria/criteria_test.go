package criteria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/procwise/procwise/runtime/execution"
	"github.com/procwise/procwise/service/dao"
)

func TestMatchProcess(t *testing.T) {
	aProcess := execution.NewProcess("p1", "tpl-1", "c1", "n", 7, "u1", time.Now())

	assert.True(t, MatchProcess(aProcess, nil))
	assert.True(t, MatchProcess(aProcess, []*dao.Parameter{dao.NewParameter(dao.ParamTemplateID, "tpl-1")}))
	assert.False(t, MatchProcess(aProcess, []*dao.Parameter{dao.NewParameter(dao.ParamTemplateID, "tpl-2")}))
	assert.True(t, MatchProcess(aProcess, []*dao.Parameter{dao.NewParameter(dao.ParamNumber, int64(7))}))
	assert.False(t, MatchProcess(aProcess, []*dao.Parameter{dao.NewParameter(dao.ParamNumber, int64(8))}))
	assert.True(t, MatchProcess(aProcess, []*dao.Parameter{dao.NewParameter(dao.ParamStatus, execution.StatusActive)}))
	assert.True(t, MatchProcess(aProcess, []*dao.Parameter{
		dao.NewParameter(dao.ParamStatus, []string{execution.StatusActive, execution.StatusCompleted}),
	}))
	assert.False(t, MatchProcess(aProcess, []*dao.Parameter{
		dao.NewParameter(dao.ParamStatus, []string{execution.StatusCancelled}),
	}))
}

func TestMatchStep(t *testing.T) {
	step := execution.NewStepExecution("se1", "p1", "s1", 2, "u1")

	assert.True(t, MatchStep(step, nil))
	assert.True(t, MatchStep(step, []*dao.Parameter{dao.NewParameter(dao.ParamProcessID, "p1")}))
	assert.False(t, MatchStep(step, []*dao.Parameter{dao.NewParameter(dao.ParamProcessID, "p2")}))
	assert.True(t, MatchStep(step, []*dao.Parameter{dao.NewParameter(dao.ParamAssignedUserID, "u1")}))
	assert.False(t, MatchStep(step, []*dao.Parameter{dao.NewParameter(dao.ParamAssignedUserID, "u2")}))
	assert.True(t, MatchStep(step, []*dao.Parameter{dao.NewParameter(dao.ParamStatus, execution.StepStatusWaiting)}))
	assert.False(t, MatchStep(step, []*dao.Parameter{dao.NewParameter(dao.ParamStatus, execution.StepStatusPending)}))
}

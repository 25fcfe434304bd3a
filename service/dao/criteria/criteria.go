// Package criteria contains the List filter predicates shared by the memory
// stores. SQL-backed stores translate the same parameters into WHERE clauses
// instead.
package criteria

import (
	"github.com/procwise/procwise/runtime/execution"
	"github.com/procwise/procwise/service/dao"
)

// MatchProcess applies the supported process filters: TemplateID, Number and
// Status. Unknown parameters are ignored.
func MatchProcess(p *execution.Process, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		switch parameter.Name {
		case dao.ParamTemplateID:
			if actual, ok := parameter.Value.(string); ok && p.TemplateID != actual {
				return false
			}
		case dao.ParamNumber:
			if actual, ok := parameter.Value.(int64); ok && p.Number != actual {
				return false
			}
		case dao.ParamStatus:
			if !matchStatus(p.Status, parameter.Value) {
				return false
			}
		}
	}
	return true
}

// MatchStep applies the supported step-execution filters: ProcessID,
// AssignedUserID and Status.
func MatchStep(s *execution.StepExecution, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		switch parameter.Name {
		case dao.ParamProcessID:
			if actual, ok := parameter.Value.(string); ok && s.ProcessID != actual {
				return false
			}
		case dao.ParamAssignedUserID:
			if actual, ok := parameter.Value.(string); ok && s.AssignedUserID != actual {
				return false
			}
		case dao.ParamStatus:
			if !matchStatus(s.Status, parameter.Value) {
				return false
			}
		}
	}
	return true
}

func matchStatus(status string, value interface{}) bool {
	switch actual := value.(type) {
	case string:
		return status == actual
	case []string:
		for _, s := range actual {
			if status == s {
				return true
			}
		}
		return false
	}
	return true
}

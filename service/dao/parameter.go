package dao

// Parameter is a name/value filter applied by List implementations. Stores
// ignore parameters they do not understand.
type Parameter struct {
	Name  string
	Value interface{}
}

// Well-known parameter names understood by the engine's stores.
const (
	ParamTemplateID     = "TemplateID"
	ParamProcessID      = "ProcessID"
	ParamNumber         = "Number"
	ParamStatus         = "Status"
	ParamAssignedUserID = "AssignedUserID"
)

func NewParameter(name string, value interface{}) *Parameter {
	return &Parameter{Name: name, Value: value}
}

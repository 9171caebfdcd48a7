package dao

// Well-known filter names understood by criteria.Match.
const (
	ParamStatus = "Status"
	ParamKind   = "Kind"
)

// Parameter is a named filter value; Value is a string or []string.
type Parameter struct {
	Name  string
	Value interface{}
}

func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

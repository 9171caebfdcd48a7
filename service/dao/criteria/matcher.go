package criteria

import (
	"github.com/viant/moderation/service/dao"
)

// Match reports whether fields satisfy every parameter.  A parameter whose
// name is absent from fields, or whose value is empty, does not filter.
func Match(fields map[string]string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		actual, ok := fields[parameter.Name]
		if !ok {
			continue
		}
		if !matchValue(actual, parameter.Value) {
			return false
		}
	}
	return true
}

func matchValue(actual string, expected interface{}) bool {
	switch candidate := expected.(type) {
	case string:
		return candidate == "" || candidate == actual
	case []string:
		if len(candidate) == 0 {
			return true
		}
		for _, s := range candidate {
			if s == actual {
				return true
			}
		}
		return false
	}
	return true
}

package rules

import "fmt"

// UnknownLogicTypeError indicates a rule references a logic_type no checker
// is registered for.
type UnknownLogicTypeError struct {
	LogicType string
}

func (e *UnknownLogicTypeError) Error() string {
	return fmt.Sprintf("unknown logic_type: %s", e.LogicType)
}

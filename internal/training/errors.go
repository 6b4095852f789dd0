package training

import "errors"

// ErrInvalidPlanParameters matches every PlanParameterError via errors.Is
var ErrInvalidPlanParameters = errors.New("invalid plan parameters")

// PlanParameterError reports why a plan cannot be generated
type PlanParameterError struct {
	Reason string
}

func (e *PlanParameterError) Error() string {
	return "invalid plan parameters: " + e.Reason
}

// Is lets errors.Is(err, ErrInvalidPlanParameters) succeed
func (e *PlanParameterError) Is(target error) bool {
	return target == ErrInvalidPlanParameters
}

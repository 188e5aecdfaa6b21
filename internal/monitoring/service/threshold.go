package service

import "github.com/halcyonsec/watchpost/internal/monitoring/model"

// EvaluateThreshold reports whether current triggers the (op, threshold)
// condition. Unknown operators evaluate to false so a misconfigured rule
// degrades to inert instead of firing spuriously or crashing the check loop.
func EvaluateThreshold(current float64, op model.CompareOp, threshold float64) bool {
	switch op {
	case model.OpGreaterThan:
		return current > threshold
	case model.OpGreaterOrEqual:
		return current >= threshold
	case model.OpLessThan:
		return current < threshold
	case model.OpLessOrEqual:
		return current <= threshold
	case model.OpEqual:
		return current == threshold
	case model.OpNotEqual:
		return current != threshold
	default:
		return false
	}
}

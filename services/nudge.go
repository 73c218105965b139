package services

import (
	"fmt"

	"econudge-dashboard/models"
)

// Threshold is the demand, in kVA, above which a nudge is triggered.
const Threshold = 2700.0

const (
	triggeredHeadline = "ACTIONABLE NUDGE TRIGGERED!"
	// Display text only; no alert is dispatched.
	triggeredAction = "Automated alert sent to Facility Warden to optimize HVAC in Sector 4."

	stableHeadline = "Campus Grid Stable."
	stableMessage  = "No localized interventions required at this time. Energy usage is within optimal parameters."
)

func Evaluate(predicted float64) models.NudgeStatus {
	return EvaluateAgainst(predicted, Threshold)
}

// EvaluateAgainst triggers only when predicted is strictly above threshold.
func EvaluateAgainst(predicted, threshold float64) models.NudgeStatus {
	if predicted > threshold {
		overage := predicted - threshold
		return models.NudgeStatus{
			State:     models.NudgeTriggered,
			Headline:  triggeredHeadline,
			Message:   fmt.Sprintf("Predicted surge exceeds safety threshold by %.2f kVA.", overage),
			Action:    triggeredAction,
			Overage:   overage,
			Threshold: threshold,
		}
	}
	return models.NudgeStatus{
		State:     models.NudgeStable,
		Headline:  stableHeadline,
		Message:   stableMessage,
		Threshold: threshold,
	}
}

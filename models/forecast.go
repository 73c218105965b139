package models

import "time"

type NudgeState string

const (
	NudgeStable    NudgeState = "STABLE"
	NudgeTriggered NudgeState = "TRIGGERED"
)

// PredictionResult is the model output for one FeatureRecord.
type PredictionResult struct {
	KVA float64 `json:"kva"`
}

// NudgeStatus is the classification of a prediction against the threshold.
// Overage is zero unless State is NudgeTriggered.
type NudgeStatus struct {
	State     NudgeState `json:"state"`
	Headline  string     `json:"headline"`
	Message   string     `json:"message"`
	Action    string     `json:"action,omitempty"`
	Overage   float64    `json:"overage_kva"`
	Threshold float64    `json:"threshold_kva"`
}

func (n NudgeStatus) Triggered() bool { return n.State == NudgeTriggered }

// ModelInfo identifies the artifact that produced a prediction.
type ModelInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Type    string `json:"type"`
}

type Forecast struct {
	TS         time.Time        `json:"ts"`
	Source     string           `json:"source,omitempty"`
	Features   FeatureRecord    `json:"features"`
	Prediction PredictionResult `json:"prediction"`
	Nudge      NudgeStatus      `json:"nudge"`
	Model      ModelInfo        `json:"model"`
}

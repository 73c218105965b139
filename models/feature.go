package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// FeatureNames is the column order every model artifact must declare.
var FeatureNames = []string{
	"apparent_temperature",
	"relative_humidity",
	"wind_speed",
	"hour",
	"day_of_week",
}

// FeatureRecord is one set of simulated conditions. It is built per
// interaction and never stored.
type FeatureRecord struct {
	ApparentTemperature float64 `json:"apparent_temperature"`
	RelativeHumidity    float64 `json:"relative_humidity"`
	WindSpeed           float64 `json:"wind_speed"`
	Hour                int     `json:"hour"`
	DayOfWeek           int     `json:"day_of_week"`
}

// ErrMissingFeatures is returned by FeatureInput.Record when a payload omits
// one of the five features.
var ErrMissingFeatures = errors.New("missing required features")

// FeatureInput is a FeatureRecord as decoded from an external payload. Zero
// is a valid hour and day, so absence is tracked with nil pointers.
type FeatureInput struct {
	ApparentTemperature *float64 `json:"apparent_temperature"`
	RelativeHumidity    *float64 `json:"relative_humidity"`
	WindSpeed           *float64 `json:"wind_speed"`
	Hour                *int     `json:"hour"`
	DayOfWeek           *int     `json:"day_of_week"`
}

// Record returns the complete record, or ErrMissingFeatures naming every
// absent field.
func (in FeatureInput) Record() (FeatureRecord, error) {
	var missing []string
	if in.ApparentTemperature == nil {
		missing = append(missing, "apparent_temperature")
	}
	if in.RelativeHumidity == nil {
		missing = append(missing, "relative_humidity")
	}
	if in.WindSpeed == nil {
		missing = append(missing, "wind_speed")
	}
	if in.Hour == nil {
		missing = append(missing, "hour")
	}
	if in.DayOfWeek == nil {
		missing = append(missing, "day_of_week")
	}
	if len(missing) > 0 {
		return FeatureRecord{}, fmt.Errorf("%w: %s", ErrMissingFeatures, strings.Join(missing, ", "))
	}
	return FeatureRecord{
		ApparentTemperature: *in.ApparentTemperature,
		RelativeHumidity:    *in.RelativeHumidity,
		WindSpeed:           *in.WindSpeed,
		Hour:                *in.Hour,
		DayOfWeek:           *in.DayOfWeek,
	}, nil
}

// Vector returns the record in FeatureNames order.
func (f FeatureRecord) Vector() []float64 {
	return []float64{
		f.ApparentTemperature,
		f.RelativeHumidity,
		f.WindSpeed,
		float64(f.Hour),
		float64(f.DayOfWeek),
	}
}

func (f FeatureRecord) Validate() error {
	var errs []error
	for i, v := range f.Vector()[:3] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s must be finite, got %v", FeatureNames[i], v))
		}
	}
	if f.Hour < 0 || f.Hour > 23 {
		errs = append(errs, fmt.Errorf("hour must be in [0,23], got %d", f.Hour))
	}
	if f.DayOfWeek < 0 || f.DayOfWeek > 6 {
		errs = append(errs, fmt.Errorf("day_of_week must be in [0,6], got %d", f.DayOfWeek))
	}
	return errors.Join(errs...)
}

package models

type ControlKind string

const (
	ControlSlider ControlKind = "slider"
	ControlSelect ControlKind = "select"
)

type ControlOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Control describes one dashboard input. Integer controls have Step 1.
type Control struct {
	Name    string          `json:"name"`
	Label   string          `json:"label"`
	Kind    ControlKind     `json:"kind"`
	Min     float64         `json:"min"`
	Max     float64         `json:"max"`
	Default float64         `json:"default"`
	Step    float64         `json:"step"`
	Options []ControlOption `json:"options,omitempty"`
}

// Clamp pins v into the control range, the way a slider would.
func (c Control) Clamp(v float64) float64 {
	if v < c.Min {
		return c.Min
	}
	if v > c.Max {
		return c.Max
	}
	return v
}

var DayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func dayOptions() []ControlOption {
	opts := make([]ControlOption, len(DayLabels))
	for i, label := range DayLabels {
		opts[i] = ControlOption{Value: i, Label: label}
	}
	return opts
}

// Controls lists the dashboard inputs in FeatureNames order.
var Controls = []Control{
	{Name: "apparent_temperature", Label: "Apparent Temperature (°C)", Kind: ControlSlider, Min: 10, Max: 45, Default: 30, Step: 0.1},
	{Name: "relative_humidity", Label: "Relative Humidity (%)", Kind: ControlSlider, Min: 10, Max: 100, Default: 60, Step: 0.1},
	{Name: "wind_speed", Label: "Wind Speed (km/h)", Kind: ControlSlider, Min: 0, Max: 50, Default: 15, Step: 0.1},
	{Name: "hour", Label: "Hour of Day", Kind: ControlSlider, Min: 0, Max: 23, Default: 14, Step: 1},
	{Name: "day_of_week", Label: "Day of Week", Kind: ControlSelect, Min: 0, Max: 6, Default: 0, Step: 1, Options: dayOptions()},
}

// DefaultFeatures is the record the dashboard shows before any input changes.
func DefaultFeatures() FeatureRecord {
	return FeatureRecord{
		ApparentTemperature: Controls[0].Default,
		RelativeHumidity:    Controls[1].Default,
		WindSpeed:           Controls[2].Default,
		Hour:                int(Controls[3].Default),
		DayOfWeek:           int(Controls[4].Default),
	}
}

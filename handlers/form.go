package handlers

import (
	"math"
	"strconv"

	"econudge-dashboard/models"

	"github.com/gin-gonic/gin"
)

// ParseFeatureForm reads the dashboard controls from the query string.
// Missing or unparsable values fall back to the control default and
// out-of-range values are pinned to the nearest bound, as a slider would.
func ParseFeatureForm(c *gin.Context) models.FeatureRecord {
	values := make([]float64, len(models.Controls))
	for i, ctl := range models.Controls {
		values[i] = ctl.Default

		raw := c.Query(ctl.Name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) {
			continue
		}
		if ctl.Step == 1 {
			v = math.Round(v)
		}
		values[i] = ctl.Clamp(v)
	}

	return models.FeatureRecord{
		ApparentTemperature: values[0],
		RelativeHumidity:    values[1],
		WindSpeed:           values[2],
		Hour:                int(values[3]),
		DayOfWeek:           int(values[4]),
	}
}

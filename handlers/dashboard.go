package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"econudge-dashboard/models"
	"econudge-dashboard/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.tmpl")
}

type optionView struct {
	Value    int
	Label    string
	Selected bool
}

type controlView struct {
	Name    string
	Label   string
	Select  bool
	Min     float64
	Max     float64
	Step    float64
	Value   float64
	Options []optionView
}

type dashboardView struct {
	Controls        []controlView
	Chart           chartView
	History         models.HistorySummary
	Forecast        *models.Forecast
	Predicted       string
	Threshold       string
	PredictionError string
}

type loadErrorView struct {
	Error string
}

type DashboardHandler struct {
	forecaster *services.Forecaster
	history    *services.HistoryGenerator
	cache      *services.CacheService
	printer    *message.Printer
	logger     *zap.Logger
}

func NewDashboardHandler(forecaster *services.Forecaster, history *services.HistoryGenerator, cache *services.CacheService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		forecaster: forecaster,
		history:    history,
		cache:      cache,
		printer:    message.NewPrinter(language.English),
		logger:     logger,
	}
}

// Show renders one full pass of the dashboard for the submitted controls.
// Without a model nothing but the error is rendered.
func (h *DashboardHandler) Show(c *gin.Context) {
	if _, err := h.forecaster.ModelInfo(); err != nil {
		_ = c.Error(err)
		c.HTML(http.StatusServiceUnavailable, "error.tmpl", loadErrorView{Error: err.Error()})
		return
	}

	rec := ParseFeatureForm(c)
	hist := h.history.Generate()

	view := dashboardView{
		Controls:  controlViews(rec),
		Chart:     buildChart(hist),
		History:   hist.Summary,
		Threshold: h.formatKVA(services.Threshold),
	}

	forecast, err := h.forecaster.Forecast(rec)
	switch {
	case services.IsModelLoadError(err):
		_ = c.Error(err)
		c.HTML(http.StatusServiceUnavailable, "error.tmpl", loadErrorView{Error: err.Error()})
		return
	case err != nil:
		_ = c.Error(err)
		view.PredictionError = err.Error()
	default:
		view.Forecast = &forecast
		view.Predicted = h.formatKVA(forecast.Prediction.KVA)
		go publishForecast(h.cache, forecast, h.logger)
	}

	c.HTML(http.StatusOK, "dashboard.tmpl", view)
}

func (h *DashboardHandler) formatKVA(v float64) string {
	return h.printer.Sprintf("%.2f kVA", v)
}

func controlViews(rec models.FeatureRecord) []controlView {
	current := rec.Vector()
	views := make([]controlView, len(models.Controls))
	for i, ctl := range models.Controls {
		v := controlView{
			Name:   ctl.Name,
			Label:  ctl.Label,
			Select: ctl.Kind == models.ControlSelect,
			Min:    ctl.Min,
			Max:    ctl.Max,
			Step:   ctl.Step,
			Value:  current[i],
		}
		for _, opt := range ctl.Options {
			v.Options = append(v.Options, optionView{
				Value:    opt.Value,
				Label:    opt.Label,
				Selected: float64(opt.Value) == current[i],
			})
		}
		views[i] = v
	}
	return views
}

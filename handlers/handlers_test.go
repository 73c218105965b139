package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"econudge-dashboard/config"
	"econudge-dashboard/models"
	"econudge-dashboard/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeModel struct {
	value float64
	err   error
	seen  []models.FeatureRecord
}

func (m *fakeModel) Predict(rec models.FeatureRecord) (float64, error) {
	m.seen = append(m.seen, rec)
	return m.value, m.err
}

func (m *fakeModel) Info() models.ModelInfo {
	return models.ModelInfo{Name: "fake", Version: "t1", Type: "linear"}
}

type fakeSource struct {
	model services.Model
	err   error
}

func (s *fakeSource) Load() (services.Model, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.model, nil
}

func newTestRouter(t *testing.T, src services.ModelSource) *gin.Engine {
	t.Helper()
	return newTestRouterWithCache(t, src, &services.CacheService{})
}

func newTestRouterWithCache(t *testing.T, src services.ModelSource, cache *services.CacheService) *gin.Engine {
	t.Helper()

	tmpl, err := LoadTemplates()
	if err != nil {
		t.Fatalf("LoadTemplates() error: %v", err)
	}

	logger := zap.NewNop()
	forecaster := services.NewForecaster(src, logger)
	history := services.NewHistoryGenerator(config.HistoryConfig{Seed: 42, Baseline: 2600, StdDev: 50, Points: 100}, nil)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.GET("/", NewDashboardHandler(forecaster, history, cache, logger).Show)
	r.GET("/api/v1/controls", GetControls)
	r.GET("/api/v1/history", NewHistoryHandler(history).GetHistory)
	r.POST("/api/v1/forecasts", NewForecastHandler(forecaster, cache, time.Minute, logger).Create)
	r.GET("/ws/live", LiveWebSocket(cache, logger))
	return r
}

func loadFailure() error {
	return &services.ModelLoadError{Path: "artifacts/missing.json", Err: errors.New("no such file or directory")}
}

func postForecast(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forecasts", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const scenarioBody = `{"apparent_temperature":30.0,"relative_humidity":60.0,"wind_speed":15.0,"hour":14,"day_of_week":0}`

func TestCreateForecastTriggered(t *testing.T) {
	model := &fakeModel{value: 2750.0}
	r := newTestRouter(t, &fakeSource{model: model})

	w := postForecast(r, scenarioBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got models.Forecast
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := models.FeatureRecord{ApparentTemperature: 30, RelativeHumidity: 60, WindSpeed: 15, Hour: 14, DayOfWeek: 0}
	if len(model.seen) != 1 || model.seen[0] != want {
		t.Errorf("model saw %+v, want %+v", model.seen, want)
	}
	if got.Nudge.State != models.NudgeTriggered {
		t.Errorf("nudge = %s, want TRIGGERED", got.Nudge.State)
	}
	if !strings.Contains(got.Nudge.Message, "50.00 kVA") {
		t.Errorf("message = %q", got.Nudge.Message)
	}
}

func TestCreateForecastStable(t *testing.T) {
	r := newTestRouter(t, &fakeSource{model: &fakeModel{value: 2650.0}})

	w := postForecast(r, scenarioBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got models.Forecast
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Nudge.State != models.NudgeStable {
		t.Errorf("nudge = %s, want STABLE", got.Nudge.State)
	}
}

func TestCreateForecastErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    *fakeSource
		body   string
		status int
	}{
		{"malformed json", &fakeSource{model: &fakeModel{value: 1}}, `{"hour":`, http.StatusBadRequest},
		{"fractional hour", &fakeSource{model: &fakeModel{value: 1}}, `{"hour":1.5}`, http.StatusBadRequest},
		{"empty object", &fakeSource{model: &fakeModel{value: 1}}, `{}`, http.StatusUnprocessableEntity},
		{"partial body", &fakeSource{model: &fakeModel{value: 1}}, `{"apparent_temperature":30}`, http.StatusUnprocessableEntity},
		{"missing day of week", &fakeSource{model: &fakeModel{value: 1}}, `{"apparent_temperature":30,"relative_humidity":60,"wind_speed":15,"hour":0}`, http.StatusUnprocessableEntity},
		{"hour out of range", &fakeSource{model: &fakeModel{value: 1}}, `{"apparent_temperature":30,"relative_humidity":60,"wind_speed":15,"hour":30,"day_of_week":0}`, http.StatusUnprocessableEntity},
		{"model failure", &fakeSource{model: &fakeModel{err: errors.New("bad shape")}}, scenarioBody, http.StatusUnprocessableEntity},
		{"model unavailable", &fakeSource{err: loadFailure()}, scenarioBody, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForecast(newTestRouter(t, tt.src), tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestCreateForecastIncompleteBodyNeverPredicts(t *testing.T) {
	for _, body := range []string{`{}`, `{"apparent_temperature":30}`} {
		model := &fakeModel{value: 2750.0}
		w := postForecast(newTestRouter(t, &fakeSource{model: model}), body)

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422", body, w.Code)
		}
		if len(model.seen) != 0 {
			t.Errorf("%s: model saw %+v, want no prediction", body, model.seen)
		}
		if !strings.Contains(w.Body.String(), "missing required features") {
			t.Errorf("%s: body = %s", body, w.Body.String())
		}
	}
}

func TestDashboardRendersForecast(t *testing.T) {
	model := &fakeModel{value: 2750.0}
	r := newTestRouter(t, &fakeSource{model: model})

	req := httptest.NewRequest(http.MethodGet, "/?apparent_temperature=30&relative_humidity=60&wind_speed=15&hour=14&day_of_week=0", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Simulate Future Conditions",
		"Recent Campus Energy Demand (kVA)",
		"<polygon",
		"Predicted Demand",
		"750.00 kVA",
		"ACTIONABLE NUDGE TRIGGERED!",
		"exceeds safety threshold by 50.00 kVA",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if len(model.seen) != 1 || model.seen[0] != models.DefaultFeatures() {
		t.Errorf("model saw %+v", model.seen)
	}
}

func TestDashboardStable(t *testing.T) {
	r := newTestRouter(t, &fakeSource{model: &fakeModel{value: 2650.0}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	body := w.Body.String()
	if !strings.Contains(body, "Campus Grid Stable.") {
		t.Error("page should show the stable banner")
	}
	if strings.Contains(body, "ACTIONABLE NUDGE") {
		t.Error("page should not show a triggered nudge")
	}
}

func TestDashboardModelLoadErrorHaltsPage(t *testing.T) {
	r := newTestRouter(t, &fakeSource{err: loadFailure()})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Error loading model") {
		t.Error("page should report the load error")
	}
	for _, absent := range []string{"Simulate Future Conditions", "Predicted Demand", "<polygon"} {
		if strings.Contains(body, absent) {
			t.Errorf("error page should not render %q", absent)
		}
	}
}

func TestDashboardPredictionErrorShowsNoValue(t *testing.T) {
	r := newTestRouter(t, &fakeSource{model: &fakeModel{err: errors.New("model exploded")}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Prediction unavailable") {
		t.Error("page should report the prediction error")
	}
	if strings.Contains(body, "Predicted Demand") || strings.Contains(body, "Campus Grid Stable.") {
		t.Error("page must not show a prediction or status after a prediction error")
	}
	if !strings.Contains(body, "<polygon") {
		t.Error("chart should still render")
	}
}

func TestGetControls(t *testing.T) {
	r := newTestRouter(t, &fakeSource{model: &fakeModel{}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/controls", nil))

	var got struct {
		Controls  []models.Control `json:"controls"`
		Threshold float64          `json:"threshold_kva"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Controls) != 5 || got.Threshold != 2700.0 {
		t.Errorf("controls = %d, threshold = %v", len(got.Controls), got.Threshold)
	}
}

func TestGetHistoryDeterministic(t *testing.T) {
	r := newTestRouter(t, &fakeSource{model: &fakeModel{}})

	fetch := func() models.History {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
		var h models.History
		if err := json.Unmarshal(w.Body.Bytes(), &h); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return h
	}

	a, b := fetch(), fetch()
	if len(a.Points) != 100 || a.Seed != 42 {
		t.Fatalf("history = %d points, seed %d", len(a.Points), a.Seed)
	}
	if a.Points[17] != b.Points[17] {
		t.Error("history should be identical across requests")
	}
}

func TestLiveWebSocketWithoutRedis(t *testing.T) {
	r := newTestRouter(t, &fakeSource{model: &fakeModel{}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/live", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func newRedisCache(t *testing.T) (*services.CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := services.NewCacheServiceWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCreateForecastServedFromCache(t *testing.T) {
	cache, mr := newRedisCache(t)
	model := &fakeModel{value: 2750.0}
	r := newTestRouterWithCache(t, &fakeSource{model: model}, cache)

	first := postForecast(r, scenarioBody)
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", first.Code, first.Body.String())
	}

	key := "forecast:fake@t1:30:60:15:14:0"
	waitFor(t, "cache write", func() bool { return mr.Exists(key) })

	second := postForecast(r, scenarioBody)
	if second.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", second.Code, second.Body.String())
	}
	if len(model.seen) != 1 {
		t.Errorf("model called %d times, want 1", len(model.seen))
	}

	var a, b models.Forecast
	if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !a.TS.Equal(b.TS) || a.Prediction != b.Prediction {
		t.Errorf("cached forecast = %+v, want %+v", b, a)
	}
}

func TestLiveWebSocketRelaysForecasts(t *testing.T) {
	cache, mr := newRedisCache(t)
	r := newTestRouterWithCache(t, &fakeSource{model: &fakeModel{value: 2750.0}}, cache)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/live", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitFor(t, "live subscription", func() bool {
		return mr.PubSubNumSub(services.LiveChannel)[services.LiveChannel] > 0
	})

	resp, err := http.Post(srv.URL+"/api/v1/forecasts", "application/json", strings.NewReader(scenarioBody))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope struct {
		Type string          `json:"type"`
		Data models.Forecast `json:"data"`
	}
	if err := conn.ReadJSON(&envelope); err != nil {
		t.Fatalf("read: %v", err)
	}
	if envelope.Type != "forecast" {
		t.Errorf("type = %q, want forecast", envelope.Type)
	}
	if envelope.Data.Prediction.KVA != 2750.0 || !envelope.Data.Nudge.Triggered() {
		t.Errorf("data = %+v", envelope.Data)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/feedlot/internal/config"
	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/ration"
	"github.com/mamadbah2/feedlot/internal/repository/memory"
	"github.com/mamadbah2/feedlot/internal/service/batches"
	"github.com/mamadbah2/feedlot/internal/service/feeding"
	"github.com/mamadbah2/feedlot/internal/service/readings"
	"github.com/mamadbah2/feedlot/internal/service/reporting"
	"github.com/mamadbah2/feedlot/internal/service/whatsapp"
)

var entryDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	store := memory.NewStore()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Failed to seed store: %v", err)
		}
	}
	must(store.PutLot(ctx, models.Lot{
		ID:                   "lot-1",
		Code:                 "L-01",
		Headcount:            100,
		EntryWeightKg:        350,
		ProjectedADG:         1.5,
		PlannedDurationDays:  90,
		CurrentIntakePerHead: 10,
		EntryDate:            entryDate,
		Active:               true,
	}))
	must(store.PutDiet(ctx, models.Diet{ID: "finish", Name: "Terminacao", DryMatterPercent: 80, CostPerKgAsFed: 1.1, Ingredients: []models.DietIngredient{
		{IngredientID: "corn", Name: "Milho", InclusionPercent: 100},
	}}))
	must(store.ReplaceDietPeriods(ctx, "lot-1", []models.DietPeriod{
		{LotID: "lot-1", StartDay: 1, EndDay: 90, DietID: "finish", TargetIntakePercentOfBodyweight: 2.2},
	}))
	must(store.PutIngredient(ctx, models.Ingredient{ID: "corn", Name: "Milho", AvailableKg: 300}))

	engineCfg := config.EngineConfig{
		Score:     ration.DefaultScoreConfig(),
		Validator: ration.DefaultValidatorConfig(),
		Projector: ration.DefaultProjectorConfig(),
	}
	notifier := whatsapp.NewNopService(nil)
	readingSvc := readings.NewService(store, store, notifier, engineCfg, nil)
	feedingSvc := feeding.NewService(store, store, store, nil, nil)
	batchSvc := batches.NewService(store, store, store, store, notifier, nil, nil)
	reportSvc := reporting.NewService(store, store, store, nil)

	rh := NewReadingHandler(readingSvc, nil)
	ph := NewPlanHandler(feedingSvc, batchSvc, nil)
	bh := NewBatchHandler(batchSvc, nil)
	rep := NewReportHandler(reportSvc, notifier, nil)

	r := gin.New()
	lots := r.Group("/lots/:lotId")
	lots.GET("/readings", rh.List)
	lots.GET("/readings/:date", rh.Get)
	lots.POST("/readings/:date/night", rh.RegisterNight)
	lots.POST("/readings/:date/morning", rh.RegisterMorning)
	lots.PUT("/readings/:date/morning", rh.CorrectMorning)
	lots.GET("/projection", ph.Projection)
	lots.GET("/plans/:date", ph.Get)
	lots.PUT("/plans/:date", ph.Save)
	lots.POST("/plans/:date/build", ph.Build)
	lots.POST("/plans/:date/batches", ph.PrepareBatches)
	r.GET("/batches", bh.List)
	r.POST("/batches", bh.Create)
	r.GET("/batches/:id", bh.Get)
	r.POST("/batches/:id/approve", bh.Approve)
	r.POST("/batches/:id/cancel", bh.Cancel)
	r.GET("/reports/daily", rep.Daily)
	r.POST("/messages", rep.SendMessage)
	return r, store
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestReadingLifecycle(t *testing.T) {
	r, _ := newTestEngine(t)

	w := do(t, r, http.MethodPost, "/lots/lot-1/readings/2026-03-30/night", `{"night_reading":"normal"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for night reading, got %d: %s", w.Code, w.Body)
	}

	morning := `{"diet_phase":"terminacao","morning_behavior":"deitados_calmos","bunk_status":"muitas_sobras"}`
	w = do(t, r, http.MethodPost, "/lots/lot-1/readings/2026-03-30/morning", morning)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 for morning reading, got %d: %s", w.Code, w.Body)
	}
	reading := decode[models.BunkReading](t, w)
	if !reading.Completed || reading.Score != -4 || reading.NewIntakePerHead != 9 {
		t.Errorf("Unexpected reading %+v", reading)
	}

	w = do(t, r, http.MethodPost, "/lots/lot-1/readings/2026-03-30/morning", morning)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for second morning reading, got %d", w.Code)
	}

	w = do(t, r, http.MethodPut, "/lots/lot-1/readings/2026-03-30/morning", `{"diet_phase":"terminacao","morning_behavior":"em_pe_tranquilos","bunk_status":"limpo","previous_intake_per_head":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for correction, got %d: %s", w.Code, w.Body)
	}
	if corrected := decode[models.BunkReading](t, w); corrected.Score != 1 || corrected.ID != reading.ID {
		t.Errorf("Expected corrected score 1 on reading %s, got %d on %s", reading.ID, corrected.Score, corrected.ID)
	}

	w = do(t, r, http.MethodGet, "/lots/lot-1/readings?from=2026-03-01&to=2026-03-31", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for history, got %d", w.Code)
	}
	if list := decode[map[string][]models.BunkReading](t, w)["readings"]; len(list) != 1 {
		t.Errorf("Expected one reading in history, got %d", len(list))
	}
}

func TestReadingErrors(t *testing.T) {
	r, _ := newTestEngine(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"bad date", http.MethodGet, "/lots/lot-1/readings/30-03-2026", "", http.StatusBadRequest},
		{"unknown enum", http.MethodPost, "/lots/lot-1/readings/2026-03-30/night", `{"night_reading":"meio"}`, http.StatusBadRequest},
		{"missing night value", http.MethodPost, "/lots/lot-1/readings/2026-03-30/night", `{}`, http.StatusBadRequest},
		{"missing bunk status", http.MethodPost, "/lots/lot-1/readings/2026-03-30/morning", `{"diet_phase":"terminacao","morning_behavior":"famintos"}`, http.StatusBadRequest},
		{"unknown lot", http.MethodPost, "/lots/ghost/readings/2026-03-30/night", `{"night_reading":"vazio"}`, http.StatusNotFound},
		{"missing reading", http.MethodGet, "/lots/lot-1/readings/2026-03-30", "", http.StatusNotFound},
		{"inverted range", http.MethodGet, "/lots/lot-1/readings?from=2026-03-10&to=2026-03-01", "", http.StatusBadRequest},
		{"correct before complete", http.MethodPut, "/lots/lot-1/readings/2026-03-30/morning", `{"diet_phase":"terminacao","morning_behavior":"famintos","bunk_status":"limpo"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(t, r, tt.method, tt.path, tt.body); w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body)
			}
		})
	}
}

func TestPlanEndpoints(t *testing.T) {
	r, _ := newTestEngine(t)

	w := do(t, r, http.MethodPost, "/lots/lot-1/plans/2026-03-10/build", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for build, got %d: %s", w.Code, w.Body)
	}
	plan := decode[models.FeedingPlan](t, w)
	if len(plan.Events) != 3 || plan.ReadingType != models.ReadingBaseline {
		t.Errorf("Expected baseline plan with 3 events, got %+v", plan)
	}

	w = do(t, r, http.MethodPut, "/lots/lot-1/plans/2026-03-10", `{"wagon_id":"W1","events":[{"time":"06:00","percent":50},{"time":"12:00","percent":49}]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for percents not summing to 100, got %d", w.Code)
	}

	w = do(t, r, http.MethodPut, "/lots/lot-1/plans/2026-03-10", `{"wagon_id":"W1","events":[{"time":"06:00","percent":50},{"time":"12:00","percent":50}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for save, got %d: %s", w.Code, w.Body)
	}

	w = do(t, r, http.MethodGet, "/lots/lot-1/plans/2026-03-10", "")
	if saved := decode[models.FeedingPlan](t, w); saved.WagonID != "W1" || len(saved.Events) != 2 {
		t.Errorf("Expected saved plan with wagon W1 and 2 events, got %+v", saved)
	}

	w = do(t, r, http.MethodPost, "/lots/lot-1/plans/2026-03-10/batches", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 for prepare, got %d: %s", w.Code, w.Body)
	}
	if created := decode[map[string][]models.Batch](t, w)["batches"]; len(created) != 2 {
		t.Errorf("Expected 2 batches, got %d", len(created))
	}
	if w := do(t, r, http.MethodPost, "/lots/lot-1/plans/2026-03-10/batches", ""); w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for second prepare, got %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/lots/lot-1/projection", "")
	if proj := decode[ration.Projection](t, w); len(proj.Days) != 90 {
		t.Errorf("Expected 90 projected days, got %d", len(proj.Days))
	}

	if w := do(t, r, http.MethodGet, "/lots/lot-1/plans/2026-03-11", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing plan, got %d", w.Code)
	}
}

func TestBatchEndpoints(t *testing.T) {
	r, store := newTestEngine(t)

	w := do(t, r, http.MethodPost, "/batches", `{"diet_id":"finish","wagon_id":"W1","quantity_kg":500,"at":"2026-03-10T06:00:00Z"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body)
	}
	batch := decode[models.Batch](t, w)

	w = do(t, r, http.MethodPost, "/batches/"+batch.ID+"/approve", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422 for shortage, got %d: %s", w.Code, w.Body)
	}
	body := decode[struct {
		Shortages []models.Shortage `json:"shortages"`
	}](t, w)
	if len(body.Shortages) != 1 || body.Shortages[0].ShortfallKg != 200 {
		t.Errorf("Expected corn short by 200 kg, got %+v", body.Shortages)
	}

	if err := store.PutIngredient(context.Background(), models.Ingredient{ID: "corn", Name: "Milho", AvailableKg: 800}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	w = do(t, r, http.MethodPost, "/batches/"+batch.ID+"/approve", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for approval, got %d: %s", w.Code, w.Body)
	}
	if approved := decode[models.Batch](t, w); approved.Status != models.BatchConcluded {
		t.Errorf("Expected CONCLUIDA, got %s", approved.Status)
	}

	if w := do(t, r, http.MethodPost, "/batches/"+batch.ID+"/cancel", ""); w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 cancelling a concluded batch, got %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/batches/ghost", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/batches?date=2026-03-10", "")
	if list := decode[map[string][]models.Batch](t, w)["batches"]; len(list) != 1 {
		t.Errorf("Expected one batch on 2026-03-10, got %d", len(list))
	}

	w = do(t, r, http.MethodGet, "/reports/daily?date=2026-03-10", "")
	if report := decode[models.DailyReport](t, w); report.BatchesConcluded != 1 || report.ConcludedKg != 500 {
		t.Errorf("Expected one concluded batch of 500 kg, got %+v", report)
	}
}

func TestSendMessage(t *testing.T) {
	r, _ := newTestEngine(t)

	if w := do(t, r, http.MethodPost, "/messages", `{"message":"teste"}`); w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/messages", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing message, got %d", w.Code)
	}
}

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mamadbah2/feedlot/internal/server/handlers"
)

func TestHealthz(t *testing.T) {
	r := New(Handlers{
		Readings: handlers.NewReadingHandler(nil, nil),
		Plans:    handlers.NewPlanHandler(nil, nil, nil),
		Batches:  handlers.NewBatchHandler(nil, nil),
		Reports:  handlers.NewReportHandler(nil, nil, nil),
	}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != `{"status":"ok"}` {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
}

func TestBadDateRejectedBeforeService(t *testing.T) {
	r := New(Handlers{
		Readings: handlers.NewReadingHandler(nil, nil),
		Plans:    handlers.NewPlanHandler(nil, nil, nil),
		Batches:  handlers.NewBatchHandler(nil, nil),
		Reports:  handlers.NewReportHandler(nil, nil, nil),
	}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/lots/lot-1/plans/tomorrow", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

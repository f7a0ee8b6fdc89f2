package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/repository"
)

var refDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func TestStore_NightAndMorningShareOneReading(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	empty := models.NightEmpty

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.UpsertNightReading(ctx, models.BunkReading{LotID: "lot-1", ReferenceDate: refDate.Add(20 * time.Hour), NightReading: &empty})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.CompleteReading(ctx, models.BunkReading{LotID: "lot-1", ReferenceDate: refDate, Score: 2}, true)
		}()
	}
	wg.Wait()

	readings, err := store.ListReadings(ctx, "lot-1", refDate, refDate)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("Expected exactly one reading for the key, got %d", len(readings))
	}
	if !readings[0].Completed || readings[0].Score != 2 {
		t.Errorf("Expected completed reading with score 2, got %+v", readings[0])
	}
}

func TestStore_CompleteReadingRejectsSecondMorning(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if _, err := store.CompleteReading(ctx, models.BunkReading{LotID: "lot-1", ReferenceDate: refDate, Score: 1}, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := store.CompleteReading(ctx, models.BunkReading{LotID: "lot-1", ReferenceDate: refDate, Score: 3}, false); !errors.Is(err, models.ErrState) {
		t.Fatalf("Expected state error on second morning reading, got %v", err)
	}
	full := models.NightFull
	if _, err := store.UpsertNightReading(ctx, models.BunkReading{LotID: "lot-1", ReferenceDate: refDate, NightReading: &full}); !errors.Is(err, models.ErrState) {
		t.Fatalf("Expected state error on late night reading, got %v", err)
	}
	corrected, err := store.CompleteReading(ctx, models.BunkReading{LotID: "lot-1", ReferenceDate: refDate, Score: 3}, true)
	if err != nil {
		t.Fatalf("Expected correction to succeed, got %v", err)
	}
	if corrected.Score != 3 {
		t.Errorf("Expected corrected score 3, got %d", corrected.Score)
	}
}

func TestStore_RecentScoresNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for i, score := range []int{1, 2, 3, 4} {
		day := refDate.AddDate(0, 0, i)
		if _, err := store.CompleteReading(ctx, models.BunkReading{LotID: "lot-1", ReferenceDate: day, Score: score}, false); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	scores, err := store.RecentScores(ctx, "lot-1", refDate.AddDate(0, 0, 3), 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(scores) != 2 || scores[0].Score != 3 || scores[1].Score != 2 {
		t.Fatalf("Expected scores [3 2], got %v", scores)
	}
	if !scores[0].Date.Equal(refDate.AddDate(0, 0, 2)) {
		t.Errorf("Expected newest score dated %s, got %s", models.FormatDate(refDate.AddDate(0, 0, 2)), models.FormatDate(scores[0].Date))
	}
}

func TestStore_CompleteBatchDeductsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.PutIngredient(ctx, models.Ingredient{ID: "corn", Name: "Corn", AvailableKg: 1000})
	_ = store.CreateBatch(ctx, models.Batch{ID: "b1", Status: models.BatchPreparing, At: refDate})

	draws := []models.StockDraw{{IngredientID: "corn", Name: "Corn", QuantityKg: 400}}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.CompleteBatch(ctx, "b1", draws, refDate)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, models.ErrState):
				conflicts++
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != 9 {
		t.Fatalf("Expected 1 success and 9 state conflicts, got %d and %d", successes, conflicts)
	}
	stock, _ := store.AvailableStock(ctx, "corn")
	if stock != 600 {
		t.Errorf("Expected 600 kg left after a single deduction, got %.2f", stock)
	}
	if len(store.Movements()) != 1 {
		t.Errorf("Expected one stock movement, got %d", len(store.Movements()))
	}
}

func TestStore_CompleteBatchListsEveryShortage(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.PutIngredient(ctx, models.Ingredient{ID: "corn", AvailableKg: 300})
	_ = store.PutIngredient(ctx, models.Ingredient{ID: "soy", AvailableKg: 50})
	_ = store.PutIngredient(ctx, models.Ingredient{ID: "salt", AvailableKg: 100})
	_ = store.CreateBatch(ctx, models.Batch{ID: "b1", Status: models.BatchPreparing})

	err := store.CompleteBatch(ctx, "b1", []models.StockDraw{
		{IngredientID: "corn", QuantityKg: 500},
		{IngredientID: "soy", QuantityKg: 80},
		{IngredientID: "salt", QuantityKg: 10},
	}, refDate)

	var stockErr *models.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("Expected stock error, got %v", err)
	}
	if len(stockErr.Shortages) != 2 {
		t.Fatalf("Expected 2 shortages, got %+v", stockErr.Shortages)
	}
	if stockErr.Shortages[0].ShortfallKg != 200 || stockErr.Shortages[1].ShortfallKg != 30 {
		t.Errorf("Expected shortfalls 200 and 30, got %+v", stockErr.Shortages)
	}

	b, _ := store.GetBatch(ctx, "b1")
	if b.Status != models.BatchPreparing {
		t.Errorf("Expected batch to stay PREPARANDO, got %s", b.Status)
	}
	salt, _ := store.AvailableStock(ctx, "salt")
	if salt != 100 {
		t.Errorf("Expected salt untouched, got %.2f", salt)
	}
}

func TestStore_LatestPlanBefore(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for i := 0; i < 3; i++ {
		_, err := store.SavePlan(ctx, models.FeedingPlan{LotID: "lot-1", Date: refDate.AddDate(0, 0, i), WagonID: "w" + string(rune('1'+i))})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	p, err := store.LatestPlanBefore(ctx, "lot-1", refDate.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.WagonID != "w2" {
		t.Errorf("Expected plan of the previous day, got wagon %s", p.WagonID)
	}
	if _, err := store.LatestPlanBefore(ctx, "lot-1", refDate); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected not found before the first plan, got %v", err)
	}

	saved, _ := store.SavePlan(ctx, models.FeedingPlan{LotID: "lot-1", Date: refDate, WagonID: "w9"})
	again, _ := store.GetPlan(ctx, "lot-1", refDate)
	if again.ID != saved.ID || again.WagonID != "w9" {
		t.Errorf("Expected upsert to keep the id and replace fields, got %+v", again)
	}
}

func TestStore_CreateBatchRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	at := refDate.Add(6 * time.Hour)

	if err := store.CreateBatch(ctx, models.Batch{ID: "b1", Code: "BAT-1", LotID: "lot-1", At: at, PlanEvent: 1}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := store.CreateBatch(ctx, models.Batch{ID: "b1", Code: "BAT-2"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("Expected duplicate error for reused id, got %v", err)
	}
	if err := store.CreateBatch(ctx, models.Batch{ID: "b2", Code: "BAT-1"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("Expected duplicate error for reused code, got %v", err)
	}
	if err := store.CreateBatch(ctx, models.Batch{ID: "b3", Code: "BAT-3", LotID: "lot-1", At: at.Add(time.Hour), PlanEvent: 1}); !errors.Is(err, models.ErrState) {
		t.Errorf("Expected state error for a taken plan event, got %v", err)
	}

	if err := store.CancelBatch(ctx, "b1", at); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := store.CreateBatch(ctx, models.Batch{ID: "b4", Code: "BAT-4", LotID: "lot-1", At: at, PlanEvent: 1}); err != nil {
		t.Errorf("Expected plan event to be free after cancellation, got %v", err)
	}
}

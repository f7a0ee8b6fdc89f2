package readings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mamadbah2/feedlot/internal/config"
	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/ration"
	"github.com/mamadbah2/feedlot/internal/repository/memory"
)

var (
	entryDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day30     = entryDate.AddDate(0, 0, 29)
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func engine() config.EngineConfig {
	return config.EngineConfig{
		Score:     ration.DefaultScoreConfig(),
		Validator: ration.DefaultValidatorConfig(),
		Projector: ration.DefaultProjectorConfig(),
	}
}

func setup(t *testing.T) (*Service, *memory.Store, *recordingNotifier) {
	t.Helper()
	store := memory.NewStore()
	err := store.PutLot(context.Background(), models.Lot{
		ID:                   "lot-1",
		Code:                 "L-01",
		Headcount:            100,
		EntryWeightKg:        350,
		ProjectedADG:         1.5,
		PlannedDurationDays:  90,
		CurrentIntakePerHead: 10,
		EntryDate:            entryDate,
		Active:               true,
	})
	if err != nil {
		t.Fatalf("Failed to seed lot: %v", err)
	}
	notifier := &recordingNotifier{}
	return NewService(store, store, notifier, engine(), nil), store, notifier
}

func morning(status models.BunkStatus, behavior models.MorningBehavior) MorningInput {
	return MorningInput{
		LotID:      "lot-1",
		Date:       day30,
		DietPhase:  models.PhaseFinishing,
		Behavior:   behavior,
		BunkStatus: status,
	}
}

func TestRegisterMorningReading_HeavyLeftoversCalmLot(t *testing.T) {
	svc, store, notifier := setup(t)
	ctx := context.Background()

	r, err := svc.RegisterMorningReading(ctx, morning(models.BunkHeavyLeftovers, models.BehaviorLyingCalm))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if r.AdjustmentPercent >= 0 {
		t.Errorf("Expected negative adjustment, got %v", r.AdjustmentPercent)
	}
	if r.DaysOnFeed != 30 {
		t.Errorf("Expected days on feed 30 derived from entry date, got %d", r.DaysOnFeed)
	}
	if r.NewIntakePerHead != 9 || r.TotalNew != 900 {
		t.Errorf("Expected 9 kg/head and 900 kg total, got %v and %v", r.NewIntakePerHead, r.TotalNew)
	}
	if !containsAlert(r.Alerts, "overfeeding risk") {
		t.Errorf("Expected overfeeding alert, got %v", r.Alerts)
	}

	lot, _ := store.GetLot(ctx, "lot-1")
	if lot.CurrentIntakePerHead != 9 {
		t.Errorf("Expected lot intake updated to 9, got %v", lot.CurrentIntakePerHead)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "L-01") {
		t.Errorf("Expected one operator notification for L-01, got %v", notifier.messages)
	}
}

func TestRegisterMorningReading_UsesNightReading(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.RegisterNightReading(ctx, "lot-1", day30, models.NightEmpty); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	r, err := svc.RegisterMorningReading(ctx, morning(models.BunkHeavyLeftovers, models.BehaviorLyingCalm))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if r.NightReading == nil || *r.NightReading != models.NightEmpty {
		t.Fatalf("Expected night reading to be kept, got %v", r.NightReading)
	}
	if r.Score != -3 {
		t.Errorf("Expected empty night to lift score to -3, got %d", r.Score)
	}
	if !containsAlert(r.Alerts, "inconsistent readings") {
		t.Errorf("Expected inconsistency alert, got %v", r.Alerts)
	}
}

func TestRegisterMorningReading_RejectsSecondMorning(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.RegisterMorningReading(ctx, morning(models.BunkClean, models.BehaviorAnxious)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	_, err := svc.RegisterMorningReading(ctx, morning(models.BunkLicked, models.BehaviorHungry))
	if !errors.Is(err, models.ErrState) {
		t.Fatalf("Expected state error, got %v", err)
	}
	if _, err := svc.RegisterNightReading(ctx, "lot-1", day30, models.NightFull); !errors.Is(err, models.ErrState) {
		t.Fatalf("Expected state error for night reading on complete reading, got %v", err)
	}
}

func TestCorrectMorningReading(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.CorrectMorningReading(ctx, morning(models.BunkClean, models.BehaviorAnxious)); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Expected not found before any reading, got %v", err)
	}
	if _, err := svc.RegisterNightReading(ctx, "lot-1", day30, models.NightNormal); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := svc.CorrectMorningReading(ctx, morning(models.BunkClean, models.BehaviorAnxious)); !errors.Is(err, models.ErrState) {
		t.Fatalf("Expected state error for incomplete reading, got %v", err)
	}

	first, err := svc.RegisterMorningReading(ctx, morning(models.BunkClean, models.BehaviorAnxious))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	in := morning(models.BunkClean, models.BehaviorAnxious)
	prev := 10.0
	in.PreviousIntakePerHead = &prev
	in.Behavior = models.BehaviorLyingCalm
	corrected, err := svc.CorrectMorningReading(ctx, in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if corrected.ID != first.ID {
		t.Errorf("Expected correction to keep id %s, got %s", first.ID, corrected.ID)
	}
	if corrected.Score != 0 || corrected.NewIntakePerHead != 10 {
		t.Errorf("Expected score 0 and unchanged intake, got %d and %v", corrected.Score, corrected.NewIntakePerHead)
	}

	lot, _ := store.GetLot(ctx, "lot-1")
	if lot.CurrentIntakePerHead != 10 {
		t.Errorf("Expected lot intake 10 after correction, got %v", lot.CurrentIntakePerHead)
	}
}

func TestRegisterMorningReading_BackfillKeepsLatestIntake(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.RegisterMorningReading(ctx, morning(models.BunkLicked, models.BehaviorHungry)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	lot, _ := store.GetLot(ctx, "lot-1")
	if lot.CurrentIntakePerHead != 11 {
		t.Fatalf("Expected lot intake 11 after day 30, got %v", lot.CurrentIntakePerHead)
	}

	in := morning(models.BunkHeavyLeftovers, models.BehaviorLyingCalm)
	in.Date = entryDate.AddDate(0, 0, 24)
	backfilled, err := svc.RegisterMorningReading(ctx, in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if backfilled.PreviousIntakePerHead != 10 || backfilled.NewIntakePerHead != 9 {
		t.Errorf("Expected backfill projected from 10 to 9, got %v to %v", backfilled.PreviousIntakePerHead, backfilled.NewIntakePerHead)
	}

	lot, _ = store.GetLot(ctx, "lot-1")
	if lot.CurrentIntakePerHead != 11 {
		t.Errorf("Expected lot intake to stay 11 after backfill, got %v", lot.CurrentIntakePerHead)
	}
}

func TestCorrectMorningReading_ReusesPreviousIntake(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.RegisterMorningReading(ctx, morning(models.BunkLicked, models.BehaviorHungry)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	corrected, err := svc.CorrectMorningReading(ctx, morning(models.BunkHeavyLeftovers, models.BehaviorLyingCalm))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if corrected.PreviousIntakePerHead != 10 || corrected.NewIntakePerHead != 9 {
		t.Errorf("Expected correction projected from 10 to 9, got %v to %v", corrected.PreviousIntakePerHead, corrected.NewIntakePerHead)
	}
	lot, _ := store.GetLot(ctx, "lot-1")
	if lot.CurrentIntakePerHead != 9 {
		t.Errorf("Expected lot intake 9 after correction, got %v", lot.CurrentIntakePerHead)
	}
}

func TestRegisterMorningReading_ValidatesBeforePersisting(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	in := morning(models.BunkStatus(42), models.BehaviorHungry)
	if _, err := svc.RegisterMorningReading(ctx, in); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if _, err := store.GetReading(ctx, "lot-1", day30); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected nothing persisted, got %v", err)
	}

	in = morning(models.BunkClean, models.BehaviorHungry)
	in.LotID = "missing"
	if _, err := svc.RegisterMorningReading(ctx, in); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected not found for unknown lot, got %v", err)
	}

	in = morning(models.BunkClean, models.BehaviorHungry)
	in.Date = entryDate.AddDate(0, 0, -3)
	if _, err := svc.RegisterMorningReading(ctx, in); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error before entry date, got %v", err)
	}
}

func TestRegisterMorningReading_FlagsScoreJump(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	in := morning(models.BunkLicked, models.BehaviorHungry)
	in.Date = day30.AddDate(0, 0, -1)
	if _, err := svc.RegisterMorningReading(ctx, in); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	r, err := svc.RegisterMorningReading(ctx, morning(models.BunkHeavyLeftovers, models.BehaviorLyingCalm))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !containsAlert(r.Alerts, "jumped") {
		t.Errorf("Expected score jump alert, got %v", r.Alerts)
	}
}

func TestListReadings(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	for i := range 3 {
		in := morning(models.BunkClean, models.BehaviorStandingCalm)
		in.Date = day30.AddDate(0, 0, i)
		if _, err := svc.RegisterMorningReading(ctx, in); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	list, err := svc.ListReadings(ctx, "lot-1", day30, day30.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(list) != 2 || !list[0].ReferenceDate.Equal(day30) {
		t.Errorf("Expected two readings starting at %s, got %d", models.FormatDate(day30), len(list))
	}

	if _, err := svc.ListReadings(ctx, "lot-1", day30, entryDate); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error for inverted range, got %v", err)
	}
}

func containsAlert(alerts []string, fragment string) bool {
	for _, a := range alerts {
		if strings.Contains(a, fragment) {
			return true
		}
	}
	return false
}

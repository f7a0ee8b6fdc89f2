package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

const (
	plansTab   = "Planos"
	batchesTab = "Batidas"
)

var (
	planHeader  = []interface{}{"data", "lote", "vagao", "dieta", "leitura", "base_kg", "ajustado_kg", "tratos", "alertas"}
	batchHeader = []interface{}{"codigo", "horario", "lote", "dieta", "vagao", "quantidade_kg", "status", "encerrada_em"}
)

// Journal keeps an operator-facing log of saved plans and finished batches.
type Journal interface {
	RecordFeedingPlan(ctx context.Context, plan models.FeedingPlan) error
	RecordBatch(ctx context.Context, batch models.Batch) error
}

// SheetJournal writes journal rows through a Writer, creating each tab's
// header on first use.
type SheetJournal struct {
	writer Writer

	mu      sync.Mutex
	headers map[string]bool
}

// NewSheetJournal wires a journal over writer.
func NewSheetJournal(writer Writer) *SheetJournal {
	return &SheetJournal{writer: writer, headers: make(map[string]bool)}
}

func (j *SheetJournal) write(ctx context.Context, tab string, header, row []interface{}) error {
	j.mu.Lock()
	ready := j.headers[tab]
	j.mu.Unlock()

	if !ready {
		if err := j.writer.EnsureHeader(ctx, tab, header); err != nil {
			return err
		}
		j.mu.Lock()
		j.headers[tab] = true
		j.mu.Unlock()
	}
	return j.writer.AppendRow(ctx, tab, row)
}

// RecordFeedingPlan appends one row per plan with its events flattened.
func (j *SheetJournal) RecordFeedingPlan(ctx context.Context, plan models.FeedingPlan) error {
	events := make([]string, 0, len(plan.Events))
	for _, e := range plan.Events {
		events = append(events, fmt.Sprintf("%s %.2f%% %.2fkg", e.Time, e.Percent, e.QuantityKg))
	}
	row := []interface{}{
		models.FormatDate(plan.Date),
		plan.LotID,
		plan.WagonID,
		plan.DietID,
		plan.ReadingType.String(),
		plan.BaseQuantityKg,
		plan.AdjustedQuantityKg,
		strings.Join(events, " | "),
		strings.Join(plan.Alerts, " | "),
	}
	return j.write(ctx, plansTab, planHeader, row)
}

// RecordBatch appends the final state of a batch.
func (j *SheetJournal) RecordBatch(ctx context.Context, batch models.Batch) error {
	var closedAt string
	switch {
	case batch.CompletedAt != nil:
		closedAt = batch.CompletedAt.UTC().Format(time.RFC3339)
	case batch.CancelledAt != nil:
		closedAt = batch.CancelledAt.UTC().Format(time.RFC3339)
	}
	row := []interface{}{
		batch.Code,
		batch.At.UTC().Format(time.RFC3339),
		batch.LotID,
		batch.DietID,
		batch.WagonID,
		batch.QuantityKg,
		batch.Status.String(),
		closedAt,
	}
	return j.write(ctx, batchesTab, batchHeader, row)
}

// NopJournal discards every record.
type NopJournal struct{}

// RecordFeedingPlan does nothing.
func (NopJournal) RecordFeedingPlan(context.Context, models.FeedingPlan) error { return nil }

// RecordBatch does nothing.
func (NopJournal) RecordBatch(context.Context, models.Batch) error { return nil }

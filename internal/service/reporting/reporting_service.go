package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/feedlot/internal/domain/models"
	"github.com/mamadbah2/feedlot/internal/ration"
	"github.com/mamadbah2/feedlot/internal/repository"
)

// Service builds the daily operations summary sent to the operator.
type Service struct {
	lots     repository.LotRepository
	readings repository.ReadingRepository
	batches  repository.BatchRepository
	logger   *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(lots repository.LotRepository, readings repository.ReadingRepository, batches repository.BatchRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{lots: lots, readings: readings, batches: batches, logger: logger}
}

// DailySummary aggregates the readings and batches of date.
func (s *Service) DailySummary(ctx context.Context, date time.Time) (models.DailyReport, error) {
	date = models.DateOnly(date)
	report := models.DailyReport{Date: date}

	lots, err := s.lots.ListActiveLots(ctx)
	if err != nil {
		return report, fmt.Errorf("load active lots: %w", err)
	}
	readings, err := s.readings.ListReadingsByDate(ctx, date)
	if err != nil {
		return report, fmt.Errorf("load readings: %w", err)
	}
	byLot := make(map[string]models.BunkReading, len(readings))
	for _, r := range readings {
		byLot[r.LotID] = r
	}

	for _, lot := range lots {
		r, ok := byLot[lot.ID]
		if !ok || !r.Completed {
			report.MissingReadings = append(report.MissingReadings, label(lot))
			continue
		}
		report.Lots = append(report.Lots, models.LotDaySummary{
			LotID:             lot.ID,
			LotCode:           label(lot),
			Completed:         true,
			Score:             r.Score,
			AdjustmentPercent: r.AdjustmentPercent,
			NewIntakePerHead:  r.NewIntakePerHead,
			TotalNew:          r.TotalNew,
			Alerts:            r.Alerts,
		})
		report.AlertCount += len(r.Alerts)
	}

	batches, err := s.batches.ListBatchesByDate(ctx, date)
	if err != nil {
		return report, fmt.Errorf("load batches: %w", err)
	}
	for _, b := range batches {
		switch b.Status {
		case models.BatchConcluded:
			report.BatchesConcluded++
			report.ConcludedKg += b.QuantityKg
		case models.BatchCancelled:
			report.BatchesCancelled++
		case models.BatchPreparing:
			report.BatchesPending++
		}
	}
	report.ConcludedKg = ration.Round2(report.ConcludedKg)

	s.logger.Debug("daily summary built",
		zap.String("date", models.FormatDate(date)),
		zap.Int("lots", len(report.Lots)),
		zap.Int("missing", len(report.MissingReadings)),
		zap.Int("alerts", report.AlertCount))
	return report, nil
}

// Format renders a report as a short operator message.
func Format(report models.DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resumo %s\n", models.FormatDate(report.Date))

	if len(report.Lots) == 0 {
		b.WriteString("Nenhuma leitura de cocho concluida.\n")
	}
	for _, l := range report.Lots {
		fmt.Fprintf(&b, "%s: nota %d, ajuste %+.2f%%, %.2f kg\n", l.LotCode, l.Score, l.AdjustmentPercent, l.TotalNew)
		for _, a := range l.Alerts {
			fmt.Fprintf(&b, "  ! %s\n", a)
		}
	}
	if len(report.MissingReadings) > 0 {
		fmt.Fprintf(&b, "Sem leitura: %s\n", strings.Join(report.MissingReadings, ", "))
	}
	fmt.Fprintf(&b, "Batidas: %d concluidas (%.2f kg), %d canceladas, %d pendentes",
		report.BatchesConcluded, report.ConcludedKg, report.BatchesCancelled, report.BatchesPending)
	return b.String()
}

func label(lot models.Lot) string {
	if lot.Code != "" {
		return lot.Code
	}
	return lot.ID
}

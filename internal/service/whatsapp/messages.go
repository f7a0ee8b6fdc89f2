package whatsapp

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// ReadingAlertMessage renders the advisory alerts of a completed reading.
func ReadingAlertMessage(lotCode string, r models.BunkReading) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Leitura de cocho %s (%s)\n", lotCode, models.FormatDate(r.ReferenceDate))
	fmt.Fprintf(&b, "Nota %d, ajuste %+.2f%%, consumo %.3f -> %.3f kg/cab\n", r.Score, r.AdjustmentPercent, r.PreviousIntakePerHead, r.NewIntakePerHead)
	for _, alert := range r.Alerts {
		b.WriteString("- ")
		b.WriteString(alert)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ShortageMessage renders a failed batch approval.
func ShortageMessage(batch models.Batch, stockErr *models.StockError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batida %s sem estoque suficiente (%.2f kg)\n", batch.Code, batch.QuantityKg)
	for _, s := range stockErr.Shortages {
		name := s.Name
		if name == "" {
			name = s.IngredientID
		}
		fmt.Fprintf(&b, "- %s: falta %.2f kg (necessario %.2f, disponivel %.2f)\n", name, s.ShortfallKg, s.RequiredKg, s.AvailableKg)
	}
	return strings.TrimRight(b.String(), "\n")
}

package models

import "time"

// BatchStatus is the lifecycle state of a mixed feed batch (batida).
type BatchStatus int

const (
	BatchPreparing BatchStatus = iota
	BatchConcluded
	BatchCancelled

	batchStatusCount
)

var batchStatusNames = [batchStatusCount]string{
	BatchPreparing: "PREPARANDO",
	BatchConcluded: "CONCLUIDA",
	BatchCancelled: "CANCELADA",
}

func (s BatchStatus) String() string { return enumName(batchStatusNames[:], int(s)) }

// Terminal reports whether no further transition is allowed from s.
func (s BatchStatus) Terminal() bool {
	switch s {
	case BatchConcluded, BatchCancelled:
		return true
	default:
		return false
	}
}

// ParseBatchStatus resolves "PREPARANDO", "CONCLUIDA" or "CANCELADA".
func ParseBatchStatus(value string) (BatchStatus, error) {
	for i, name := range batchStatusNames {
		if name == value {
			return BatchStatus(i), nil
		}
	}
	return 0, NewValidationError("status", "unknown batch status %q", value)
}

func (s BatchStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *BatchStatus) UnmarshalText(text []byte) error {
	v, err := ParseBatchStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Batch is a physical feed mix prepared in a wagon. PlanEvent is the order of
// the plan event it was prepared for, zero for batches created by hand.
type Batch struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"`
	DietID      string      `json:"diet_id"`
	WagonID     string      `json:"wagon_id"`
	LotID       string      `json:"lot_id,omitempty"`
	QuantityKg  float64     `json:"quantity_kg"`
	At          time.Time   `json:"at"`
	PlanEvent   int         `json:"plan_event,omitempty"`
	Status      BatchStatus `json:"status"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	CancelledAt *time.Time  `json:"cancelled_at,omitempty"`
}

// PlanSlotTaken reports that a lot's plan for date already has an active
// batch for one of its events.
func PlanSlotTaken(lotID string, date time.Time) *StateError {
	return &StateError{
		Entity: "feeding plan",
		Key:    lotID + "@" + FormatDate(date),
		State:  "batches prepared",
		Action: "prepare batches for",
	}
}

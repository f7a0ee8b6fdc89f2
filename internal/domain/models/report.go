package models

import "time"

// LotDaySummary is one lot's line in the daily operations report.
type LotDaySummary struct {
	LotID             string   `json:"lot_id"`
	LotCode           string   `json:"lot_code"`
	Completed         bool     `json:"completed"`
	Score             int      `json:"score"`
	AdjustmentPercent float64  `json:"adjustment_percent"`
	NewIntakePerHead  float64  `json:"new_intake_per_head"`
	TotalNew          float64  `json:"total_new"`
	Alerts            []string `json:"alerts,omitempty"`
}

// DailyReport aggregates the readings and batches of one day.
type DailyReport struct {
	Date             time.Time       `json:"date"`
	Lots             []LotDaySummary `json:"lots"`
	MissingReadings  []string        `json:"missing_readings,omitempty"`
	BatchesConcluded int             `json:"batches_concluded"`
	BatchesCancelled int             `json:"batches_cancelled"`
	BatchesPending   int             `json:"batches_pending"`
	ConcludedKg      float64         `json:"concluded_kg"`
	AlertCount       int             `json:"alert_count"`
}

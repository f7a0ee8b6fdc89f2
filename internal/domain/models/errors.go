package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the engine's error taxonomy. Typed errors below match
// them through errors.Is so callers can branch without type assertions.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrState      = errors.New("invalid state transition")
	ErrStock      = errors.New("insufficient stock")
)

// ValidationError reports rejected input before any persistence side effect.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown lot, diet, period, reading, plan or batch.
type NotFoundError struct {
	Entity string
	Key    string
}

// NewNotFoundError builds a NotFoundError.
func NewNotFoundError(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StateError reports a transition attempted from a state that does not allow it.
type StateError struct {
	Entity string
	Key    string
	State  string
	Action string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s %q in state %s", e.Action, e.Entity, e.Key, e.State)
}

// Is matches ErrState.
func (e *StateError) Is(target error) bool { return target == ErrState }

// Shortage describes one ingredient that cannot cover a batch requirement.
type Shortage struct {
	IngredientID string  `json:"ingredient_id"`
	Name         string  `json:"name"`
	RequiredKg   float64 `json:"required_kg"`
	AvailableKg  float64 `json:"available_kg"`
	ShortfallKg  float64 `json:"shortfall_kg"`
}

// StockError lists every deficient ingredient found while approving a batch.
type StockError struct {
	BatchID   string
	Shortages []Shortage
}

func (e *StockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		label := s.Name
		if label == "" {
			label = s.IngredientID
		}
		parts = append(parts, fmt.Sprintf("%s short by %.2f kg (required %.2f, available %.2f)", label, s.ShortfallKg, s.RequiredKg, s.AvailableKg))
	}
	return fmt.Sprintf("insufficient stock for batch %s: %s", e.BatchID, strings.Join(parts, "; "))
}

// Is matches ErrStock.
func (e *StockError) Is(target error) bool { return target == ErrStock }

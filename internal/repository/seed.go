package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mamadbah2/feedlot/internal/domain/models"
)

// Seeder loads reference data (lots, diets, periods and stock) into a store.
type Seeder interface {
	PutLot(ctx context.Context, lot models.Lot) error
	PutDiet(ctx context.Context, diet models.Diet) error
	ReplaceDietPeriods(ctx context.Context, lotID string, periods []models.DietPeriod) error
	PutIngredient(ctx context.Context, ingredient models.Ingredient) error
}

// SeedData is the JSON document accepted by LoadSeedFile.
type SeedData struct {
	Lots        []models.Lot        `json:"lots"`
	Diets       []models.Diet       `json:"diets"`
	Periods     []models.DietPeriod `json:"periods"`
	Ingredients []models.Ingredient `json:"ingredients"`
}

// LoadSeedFile reads a seed document from disk and applies it.
func LoadSeedFile(ctx context.Context, path string, seeder Seeder) (SeedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedData{}, fmt.Errorf("read seed file %s: %w", path, err)
	}

	var data SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return SeedData{}, fmt.Errorf("decode seed file %s: %w", path, err)
	}

	return data, Apply(ctx, data, seeder)
}

// Apply writes seed data into the store. Periods are grouped per lot and
// replace whatever the lot had before.
func Apply(ctx context.Context, data SeedData, seeder Seeder) error {
	for _, diet := range data.Diets {
		if err := seeder.PutDiet(ctx, diet); err != nil {
			return fmt.Errorf("seed diet %s: %w", diet.ID, err)
		}
	}
	for _, lot := range data.Lots {
		lot.EntryDate = models.DateOnly(lot.EntryDate)
		if err := seeder.PutLot(ctx, lot); err != nil {
			return fmt.Errorf("seed lot %s: %w", lot.ID, err)
		}
	}

	byLot := make(map[string][]models.DietPeriod)
	var order []string
	for _, p := range data.Periods {
		if _, seen := byLot[p.LotID]; !seen {
			order = append(order, p.LotID)
		}
		byLot[p.LotID] = append(byLot[p.LotID], p)
	}
	for _, lotID := range order {
		if err := seeder.ReplaceDietPeriods(ctx, lotID, byLot[lotID]); err != nil {
			return fmt.Errorf("seed periods of lot %s: %w", lotID, err)
		}
	}

	for _, ing := range data.Ingredients {
		if err := seeder.PutIngredient(ctx, ing); err != nil {
			return fmt.Errorf("seed ingredient %s: %w", ing.ID, err)
		}
	}
	return nil
}

package entities

import (
	"github.com/google/uuid"
)

// Ingredient is reference data: created by catalog import, never
// mutated by recipe operations.
type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name            string    `gorm:"size:128;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string    `gorm:"size:64;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
}

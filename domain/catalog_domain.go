package domain

import "fmt"

var (
	MessageSuccessGetIngredients = "success get ingredients"
	MessageSuccessGetTags        = "success get tags"

	MessageFailedGetIngredients = "failed to get ingredients"
	MessageFailedGetTags        = "failed to get tags"

	ErrIngredientNotFound = fmt.Errorf("%w: ingredient not found", ErrNotFound)
	ErrTagNotFound        = fmt.Errorf("%w: tag not found", ErrNotFound)
)

type (
	IngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}

	TagResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
)

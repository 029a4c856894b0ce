package domain

import (
	"fmt"
	"time"
)

var (
	MessageSuccessGetRecipes      = "success get recipes"
	MessageSuccessGetRecipeDetail = "success get recipe detail"
	MessageSuccessCreateRecipe    = "recipe created successfully"
	MessageSuccessUpdateRecipe    = "recipe updated successfully"
	MessageSuccessDeleteRecipe    = "recipe deleted successfully"
	MessageSuccessFavorite        = "recipe added to favorites"
	MessageSuccessUnfavorite      = "recipe removed from favorites"
	MessageSuccessAddToCart       = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart  = "recipe removed from shopping cart"
	MessageSuccessGetShortLink    = "success get short link"
	MessageSuccessGetShoppingList = "success get shopping list"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedFavorite        = "failed to update favorites"
	MessageFailedCart            = "failed to update shopping cart"
	MessageFailedGetShortLink    = "failed to get short link"
	MessageFailedShoppingList    = "failed to build shopping list"

	ErrRecipeNotFound  = fmt.Errorf("%w: recipe not found", ErrNotFound)
	ErrNotRecipeAuthor = fmt.Errorf("%w: only the author can modify this recipe", ErrPermissionDenied)

	ErrTagsEmpty          = fmt.Errorf("%w: tags must not be empty", ErrValidation)
	ErrTagsDuplicated     = fmt.Errorf("%w: tags must be unique", ErrValidation)
	ErrTagDoesNotExist    = fmt.Errorf("%w: tag does not exist", ErrValidation)
	ErrIngredientsEmpty   = fmt.Errorf("%w: ingredients must not be empty", ErrValidation)
	ErrIngredientsDupl    = fmt.Errorf("%w: ingredients must be unique", ErrValidation)
	ErrIngredientAmount   = fmt.Errorf("%w: ingredient amount must be at least 1", ErrValidation)
	ErrIngredientNotExist = fmt.Errorf("%w: ingredient does not exist", ErrValidation)
	ErrInvalidImage       = fmt.Errorf("%w: invalid image payload", ErrValidation)

	ErrAlreadyFavorited = fmt.Errorf("%w: recipe already in favorites", ErrConflict)
	ErrNotFavorited     = fmt.Errorf("%w: recipe not in favorites", ErrNotFound)
	ErrAlreadyInCart    = fmt.Errorf("%w: recipe already in shopping cart", ErrConflict)
	ErrNotInCart        = fmt.Errorf("%w: recipe not in shopping cart", ErrNotFound)

	ErrInvalidShortLink = fmt.Errorf("%w: unknown short link", ErrNotFound)
)

type (
	IngredientLineRequest struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount" validate:"required,min=1"`
	}

	CreateRecipeRequest struct {
		Name        string                  `json:"name" validate:"required,max=256"`
		Text        string                  `json:"text" validate:"required"`
		CookingTime int                     `json:"cooking_time" validate:"required,min=1,max=32767"`
		Image       string                  `json:"image" validate:"required"`
		Tags        []string                `json:"tags" validate:"required,dive,uuid"`
		Ingredients []IngredientLineRequest `json:"ingredients" validate:"required,dive"`
	}

	// UpdateRecipeRequest carries optional association sets: a nil
	// slice means "leave untouched", an empty one fails validation.
	UpdateRecipeRequest struct {
		Name        string                  `json:"name" validate:"omitempty,max=256"`
		Text        string                  `json:"text" validate:"omitempty"`
		CookingTime int                     `json:"cooking_time" validate:"omitempty,min=1,max=32767"`
		Image       string                  `json:"image" validate:"omitempty"`
		Tags        []string                `json:"tags" validate:"omitempty,dive,uuid"`
		Ingredients []IngredientLineRequest `json:"ingredients" validate:"omitempty,dive"`
	}

	IngredientLineResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeDetail struct {
		ID               string                   `json:"id"`
		Name             string                   `json:"name"`
		Text             string                   `json:"text"`
		CookingTime      int                      `json:"cooking_time"`
		Author           UserResponse             `json:"author"`
		Tags             []TagResponse            `json:"tags"`
		Ingredients      []IngredientLineResponse `json:"ingredients"`
		IsFavorited      bool                     `json:"is_favorited"`
		IsInShoppingCart bool                     `json:"is_in_shopping_cart"`
		ImageURL         string                   `json:"image_url,omitempty"`
		CreatedAt        time.Time                `json:"created_at"`
	}

	// RecipeCard is the short projection used by favorite/cart
	// responses and subscription listings.
	RecipeCard struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ImageURL    string `json:"image_url,omitempty"`
		CookingTime int    `json:"cooking_time"`
	}

	ShortLinkResponse struct {
		ShortLink string `json:"short-link"`
	}
)

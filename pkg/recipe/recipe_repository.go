package recipe

import (
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/relation"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// ListFilter narrows the recipe listing. Zero value means "all
	// recipes". OnlyFavorited/OnlyInCart are relative to the viewer.
	ListFilter struct {
		AuthorID      string
		TagSlugs      []string
		OnlyFavorited bool
		OnlyInCart    bool
	}

	// ShoppingListRow is one aggregated ingredient group across every
	// recipe in a user's shopping cart.
	ShoppingListRow struct {
		Name            string
		MeasurementUnit string
		Total           int
	}

	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, lines []*entities.RecipeIngredient) error
		UpdateRecipe(ctx context.Context, recipeID uuid.UUID, fields map[string]interface{}, tags []*entities.Tag, lines []*entities.RecipeIngredient) error
		DeleteRecipe(ctx context.Context, recipeID string) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter ListFilter, viewerID string, page, limit int) ([]*entities.Recipe, int64, error)

		Favorite(ctx context.Context, userID, recipeID string) error
		Unfavorite(ctx context.Context, userID, recipeID string) error
		IsFavorited(ctx context.Context, userID, recipeID string) (bool, error)

		AddToCart(ctx context.Context, userID, recipeID string) error
		RemoveFromCart(ctx context.Context, userID, recipeID string) error
		IsInCart(ctx context.Context, userID, recipeID string) (bool, error)

		GetShoppingList(ctx context.Context, userID string) ([]ShoppingListRow, error)
	}

	recipeRepository struct {
		db        *gorm.DB
		favorites relation.Toggle[entities.FavoriteRecipe]
		cart      relation.Toggle[entities.ShoppingCartItem]
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{
		db:        db,
		favorites: relation.NewToggle[entities.FavoriteRecipe](db),
		cart:      relation.NewToggle[entities.ShoppingCartItem](db),
	}
}

// CreateRecipe persists the recipe together with its tag associations
// and ingredient lines as one transaction.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, lines []*entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients", "Author").Create(recipe).Error; err != nil {
			return err
		}

		if err := tx.Model(recipe).Association("Tags").Append(tags); err != nil {
			return err
		}

		for _, line := range lines {
			line.ID = uuid.New()
			line.RecipeID = recipe.ID
			if err := tx.Create(line).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateRecipe applies scalar field updates, replaces the tag set when
// tags is non-nil and reconciles ingredient lines when lines is
// non-nil, all inside one transaction.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipeID uuid.UUID, fields map[string]interface{}, tags []*entities.Tag, lines []*entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&entities.Recipe{}).Where("id = ?", recipeID).Updates(fields).Error; err != nil {
				return err
			}
		}

		if tags != nil {
			recipe := entities.Recipe{ID: recipeID}
			if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}

		if lines != nil {
			if err := reconcileIngredientLines(tx, recipeID, lines); err != nil {
				return err
			}
		}
		return nil
	})
}

// reconcileIngredientLines diffs the desired lines against the stored
// ones by ingredient id: unchanged amounts are left alone, changed
// amounts are updated in place, new ingredients are inserted and stale
// ones deleted.
func reconcileIngredientLines(tx *gorm.DB, recipeID uuid.UUID, desired []*entities.RecipeIngredient) error {
	var existing []*entities.RecipeIngredient
	if err := tx.Where("recipe_id = ?", recipeID).Find(&existing).Error; err != nil {
		return err
	}

	stale := make(map[uuid.UUID]*entities.RecipeIngredient, len(existing))
	for _, line := range existing {
		stale[line.IngredientID] = line
	}

	for _, line := range desired {
		old, ok := stale[line.IngredientID]
		if !ok {
			line.ID = uuid.New()
			line.RecipeID = recipeID
			if err := tx.Create(line).Error; err != nil {
				return err
			}
			continue
		}
		delete(stale, line.IngredientID)

		if old.Amount == line.Amount {
			continue
		}
		if err := tx.Model(&entities.RecipeIngredient{}).
			Where("id = ?", old.ID).
			Update("amount", line.Amount).Error; err != nil {
			return err
		}
	}

	for _, line := range stale {
		if err := tx.Where("id = ?", line.ID).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteRecipe removes the recipe and everything it owns or is
// referenced by: ingredient lines, tag associations, favorite and
// shopping cart marks. Ingredient and tag catalog rows stay untouched.
func (r *recipeRepository) DeleteRecipe(ctx context.Context, recipeID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&entities.FavoriteRecipe{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&entities.ShoppingCartItem{}).Error; err != nil {
			return err
		}

		recipeUUID, err := uuid.Parse(recipeID)
		if err != nil {
			return err
		}
		recipe := entities.Recipe{ID: recipeUUID}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}

		return tx.Where("id = ?", recipeID).Delete(&entities.Recipe{}).Error
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	// a malformed id can never match a uuid column
	if _, err := uuid.Parse(id); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) listQuery(ctx context.Context, filter ListFilter, viewerID string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entities.Recipe{})

	if filter.AuthorID != "" {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
	}
	if filter.OnlyFavorited && viewerID != "" {
		query = query.Joins(
			"JOIN favorite_recipes ON favorite_recipes.recipe_id = recipes.id AND favorite_recipes.user_id = ?",
			viewerID,
		)
	}
	if filter.OnlyInCart && viewerID != "" {
		query = query.Joins(
			"JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipes.id AND shopping_cart_items.user_id = ?",
			viewerID,
		)
	}
	return query
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter ListFilter, viewerID string, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	if err := r.listQuery(ctx, filter, viewerID).
		Distinct("recipes.id").
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.listQuery(ctx, filter, viewerID).
		Distinct("recipes.*").
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Offset(offset).
		Limit(limit).
		Order("recipes.created_at desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) Favorite(ctx context.Context, userID, recipeID string) error {
	userUUID, recipeUUID, err := parsePair(userID, recipeID)
	if err != nil {
		return err
	}

	mark := entities.FavoriteRecipe{
		ID:        uuid.New(),
		UserID:    userUUID,
		RecipeID:  recipeUUID,
		CreatedAt: time.Now(),
	}
	return r.favorites.Add(ctx, &mark)
}

func (r *recipeRepository) Unfavorite(ctx context.Context, userID, recipeID string) error {
	userUUID, recipeUUID, err := parsePair(userID, recipeID)
	if err != nil {
		return err
	}
	return r.favorites.Remove(ctx, markKey(userUUID, recipeUUID))
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	userUUID, recipeUUID, err := parsePair(userID, recipeID)
	if err != nil {
		return false, err
	}
	return r.favorites.Exists(ctx, markKey(userUUID, recipeUUID))
}

func (r *recipeRepository) AddToCart(ctx context.Context, userID, recipeID string) error {
	userUUID, recipeUUID, err := parsePair(userID, recipeID)
	if err != nil {
		return err
	}

	item := entities.ShoppingCartItem{
		ID:        uuid.New(),
		UserID:    userUUID,
		RecipeID:  recipeUUID,
		CreatedAt: time.Now(),
	}
	return r.cart.Add(ctx, &item)
}

func (r *recipeRepository) RemoveFromCart(ctx context.Context, userID, recipeID string) error {
	userUUID, recipeUUID, err := parsePair(userID, recipeID)
	if err != nil {
		return err
	}
	return r.cart.Remove(ctx, markKey(userUUID, recipeUUID))
}

func (r *recipeRepository) IsInCart(ctx context.Context, userID, recipeID string) (bool, error) {
	userUUID, recipeUUID, err := parsePair(userID, recipeID)
	if err != nil {
		return false, err
	}
	return r.cart.Exists(ctx, markKey(userUUID, recipeUUID))
}

// GetShoppingList groups ingredient lines of every recipe in the
// user's cart by ingredient and sums the amounts.
func (r *recipeRepository) GetShoppingList(ctx context.Context, userID string) ([]ShoppingListRow, error) {
	var rows []ShoppingListRow

	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_items.user_id = ?", userID).
		Group("ingredients.id, ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func parsePair(userID, recipeID string) (uuid.UUID, uuid.UUID, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	recipeUUID, err := uuid.Parse(recipeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userUUID, recipeUUID, nil
}

func markKey(userID, recipeID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"user_id":   userID,
		"recipe_id": recipeID,
	}
}

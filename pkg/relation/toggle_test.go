package relation

import (
	"Foodgram-Backend/entities"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&entities.User{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.FavoriteRecipe{},
	))
	return db
}

func favoriteKey(userID, recipeID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"user_id":   userID,
		"recipe_id": recipeID,
	}
}

func newMark(userID, recipeID uuid.UUID) *entities.FavoriteRecipe {
	return &entities.FavoriteRecipe{
		ID:        uuid.New(),
		UserID:    userID,
		RecipeID:  recipeID,
		CreatedAt: time.Now(),
	}
}

func TestToggleAddAndExists(t *testing.T) {
	db := newTestDB(t)
	toggle := NewToggle[entities.FavoriteRecipe](db)
	ctx := context.Background()

	userID, recipeID := uuid.New(), uuid.New()
	key := favoriteKey(userID, recipeID)

	exists, err := toggle.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, toggle.Add(ctx, newMark(userID, recipeID)))

	exists, err = toggle.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestToggleAddTwice(t *testing.T) {
	db := newTestDB(t)
	toggle := NewToggle[entities.FavoriteRecipe](db)
	ctx := context.Background()

	userID, recipeID := uuid.New(), uuid.New()

	require.NoError(t, toggle.Add(ctx, newMark(userID, recipeID)))
	err := toggle.Add(ctx, newMark(userID, recipeID))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	var count int64
	require.NoError(t, db.Model(&entities.FavoriteRecipe{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestToggleAddLosesRaceToConcurrentInsert(t *testing.T) {
	db := newTestDB(t)
	toggle := NewToggle[entities.FavoriteRecipe](db)
	ctx := context.Background()

	userID, recipeID := uuid.New(), uuid.New()

	// another writer lands the row first
	require.NoError(t, db.Create(newMark(userID, recipeID)).Error)

	err := toggle.Add(ctx, newMark(userID, recipeID))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	var count int64
	require.NoError(t, db.Model(&entities.FavoriteRecipe{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestToggleRemove(t *testing.T) {
	db := newTestDB(t)
	toggle := NewToggle[entities.FavoriteRecipe](db)
	ctx := context.Background()

	userID, recipeID := uuid.New(), uuid.New()
	key := favoriteKey(userID, recipeID)

	require.NoError(t, toggle.Add(ctx, newMark(userID, recipeID)))
	require.NoError(t, toggle.Remove(ctx, key))

	exists, err := toggle.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, toggle.Remove(ctx, key), ErrNoRelation)
}

func TestToggleKeysAreIndependent(t *testing.T) {
	db := newTestDB(t)
	toggle := NewToggle[entities.FavoriteRecipe](db)
	ctx := context.Background()

	userID := uuid.New()
	first, second := uuid.New(), uuid.New()

	require.NoError(t, toggle.Add(ctx, newMark(userID, first)))

	exists, err := toggle.Exists(ctx, favoriteKey(userID, second))
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, toggle.Remove(ctx, favoriteKey(userID, second)), ErrNoRelation)
}

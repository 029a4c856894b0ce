package recipe

import (
	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/catalog"
	"Foodgram-Backend/pkg/user"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeS3 struct {
	deleted []string
	failing bool
}

func (f *fakeS3) UploadBase64(fileName string, data string, dir string, allowed ...string) (string, error) {
	if f.failing || data == "broken" {
		return "", errors.New("unsupported payload")
	}
	ext := ".jpg"
	if strings.HasPrefix(data, "data:image/png;") {
		ext = ".png"
	}
	return dir + "/" + fileName + ext, nil
}

func (f *fakeS3) DeleteFile(objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeS3) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func (f *fakeS3) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "https://cdn.test/")
}

type serviceFixture struct {
	db      *gorm.DB
	repo    RecipeRepository
	service RecipeService
	s3      *fakeS3
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := newTestDB(t)
	repo := NewRecipeRepository(db)
	s3 := &fakeS3{}
	service := NewRecipeService(repo, catalog.NewCatalogRepository(db), user.NewUserRepository(db), s3)
	return &serviceFixture{db: db, repo: repo, service: service, s3: s3}
}

func createRequest(tags []string, ingredients []domain.IngredientLineRequest) domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:        "Pancakes",
		Text:        "mix and fry",
		CookingTime: 15,
		Image:       "aGVsbG8=",
		Tags:        tags,
		Ingredients: ingredients,
	}
}

func (f *serviceFixture) recipeCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&entities.Recipe{}).Count(&count).Error)
	return count
}

func TestCreateRecipeReturnsDetail(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	tag := seedTag(t, f.db, "Breakfast", "breakfast")
	flour := seedIngredient(t, f.db, "flour", "g")
	milk := seedIngredient(t, f.db, "milk", "ml")

	detail, err := f.service.CreateRecipe(ctx, createRequest(
		[]string{tag.ID.String()},
		[]domain.IngredientLineRequest{
			{ID: flour.ID.String(), Amount: 200},
			{ID: milk.ID.String(), Amount: 300},
		},
	), author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", detail.Name)
	assert.Equal(t, "alice", detail.Author.Username)
	require.Len(t, detail.Tags, 1)
	assert.Equal(t, "breakfast", detail.Tags[0].Slug)
	assert.Len(t, detail.Ingredients, 2)
	assert.False(t, detail.IsFavorited)
	assert.False(t, detail.IsInShoppingCart)
	assert.True(t, strings.HasPrefix(detail.ImageURL, "https://cdn.test/recipes/"))
}

func TestCreateRecipeValidationPersistsNothing(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	tag := seedTag(t, f.db, "Breakfast", "breakfast")
	flour := seedIngredient(t, f.db, "flour", "g")

	validTags := []string{tag.ID.String()}
	validLines := []domain.IngredientLineRequest{{ID: flour.ID.String(), Amount: 200}}

	cases := []struct {
		name        string
		tags        []string
		ingredients []domain.IngredientLineRequest
		wantErr     error
	}{
		{"empty tags", []string{}, validLines, domain.ErrTagsEmpty},
		{"duplicate tags", []string{tag.ID.String(), tag.ID.String()}, validLines, domain.ErrTagsDuplicated},
		{"unknown tag", []string{uuid.NewString()}, validLines, domain.ErrTagDoesNotExist},
		{"empty ingredients", validTags, []domain.IngredientLineRequest{}, domain.ErrIngredientsEmpty},
		{"duplicate ingredients", validTags, []domain.IngredientLineRequest{
			{ID: flour.ID.String(), Amount: 1},
			{ID: flour.ID.String(), Amount: 2},
		}, domain.ErrIngredientsDupl},
		{"zero amount", validTags, []domain.IngredientLineRequest{
			{ID: flour.ID.String(), Amount: 0},
		}, domain.ErrIngredientAmount},
		{"unknown ingredient", validTags, []domain.IngredientLineRequest{
			{ID: uuid.NewString(), Amount: 1},
		}, domain.ErrIngredientNotExist},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.CreateRecipe(ctx, createRequest(tc.tags, tc.ingredients), author.ID.String())
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	assert.Zero(t, f.recipeCount(t))
}

func TestCreateRecipeBadImage(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	tag := seedTag(t, f.db, "Breakfast", "breakfast")
	flour := seedIngredient(t, f.db, "flour", "g")

	req := createRequest(
		[]string{tag.ID.String()},
		[]domain.IngredientLineRequest{{ID: flour.ID.String(), Amount: 200}},
	)
	req.Image = "broken"

	_, err := f.service.CreateRecipe(ctx, req, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
	assert.Zero(t, f.recipeCount(t))
}

func TestUpdateRecipeAuthorOnly(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	intruder := seedUser(t, f.db, "bob")
	tag := seedTag(t, f.db, "Breakfast", "breakfast")
	flour := seedIngredient(t, f.db, "flour", "g")

	recipe := seedRecipe(t, f.db, f.repo, author, "Pancakes",
		[]*entities.Tag{tag},
		[]*entities.RecipeIngredient{line(flour, 200)},
	)

	_, err := f.service.UpdateRecipe(ctx, recipe.ID.String(),
		domain.UpdateRecipeRequest{Name: "Stolen"}, intruder.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	err = f.service.DeleteRecipe(ctx, recipe.ID.String(), intruder.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)
	assert.Equal(t, int64(1), f.recipeCount(t))
}

func TestUpdateRecipeOmittedAssociationsKept(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	tag := seedTag(t, f.db, "Breakfast", "breakfast")
	flour := seedIngredient(t, f.db, "flour", "g")

	recipe := seedRecipe(t, f.db, f.repo, author, "Pancakes",
		[]*entities.Tag{tag},
		[]*entities.RecipeIngredient{line(flour, 200)},
	)

	detail, err := f.service.UpdateRecipe(ctx, recipe.ID.String(),
		domain.UpdateRecipeRequest{Name: "Crepes"}, author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Crepes", detail.Name)
	assert.Len(t, detail.Tags, 1)
	require.Len(t, detail.Ingredients, 1)
	assert.Equal(t, 200, detail.Ingredients[0].Amount)
}

func TestUpdateRecipeEmptyAssociationsRejected(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	tag := seedTag(t, f.db, "Breakfast", "breakfast")
	flour := seedIngredient(t, f.db, "flour", "g")

	recipe := seedRecipe(t, f.db, f.repo, author, "Pancakes",
		[]*entities.Tag{tag},
		[]*entities.RecipeIngredient{line(flour, 200)},
	)

	_, err := f.service.UpdateRecipe(ctx, recipe.ID.String(),
		domain.UpdateRecipeRequest{Tags: []string{}}, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrTagsEmpty)

	_, err = f.service.UpdateRecipe(ctx, recipe.ID.String(),
		domain.UpdateRecipeRequest{Ingredients: []domain.IngredientLineRequest{}}, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrIngredientsEmpty)
}

func TestFavoriteToggle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	viewer := seedUser(t, f.db, "bob")
	tag := seedTag(t, f.db, "Breakfast", "breakfast")
	flour := seedIngredient(t, f.db, "flour", "g")

	recipe := seedRecipe(t, f.db, f.repo, author, "Pancakes",
		[]*entities.Tag{tag},
		[]*entities.RecipeIngredient{line(flour, 200)},
	)

	card, err := f.service.Favorite(ctx, recipe.ID.String(), viewer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, recipe.ID.String(), card.ID)
	assert.Equal(t, "Pancakes", card.Name)

	_, err = f.service.Favorite(ctx, recipe.ID.String(), viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyFavorited)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, f.service.Unfavorite(ctx, recipe.ID.String(), viewer.ID.String()))
	assert.ErrorIs(t, f.service.Unfavorite(ctx, recipe.ID.String(), viewer.ID.String()), domain.ErrNotFavorited)

	_, err = f.service.Favorite(ctx, uuid.NewString(), viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestCartToggle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	tag := seedTag(t, f.db, "Breakfast", "breakfast")
	flour := seedIngredient(t, f.db, "flour", "g")

	recipe := seedRecipe(t, f.db, f.repo, author, "Pancakes",
		[]*entities.Tag{tag},
		[]*entities.RecipeIngredient{line(flour, 200)},
	)

	card, err := f.service.AddToCart(ctx, recipe.ID.String(), author.ID.String())
	require.NoError(t, err)
	assert.Equal(t, recipe.ID.String(), card.ID)

	_, err = f.service.AddToCart(ctx, recipe.ID.String(), author.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyInCart)

	require.NoError(t, f.service.RemoveFromCart(ctx, recipe.ID.String(), author.ID.String()))
	assert.ErrorIs(t, f.service.RemoveFromCart(ctx, recipe.ID.String(), author.ID.String()), domain.ErrNotInCart)
}

func TestDownloadShoppingListRendering(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	tag := seedTag(t, f.db, "Dinner", "dinner")
	flour := seedIngredient(t, f.db, "flour", "g")
	milk := seedIngredient(t, f.db, "milk", "ml")

	pancakes := seedRecipe(t, f.db, f.repo, author, "Pancakes",
		[]*entities.Tag{tag},
		[]*entities.RecipeIngredient{line(flour, 200), line(milk, 300)},
	)
	bread := seedRecipe(t, f.db, f.repo, author, "Bread",
		[]*entities.Tag{tag},
		[]*entities.RecipeIngredient{line(flour, 500)},
	)

	require.NoError(t, f.repo.AddToCart(ctx, author.ID.String(), pancakes.ID.String()))
	require.NoError(t, f.repo.AddToCart(ctx, author.ID.String(), bread.ID.String()))

	list, err := f.service.DownloadShoppingList(ctx, author.ID.String())
	require.NoError(t, err)

	want := "Your shopping list:\n\nflour — 700 (g)\nmilk — 300 (ml)\n"
	assert.Equal(t, want, list)
}

func TestDownloadShoppingListEmpty(t *testing.T) {
	f := newServiceFixture(t)

	author := seedUser(t, f.db, "alice")

	list, err := f.service.DownloadShoppingList(context.Background(), author.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Your shopping list:\n\n", list)
}

func TestShortLinkRoundTrip(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	tag := seedTag(t, f.db, "Dinner", "dinner")
	flour := seedIngredient(t, f.db, "flour", "g")

	recipe := seedRecipe(t, f.db, f.repo, author, "Pancakes",
		[]*entities.Tag{tag},
		[]*entities.RecipeIngredient{line(flour, 200)},
	)

	res, err := f.service.GetShortLink(ctx, recipe.ID.String())
	require.NoError(t, err)

	code := EncodeShortCode(recipe.ID.String())
	assert.True(t, strings.HasSuffix(res.ShortLink, "/s/"+code))

	target, err := f.service.ResolveShortLink(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "/recipes/"+recipe.ID.String(), target)
}

func TestResolveShortLinkUnknown(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.ResolveShortLink(ctx, "not-base64!!")
	assert.ErrorIs(t, err, domain.ErrInvalidShortLink)

	_, err = f.service.ResolveShortLink(ctx, EncodeShortCode(uuid.NewString()))
	assert.ErrorIs(t, err, domain.ErrInvalidShortLink)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetRecipeDetailViewerFlags(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	viewer := seedUser(t, f.db, "bob")
	tag := seedTag(t, f.db, "Dinner", "dinner")
	flour := seedIngredient(t, f.db, "flour", "g")

	recipe := seedRecipe(t, f.db, f.repo, author, "Pancakes",
		[]*entities.Tag{tag},
		[]*entities.RecipeIngredient{line(flour, 200)},
	)

	require.NoError(t, f.repo.Favorite(ctx, viewer.ID.String(), recipe.ID.String()))

	detail, err := f.service.GetRecipeDetail(ctx, recipe.ID.String(), viewer.ID.String())
	require.NoError(t, err)
	assert.True(t, detail.IsFavorited)
	assert.False(t, detail.IsInShoppingCart)
	assert.False(t, detail.Author.IsSubscribed)

	anonymous, err := f.service.GetRecipeDetail(ctx, recipe.ID.String(), "")
	require.NoError(t, err)
	assert.False(t, anonymous.IsFavorited)
}

func TestMalformedRecipeIDNotFound(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	viewer := seedUser(t, f.db, "alice")
	viewerID := viewer.ID.String()

	_, err := f.service.GetRecipeDetail(ctx, "abc", viewerID)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	_, err = f.service.UpdateRecipe(ctx, "abc", domain.UpdateRecipeRequest{Name: "Waffles"}, viewerID)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	assert.ErrorIs(t, f.service.DeleteRecipe(ctx, "abc", viewerID), domain.ErrRecipeNotFound)

	_, err = f.service.Favorite(ctx, "abc", viewerID)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	_, err = f.service.AddToCart(ctx, "abc", viewerID)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	_, err = f.service.GetShortLink(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestGetRecipesMalformedAuthorFilter(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	tag := seedTag(t, f.db, "Breakfast", "breakfast")
	flour := seedIngredient(t, f.db, "flour", "g")
	seedRecipe(t, f.db, f.repo, author, "Pancakes",
		[]*entities.Tag{tag},
		[]*entities.RecipeIngredient{line(flour, 200)},
	)

	details, count, err := f.service.GetRecipes(ctx, ListFilter{AuthorID: "abc"}, "", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, details)
	assert.Zero(t, count)
}

func TestUpdateRecipeDropsReplacedImageObject(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	author := seedUser(t, f.db, "alice")
	tag := seedTag(t, f.db, "Breakfast", "breakfast")
	flour := seedIngredient(t, f.db, "flour", "g")

	detail, err := f.service.CreateRecipe(ctx, createRequest(
		[]string{tag.ID.String()},
		[]domain.IngredientLineRequest{{ID: flour.ID.String(), Amount: 200}},
	), author.ID.String())
	require.NoError(t, err)

	updated, err := f.service.UpdateRecipe(ctx, detail.ID,
		domain.UpdateRecipeRequest{Image: "data:image/png;base64,aGVsbG8="}, author.ID.String())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(updated.ImageURL, ".png"))
	assert.Equal(t, []string{"recipes/" + detail.ID + ".jpg"}, f.s3.deleted)

	// the same object key again leaves the stored object alone
	_, err = f.service.UpdateRecipe(ctx, detail.ID,
		domain.UpdateRecipeRequest{Image: "data:image/png;base64,aGVsbG8="}, author.ID.String())
	require.NoError(t, err)
	assert.Len(t, f.s3.deleted, 1)
}

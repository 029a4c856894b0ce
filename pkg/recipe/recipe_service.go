package recipe

import (
	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/internal/utils"
	"Foodgram-Backend/internal/utils/storage"
	"Foodgram-Backend/pkg/catalog"
	"Foodgram-Backend/pkg/relation"
	"Foodgram-Backend/pkg/user"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const shoppingListHeader = "Your shopping list:"

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeDetail, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeDetail, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error
		GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeDetail, error)
		GetRecipes(ctx context.Context, filter ListFilter, viewerID string, page, limit int) ([]domain.RecipeDetail, int64, error)

		Favorite(ctx context.Context, recipeID, userID string) (domain.RecipeCard, error)
		Unfavorite(ctx context.Context, recipeID, userID string) error
		AddToCart(ctx context.Context, recipeID, userID string) (domain.RecipeCard, error)
		RemoveFromCart(ctx context.Context, recipeID, userID string) error

		DownloadShoppingList(ctx context.Context, userID string) (string, error)
		GetShortLink(ctx context.Context, recipeID string) (domain.ShortLinkResponse, error)
		ResolveShortLink(ctx context.Context, code string) (string, error)
	}

	recipeService struct {
		recipeRepository  RecipeRepository
		catalogRepository catalog.CatalogRepository
		userRepository    user.UserRepository
		s3                storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	catalogRepository catalog.CatalogRepository,
	userRepository user.UserRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:  recipeRepository,
		catalogRepository: catalogRepository,
		userRepository:    userRepository,
		s3:                s3,
	}
}

// resolveTags checks the tag id set (non-empty, no duplicates, all
// known) and loads the catalog rows.
func (s *recipeService) resolveTags(ctx context.Context, ids []string) ([]*entities.Tag, error) {
	if len(ids) == 0 {
		return nil, domain.ErrTagsEmpty
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return nil, domain.ErrParseUUID
		}
		if _, ok := seen[id]; ok {
			return nil, domain.ErrTagsDuplicated
		}
		seen[id] = struct{}{}
	}

	tags, err := s.catalogRepository.GetTagsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, domain.ErrTagDoesNotExist
	}
	return tags, nil
}

// resolveIngredientLines checks the submitted lines (non-empty, unique
// ingredient ids, amounts >= 1, all ingredients known) and builds the
// join rows.
func (s *recipeService) resolveIngredientLines(ctx context.Context, lines []domain.IngredientLineRequest) ([]*entities.RecipeIngredient, error) {
	if len(lines) == 0 {
		return nil, domain.ErrIngredientsEmpty
	}

	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, err := uuid.Parse(line.ID); err != nil {
			return nil, domain.ErrParseUUID
		}
		if line.Amount < 1 {
			return nil, domain.ErrIngredientAmount
		}
		if _, ok := seen[line.ID]; ok {
			return nil, domain.ErrIngredientsDupl
		}
		seen[line.ID] = struct{}{}
		ids = append(ids, line.ID)
	}

	ingredients, err := s.catalogRepository.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(ingredients) != len(ids) {
		return nil, domain.ErrIngredientNotExist
	}

	result := make([]*entities.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		result = append(result, &entities.RecipeIngredient{
			IngredientID: uuid.MustParse(line.ID),
			Amount:       line.Amount,
		})
	}
	return result, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeDetail, error) {
	authorUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeDetail{}, domain.ErrParseUUID
	}

	tags, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	lines, err := s.resolveIngredientLines(ctx, req.Ingredients)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	recipeID := uuid.New()
	objectKey, err := s.s3.UploadBase64(recipeID.String(), req.Image, "recipes")
	if err != nil {
		return domain.RecipeDetail{}, domain.ErrInvalidImage
	}

	recipe := &entities.Recipe{
		ID:          recipeID,
		AuthorID:    authorUUID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		ImageURL:    s.s3.GetPublicLinkKey(objectKey),
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, tags, lines); err != nil {
		_ = s.s3.DeleteFile(objectKey)
		return domain.RecipeDetail{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeDetail, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetail{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetail{}, err
	}

	if recipe.AuthorID.String() != userID {
		return domain.RecipeDetail{}, domain.ErrNotRecipeAuthor
	}

	// nil means "leave the association untouched"
	var tags []*entities.Tag
	if req.Tags != nil {
		if tags, err = s.resolveTags(ctx, req.Tags); err != nil {
			return domain.RecipeDetail{}, err
		}
	}

	var lines []*entities.RecipeIngredient
	if req.Ingredients != nil {
		if lines, err = s.resolveIngredientLines(ctx, req.Ingredients); err != nil {
			return domain.RecipeDetail{}, err
		}
	}

	fields := map[string]interface{}{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Text != "" {
		fields["text"] = req.Text
	}
	if req.CookingTime > 0 {
		fields["cooking_time"] = req.CookingTime
	}
	replacedImageURL := ""
	if req.Image != "" {
		objectKey, uploadErr := s.s3.UploadBase64(recipe.ID.String(), req.Image, "recipes")
		if uploadErr != nil {
			return domain.RecipeDetail{}, domain.ErrInvalidImage
		}
		newImageURL := s.s3.GetPublicLinkKey(objectKey)
		if recipe.ImageURL != "" && recipe.ImageURL != newImageURL {
			replacedImageURL = recipe.ImageURL
		}
		fields["image_url"] = newImageURL
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe.ID, fields, tags, lines); err != nil {
		return domain.RecipeDetail{}, err
	}

	if replacedImageURL != "" {
		_ = s.s3.DeleteFile(s.s3.GetObjectKeyFromLink(replacedImageURL))
	}

	return s.GetRecipeDetail(ctx, recipeID, userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if recipe.AuthorID.String() != userID {
		return domain.ErrNotRecipeAuthor
	}

	if err := s.recipeRepository.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}

	if recipe.ImageURL != "" {
		_ = s.s3.DeleteFile(s.s3.GetObjectKeyFromLink(recipe.ImageURL))
	}
	return nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeDetail, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetail{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetail{}, err
	}

	return s.toRecipeDetail(ctx, recipe, viewerID)
}

func (s *recipeService) GetRecipes(ctx context.Context, filter ListFilter, viewerID string, page, limit int) ([]domain.RecipeDetail, int64, error) {
	if filter.AuthorID != "" {
		if _, err := uuid.Parse(filter.AuthorID); err != nil {
			return []domain.RecipeDetail{}, 0, nil
		}
	}
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, viewerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.RecipeDetail, 0, len(recipes))
	for _, recipe := range recipes {
		detail, err := s.toRecipeDetail(ctx, recipe, viewerID)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, detail)
	}
	return result, count, nil
}

func (s *recipeService) toRecipeDetail(ctx context.Context, recipe *entities.Recipe, viewerID string) (domain.RecipeDetail, error) {
	isFavorited, isInCart := false, false
	if viewerID != "" {
		var err error
		if isFavorited, err = s.recipeRepository.IsFavorited(ctx, viewerID, recipe.ID.String()); err != nil {
			return domain.RecipeDetail{}, err
		}
		if isInCart, err = s.recipeRepository.IsInCart(ctx, viewerID, recipe.ID.String()); err != nil {
			return domain.RecipeDetail{}, err
		}
	}

	author := domain.UserResponse{}
	if recipe.Author != nil {
		author = domain.UserResponse{
			ID:        recipe.Author.ID.String(),
			Username:  recipe.Author.Username,
			Email:     recipe.Author.Email,
			FirstName: recipe.Author.FirstName,
			LastName:  recipe.Author.LastName,
			AvatarURL: recipe.Author.AvatarURL,
		}
		if viewerID != "" && viewerID != author.ID {
			subscribed, err := s.userRepository.IsSubscribed(ctx, viewerID, author.ID)
			if err != nil {
				return domain.RecipeDetail{}, err
			}
			author.IsSubscribed = subscribed
		}
	}

	tags := make([]domain.TagResponse, 0, len(recipe.Tags))
	for _, tag := range recipe.Tags {
		tags = append(tags, domain.TagResponse{
			ID:   tag.ID.String(),
			Name: tag.Name,
			Slug: tag.Slug,
		})
	}

	ingredients := make([]domain.IngredientLineResponse, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		row := domain.IngredientLineResponse{
			ID:     line.IngredientID.String(),
			Amount: line.Amount,
		}
		if line.Ingredient != nil {
			row.Name = line.Ingredient.Name
			row.MeasurementUnit = line.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, row)
	}

	return domain.RecipeDetail{
		ID:               recipe.ID.String(),
		Name:             recipe.Name,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
		Author:           author,
		Tags:             tags,
		Ingredients:      ingredients,
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInCart,
		ImageURL:         recipe.ImageURL,
		CreatedAt:        recipe.CreatedAt,
	}, nil
}

func (s *recipeService) Favorite(ctx context.Context, recipeID, userID string) (domain.RecipeCard, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeCard{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeCard{}, err
	}

	if err := s.recipeRepository.Favorite(ctx, userID, recipeID); err != nil {
		if errors.Is(err, relation.ErrAlreadyExists) {
			return domain.RecipeCard{}, domain.ErrAlreadyFavorited
		}
		return domain.RecipeCard{}, err
	}
	return toRecipeCard(recipe), nil
}

func (s *recipeService) Unfavorite(ctx context.Context, recipeID, userID string) error {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if err := s.recipeRepository.Unfavorite(ctx, userID, recipeID); err != nil {
		if errors.Is(err, relation.ErrNoRelation) {
			return domain.ErrNotFavorited
		}
		return err
	}
	return nil
}

func (s *recipeService) AddToCart(ctx context.Context, recipeID, userID string) (domain.RecipeCard, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeCard{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeCard{}, err
	}

	if err := s.recipeRepository.AddToCart(ctx, userID, recipeID); err != nil {
		if errors.Is(err, relation.ErrAlreadyExists) {
			return domain.RecipeCard{}, domain.ErrAlreadyInCart
		}
		return domain.RecipeCard{}, err
	}
	return toRecipeCard(recipe), nil
}

func (s *recipeService) RemoveFromCart(ctx context.Context, recipeID, userID string) error {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if err := s.recipeRepository.RemoveFromCart(ctx, userID, recipeID); err != nil {
		if errors.Is(err, relation.ErrNoRelation) {
			return domain.ErrNotInCart
		}
		return err
	}
	return nil
}

// DownloadShoppingList renders the aggregated cart as plain text, one
// line per distinct ingredient, sorted by name.
func (s *recipeService) DownloadShoppingList(ctx context.Context, userID string) (string, error) {
	rows, err := s.recipeRepository.GetShoppingList(ctx, userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(shoppingListHeader)
	b.WriteString("\n\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "%s — %d (%s)\n", row.Name, row.Total, row.MeasurementUnit)
	}
	return b.String(), nil
}

func (s *recipeService) GetShortLink(ctx context.Context, recipeID string) (domain.ShortLinkResponse, error) {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ShortLinkResponse{}, domain.ErrRecipeNotFound
		}
		return domain.ShortLinkResponse{}, err
	}

	link := fmt.Sprintf("%s/s/%s", utils.GetConfig("APP_URL"), EncodeShortCode(recipeID))
	return domain.ShortLinkResponse{ShortLink: link}, nil
}

// ResolveShortLink maps an opaque short code back to the canonical
// recipe path.
func (s *recipeService) ResolveShortLink(ctx context.Context, code string) (string, error) {
	recipeID, err := DecodeShortCode(code)
	if err != nil {
		return "", domain.ErrInvalidShortLink
	}

	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrInvalidShortLink
		}
		return "", err
	}
	return "/recipes/" + recipeID, nil
}

func EncodeShortCode(recipeID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(recipeID))
}

func DecodeShortCode(code string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(code, "="))
	if err != nil {
		return "", err
	}
	id, err := uuid.Parse(string(raw))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func toRecipeCard(recipe *entities.Recipe) domain.RecipeCard {
	return domain.RecipeCard{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		ImageURL:    recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}

package user

import (
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/relation"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	UserRepository interface {
		RegisterUser(ctx context.Context, user *entities.User) error
		GetUserByID(ctx context.Context, id string) (*entities.User, error)
		GetUserWithRecipes(ctx context.Context, id string) (*entities.User, error)
		GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
		CheckEmailExists(ctx context.Context, email string) (bool, error)
		CheckUsernameExists(ctx context.Context, username string) (bool, error)
		UpdateUser(ctx context.Context, user *entities.User) error

		Subscribe(ctx context.Context, subscriberID, authorID string) error
		Unsubscribe(ctx context.Context, subscriberID, authorID string) error
		IsSubscribed(ctx context.Context, subscriberID, authorID string) (bool, error)
		GetSubscribedAuthors(ctx context.Context, subscriberID string, page, limit int) ([]*entities.User, int64, error)
	}

	userRepository struct {
		db            *gorm.DB
		subscriptions relation.Toggle[entities.Subscription]
	}
)

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db:            db,
		subscriptions: relation.NewToggle[entities.Subscription](db),
	}
}

func (r *userRepository) RegisterUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	// a malformed id can never match a uuid column
	if _, err := uuid.Parse(id); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserWithRecipes(ctx context.Context, id string) (*entities.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var user entities.User
	if err := r.db.WithContext(ctx).
		Preload("Recipes").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) CheckUsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Subscribe(ctx context.Context, subscriberID, authorID string) error {
	subscriberUUID, authorUUID, err := parsePair(subscriberID, authorID)
	if err != nil {
		return err
	}

	subscription := entities.Subscription{
		ID:           uuid.New(),
		SubscriberID: subscriberUUID,
		AuthorID:     authorUUID,
		CreatedAt:    time.Now(),
	}
	return r.subscriptions.Add(ctx, &subscription)
}

func (r *userRepository) Unsubscribe(ctx context.Context, subscriberID, authorID string) error {
	subscriberUUID, authorUUID, err := parsePair(subscriberID, authorID)
	if err != nil {
		return err
	}
	return r.subscriptions.Remove(ctx, subscriptionKey(subscriberUUID, authorUUID))
}

func (r *userRepository) IsSubscribed(ctx context.Context, subscriberID, authorID string) (bool, error) {
	subscriberUUID, authorUUID, err := parsePair(subscriberID, authorID)
	if err != nil {
		return false, err
	}
	return r.subscriptions.Exists(ctx, subscriptionKey(subscriberUUID, authorUUID))
}

func (r *userRepository) GetSubscribedAuthors(ctx context.Context, subscriberID string, page, limit int) ([]*entities.User, int64, error) {
	var authors []*entities.User
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).Model(&entities.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.subscriber_id = ?", subscriberID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.subscriber_id = ?", subscriberID).
		Preload("Recipes").
		Offset(offset).
		Limit(limit).
		Order("subscriptions.created_at desc").
		Find(&authors).Error; err != nil {
		return nil, 0, err
	}

	return authors, count, nil
}

func parsePair(first, second string) (uuid.UUID, uuid.UUID, error) {
	firstUUID, err := uuid.Parse(first)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	secondUUID, err := uuid.Parse(second)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return firstUUID, secondUUID, nil
}

func subscriptionKey(subscriberID, authorID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"subscriber_id": subscriberID,
		"author_id":     authorID,
	}
}

package domain

import (
	"fmt"
)

var (
	MessageSuccessRegister         = "user registered successfully"
	MessageSuccessLogin            = "login success"
	MessageSuccessGetMe            = "success get current user"
	MessageSuccessUpdateUser       = "user updated successfully"
	MessageSuccessSetPassword      = "password changed successfully"
	MessageSuccessUpdateAvatar     = "avatar updated successfully"
	MessageSuccessDeleteAvatar     = "avatar deleted successfully"
	MessageSuccessForgotPassword   = "reset password email sent"
	MessageSuccessResetPassword    = "password reset successfully"
	MessageSuccessGetSubscriptions = "success get subscriptions"
	MessageSuccessSubscribe        = "subscribed successfully"
	MessageSuccessUnsubscribe      = "unsubscribed successfully"

	MessageFailedRegister         = "failed to register user"
	MessageFailedLogin            = "failed to login"
	MessageFailedGetMe            = "failed to get current user"
	MessageFailedUpdateUser       = "failed to update user"
	MessageFailedSetPassword      = "failed to change password"
	MessageFailedUpdateAvatar     = "failed to update avatar"
	MessageFailedForgotPassword   = "failed to send reset password email"
	MessageFailedResetPassword    = "failed to reset password"
	MessageFailedGetSubscriptions = "failed to get subscriptions"
	MessageFailedSubscribe        = "failed to subscribe"
	MessageFailedUnsubscribe      = "failed to unsubscribe"

	ErrUserNotFound      = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrEmailTaken        = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUsernameTaken     = fmt.Errorf("%w: username already registered", ErrConflict)
	ErrWrongCredentials  = fmt.Errorf("%w: wrong email or password", ErrValidation)
	ErrWrongPassword     = fmt.Errorf("%w: current password does not match", ErrValidation)
	ErrAvatarNotSet      = fmt.Errorf("%w: avatar is not set", ErrValidation)
	ErrSelfSubscription  = fmt.Errorf("%w: cannot subscribe to yourself", ErrValidation)
	ErrAlreadySubscribed = fmt.Errorf("%w: already subscribed to this user", ErrConflict)
	ErrNotSubscribed     = fmt.Errorf("%w: not subscribed to this user", ErrNotFound)

	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrValidation)
	ErrTokenInvalid = fmt.Errorf("%w: token invalid", ErrValidation)
)

type (
	RegisterRequest struct {
		Username  string `json:"username" validate:"required,max=150,username"`
		Email     string `json:"email" validate:"required,email,max=254"`
		FirstName string `json:"first_name" validate:"required,max=150"`
		LastName  string `json:"last_name" validate:"required,max=150"`
		Password  string `json:"password" validate:"required,min=8"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string       `json:"token"`
		User  UserResponse `json:"user"`
	}

	UpdateUserRequest struct {
		Username  string `json:"username" validate:"omitempty,max=150,username"`
		FirstName string `json:"first_name" validate:"omitempty,max=150"`
		LastName  string `json:"last_name" validate:"omitempty,max=150"`
	}

	SetPasswordRequest struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8"`
	}

	SetAvatarRequest struct {
		Avatar string `json:"avatar" validate:"required"`
	}

	ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordRequest struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8"`
	}

	UserResponse struct {
		ID           string `json:"id"`
		Username     string `json:"username"`
		Email        string `json:"email"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		IsSubscribed bool   `json:"is_subscribed"`
		AvatarURL    string `json:"avatar,omitempty"`
	}

	SubscriptionUser struct {
		UserResponse
		Recipes      []RecipeCard `json:"recipes"`
		RecipesCount int          `json:"recipes_count"`
	}

	SubscriptionsResponse struct {
		Authors []SubscriptionUser `json:"authors"`
		Total   int64              `json:"total"`
	}
)

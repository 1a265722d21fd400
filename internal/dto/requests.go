package dto

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name         string  `json:"name" binding:"required,max=100"`
	Email        string  `json:"email" binding:"required,email,max=255"`
	Password     string  `json:"password" binding:"required,password"`
	AreaActivity *string `json:"areaActivity" binding:"omitempty,max=255"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshTokenRequest carries the opaque refresh token to exchange
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required,max=256"`
}

// ForgotPasswordRequest starts a password reset
type ForgotPasswordRequest struct {
	Email       string `json:"email" binding:"required,email,max=255"`
	URLCallback string `json:"urlCallback" binding:"required,url,max=2048"`
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required,max=256"`
	NewPassword string `json:"newPassword" binding:"required,password"`
}

// UpdatePasswordRequest changes the password of the authenticated account
type UpdatePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" binding:"required,max=128"`
	NewPassword        string `json:"newPassword" binding:"required,password"`
	ConfirmNewPassword string `json:"confirmNewPassword" binding:"required,max=128"`
}

// UpdateProfileRequest changes profile fields. Omitted fields are kept.
type UpdateProfileRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=100"`
	AreaActivity *string `json:"areaActivity" binding:"omitempty,max=255"`
	Avatar       *string `json:"avatar" binding:"omitempty,url,max=2048"`
	CoverImage   *string `json:"coverImage" binding:"omitempty,url,max=2048"`
}

// UpdatePreferencesRequest changes notification and visibility settings. Omitted fields are kept.
type UpdatePreferencesRequest struct {
	EmailNotifications *bool   `json:"emailNotifications"`
	PushNotifications  *bool   `json:"pushNotifications"`
	ProfileVisibility  *string `json:"profileVisibility" binding:"omitempty,oneof=PUBLIC PRIVATE"`
}

// CreateGroupRoomRequest creates a group chat; the caller is always added as a member
type CreateGroupRoomRequest struct {
	Name    *string  `json:"name" binding:"omitempty,max=100"`
	UserIDs []string `json:"userIds" binding:"required,min=1,max=100,dive,uuid"`
}

// SendMessageRequest appends a message to a room
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
	Type    string `json:"type" binding:"omitempty,oneof=TEXT IMAGE FILE"`
}

// MessagesQuery selects a page of room history. Page is 0-based.
type MessagesQuery struct {
	Page int `form:"page" binding:"min=0"`
	Size int `form:"size" binding:"omitempty,min=1,max=100"`
}

// IDParam binds the :id path segment of chat and user routes
type IDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

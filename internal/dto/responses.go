package dto

import (
	"time"

	"github.com/prperemyshlev/spotlight-api/internal/domain"
)

// TokenInfo is the issued access/refresh pair
type TokenInfo struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int64     `json:"expiresIn"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// UserInfo represents the public profile of an account
type UserInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	AreaActivity *string `json:"areaActivity"`
	Avatar       *string `json:"avatar"`
	CoverImage   *string `json:"coverImage"`
	Role         string  `json:"role"`
}

// AccountInfo describes account status
type AccountInfo struct {
	Status     string    `json:"status"`
	Enabled    bool      `json:"enabled"`
	FirstLogin bool      `json:"firstLogin"`
	Plan       *string   `json:"plan"`
	IsPro      bool      `json:"isPro"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DeviceInfo is derived from the request user agent
type DeviceInfo struct {
	UserAgent string `json:"userAgent"`
	Platform  string `json:"platform"`
}

// SessionInfo describes the session the tokens were issued for
type SessionInfo struct {
	AuthenticatedAt        time.Time   `json:"authenticatedAt"`
	IPAddress              *string     `json:"ipAddress"`
	RequiresPasswordChange bool        `json:"requiresPasswordChange"`
	DeviceInfo             *DeviceInfo `json:"deviceInfo,omitempty"`
}

// AuthenticationResponse is returned by register, login and refresh
type AuthenticationResponse struct {
	Tokens  TokenInfo   `json:"tokens"`
	User    UserInfo    `json:"user"`
	Account AccountInfo `json:"account"`
	Session SessionInfo `json:"session"`
}

// PreferencesInfo represents per-account notification and visibility settings
type PreferencesInfo struct {
	EmailNotifications bool   `json:"emailNotifications"`
	PushNotifications  bool   `json:"pushNotifications"`
	ProfileVisibility  string `json:"profileVisibility"`
}

// ProfileResponse is returned by GET /auth/me
type ProfileResponse struct {
	User        UserInfo         `json:"user"`
	Account     AccountInfo      `json:"account"`
	Preferences *PreferencesInfo `json:"preferences"`
}

// MessageResponse represents a plain success message
type MessageResponse struct {
	Message string `json:"message"`
}

// ChatMemberResponse is a room member
type ChatMemberResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// ChatRoomResponse represents a chat room with its members
type ChatRoomResponse struct {
	ID        string               `json:"id"`
	Name      *string              `json:"name"`
	IsGroup   bool                 `json:"isGroup"`
	Archived  bool                 `json:"archived"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
	Members   []ChatMemberResponse `json:"members"`
}

// ChatMessageResponse represents a persisted chat message
type ChatMessageResponse struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Code       string   `json:"code"`
	Error      string   `json:"error"`
	Message    string   `json:"message"`
	Details    []string `json:"details,omitempty"`
}

// NewUserInfo maps an account to its public profile
func NewUserInfo(a *domain.Account) UserInfo {
	return UserInfo{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		AreaActivity: a.AreaActivity,
		Avatar:       a.Avatar,
		CoverImage:   a.CoverImage,
		Role:         string(a.Role),
	}
}

// NewAccountInfo maps an account to its status block
func NewAccountInfo(a *domain.Account, firstLogin bool) AccountInfo {
	return AccountInfo{
		Status:     a.Status(),
		Enabled:    a.Enabled,
		FirstLogin: firstLogin,
		IsPro:      a.IsPro,
		IsVerified: a.IsVerified,
		CreatedAt:  a.CreatedAt,
	}
}

// NewPreferencesInfo maps stored preferences to their response form
func NewPreferencesInfo(p *domain.Preferences) *PreferencesInfo {
	return &PreferencesInfo{
		EmailNotifications: p.EmailNotifications,
		PushNotifications:  p.PushNotifications,
		ProfileVisibility:  p.ProfileVisibility,
	}
}

func NewChatRoomResponse(r *domain.ChatRoom) ChatRoomResponse {
	members := make([]ChatMemberResponse, 0, len(r.Members))
	for _, m := range r.Members {
		members = append(members, ChatMemberResponse{ID: m.AccountID, Name: m.Name, Avatar: m.Avatar})
	}

	return ChatRoomResponse{
		ID:        r.ID,
		Name:      r.Name,
		IsGroup:   r.IsGroup,
		Archived:  r.Archived,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Members:   members,
	}
}

func NewChatMessageResponse(m *domain.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		Type:       string(m.Type),
		CreatedAt:  m.CreatedAt,
	}
}

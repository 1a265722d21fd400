package domain

import "time"

// Role is the authorization role of an account
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Account represents an identity record
type Account struct {
	ID           string
	Email        string
	Name         string
	Password     PasswordHash
	AreaActivity *string
	Avatar       *string
	CoverImage   *string
	Role         Role
	Enabled      bool
	IsPro        bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Status reports the account status shown to clients.
func (a *Account) Status() string {
	if a.Enabled {
		return "ACTIVE"
	}
	return "INACTIVE"
}

// ProfileUpdate lists profile fields to change. Nil fields keep their value.
type ProfileUpdate struct {
	Name         *string
	AreaActivity *string
	Avatar       *string
	CoverImage   *string
}

// Preferences holds per-account defaults created together with the account
type Preferences struct {
	AccountID          string
	EmailNotifications bool
	PushNotifications  bool
	ProfileVisibility  string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DefaultPreferences returns the preferences record created at registration.
func DefaultPreferences(accountID string) *Preferences {
	return &Preferences{
		AccountID:          accountID,
		EmailNotifications: true,
		PushNotifications:  true,
		ProfileVisibility:  VisibilityPublic,
	}
}

// Profile visibility values
const (
	VisibilityPublic  = "PUBLIC"
	VisibilityPrivate = "PRIVATE"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	AccountID string
}

// ClientInfo describes where a request came from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

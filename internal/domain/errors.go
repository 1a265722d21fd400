package domain

import "errors"

// Kind classifies a domain error for transport mapping
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindTooManyRequests
)

// Error is a business-rule failure with a machine-readable code
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches domain errors by code so wrapped copies compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrEmailAlreadyRegistered = &Error{KindBadRequest, "EMAIL_ALREADY_REGISTERED", "An account with this email already exists"}
	ErrInvalidCredentials     = &Error{KindUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrAccountDisabled        = &Error{KindUnauthorized, "ACCOUNT_DISABLED", "Your account has been disabled. Please contact support."}
	ErrInvalidRefreshToken    = &Error{KindUnauthorized, "INVALID_REFRESH_TOKEN", "Invalid or expired refresh token"}
	ErrRefreshTokenExpired    = &Error{KindUnauthorized, "REFRESH_TOKEN_EXPIRED", "Refresh token has expired. Please login again."}
	ErrPasswordsDoNotMatch    = &Error{KindBadRequest, "PASSWORDS_DO_NOT_MATCH", "New password and confirmation do not match"}
	ErrUserNotFound           = &Error{KindNotFound, "USER_NOT_FOUND", "User not found"}
	ErrInvalidCurrentPassword = &Error{KindUnauthorized, "INVALID_CURRENT_PASSWORD", "Current password is incorrect"}
	ErrInvalidResetToken      = &Error{KindBadRequest, "INVALID_RESET_TOKEN", "Invalid or expired reset token"}
	ErrUnauthorized           = &Error{KindUnauthorized, "UNAUTHORIZED", "Invalid or expired token"}
	ErrRateLimitExceeded      = &Error{KindTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests, please try again later"}
	ErrDisableForbidden       = &Error{KindForbidden, "FORBIDDEN", "Not authorized to disable this user"}
	ErrInvalidProfile         = &Error{KindBadRequest, "INVALID_PROFILE", "Name cannot be blank"}

	ErrChatRoomNotFound   = &Error{KindNotFound, "CHAT_ROOM_NOT_FOUND", "Chat room not found"}
	ErrNotRoomMember      = &Error{KindForbidden, "NOT_A_ROOM_MEMBER", "You are not a member of this room"}
	ErrInvalidRoomMembers = &Error{KindBadRequest, "INVALID_ROOM_MEMBERS", "Chat room must have at least 2 members"}
	ErrInvalidMessage     = &Error{KindBadRequest, "INVALID_MESSAGE", "Message content or type is invalid"}
)

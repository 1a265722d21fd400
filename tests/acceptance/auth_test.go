package acceptance

import (
	"net/http"

	"github.com/prperemyshlev/spotlight-api/internal/dto"
)

func (s *Suite) TestRegister_NormalizesEmail() {
	auth := s.register("Alice", "alice@Example.com")

	s.NotEmpty(auth.Tokens.AccessToken)
	s.NotEmpty(auth.Tokens.RefreshToken)
	s.Equal("Bearer", auth.Tokens.TokenType)
	s.Equal("alice@example.com", auth.User.Email)
	s.Equal("Alice", auth.User.Name)
}

func (s *Suite) TestRegister_DuplicateEmail() {
	s.register("Alice", "alice@example.com")

	var errResp dto.ErrorResponse
	status := s.request(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Name:     "Other Alice",
		Email:    "ALICE@example.com",
		Password: testPassword,
	}, &errResp)

	s.Equal(http.StatusBadRequest, status)
	s.Equal("EMAIL_ALREADY_REGISTERED", errResp.Code)
}

func (s *Suite) TestRegister_WeakPassword() {
	var errResp dto.ErrorResponse
	status := s.request(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "short",
	}, &errResp)

	s.Equal(http.StatusUnprocessableEntity, status)
	s.Equal("VALIDATION_ERROR", errResp.Code)
}

func (s *Suite) TestLogin_InvalidCredentials() {
	s.register("Alice", "alice@example.com")

	var wrongPassword, unknownEmail dto.ErrorResponse
	s.Equal(http.StatusUnauthorized, s.request(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "WrongPassword123",
	}, &wrongPassword))
	s.Equal(http.StatusUnauthorized, s.request(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: testPassword,
	}, &unknownEmail))

	s.Equal(wrongPassword, unknownEmail)
}

func (s *Suite) TestRefresh_RotatesAndRejectsReuse() {
	s.register("Alice", "alice@example.com")

	var login dto.AuthenticationResponse
	s.Require().Equal(http.StatusOK, s.request(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "Alice@Example.com",
		Password: testPassword,
	}, &login))

	var refreshed dto.AuthenticationResponse
	s.Require().Equal(http.StatusOK, s.request(http.MethodPost, "/api/auth/refresh-token", "", dto.RefreshTokenRequest{
		RefreshToken: login.Tokens.RefreshToken,
	}, &refreshed))
	s.NotEqual(login.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)

	var errResp dto.ErrorResponse
	status := s.request(http.MethodPost, "/api/auth/refresh-token", "", dto.RefreshTokenRequest{
		RefreshToken: login.Tokens.RefreshToken,
	}, &errResp)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("INVALID_REFRESH_TOKEN", errResp.Code)
}

func (s *Suite) TestGetMe() {
	auth := s.register("Alice", "alice@example.com")

	var profile dto.ProfileResponse
	s.Require().Equal(http.StatusOK, s.request(http.MethodGet, "/api/auth/me", auth.Tokens.AccessToken, nil, &profile))
	s.Equal(auth.User.ID, profile.User.ID)
	s.Equal("alice@example.com", profile.User.Email)

	s.Equal(http.StatusUnauthorized, s.request(http.MethodGet, "/api/auth/me", "", nil, nil))
	s.Equal(http.StatusUnauthorized, s.request(http.MethodGet, "/api/auth/me", "invalid-token", nil, nil))
}

func (s *Suite) TestLogout_RevokesRefreshTokens() {
	auth := s.register("Alice", "alice@example.com")

	var msg dto.MessageResponse
	s.Require().Equal(http.StatusOK, s.request(http.MethodPost, "/api/auth/logout", auth.Tokens.AccessToken, nil, &msg))
	s.Equal("Logged out successfully", msg.Message)

	s.Equal(http.StatusUnauthorized, s.request(http.MethodPost, "/api/auth/refresh-token", "", dto.RefreshTokenRequest{
		RefreshToken: auth.Tokens.RefreshToken,
	}, nil))
}

func (s *Suite) TestUpdatePassword() {
	auth := s.register("Alice", "alice@example.com")

	s.Require().Equal(http.StatusOK, s.request(http.MethodPut, "/api/auth/update-password", auth.Tokens.AccessToken, dto.UpdatePasswordRequest{
		CurrentPassword:    testPassword,
		NewPassword:        "NewPassword456",
		ConfirmNewPassword: "NewPassword456",
	}, nil))

	s.Equal(http.StatusUnauthorized, s.request(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "alice@example.com",
		Password: testPassword,
	}, nil))
	s.Equal(http.StatusOK, s.request(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "NewPassword456",
	}, nil))
}

func (s *Suite) TestForgotPassword_SameResponseForUnknownEmail() {
	s.register("Alice", "alice@example.com")

	var known, unknown dto.MessageResponse
	s.Equal(http.StatusOK, s.request(http.MethodPost, "/api/auth/forgot-password", "", dto.ForgotPasswordRequest{
		Email:       "alice@example.com",
		URLCallback: "https://app.example.com/reset",
	}, &known))
	s.Equal(http.StatusOK, s.request(http.MethodPost, "/api/auth/forgot-password", "", dto.ForgotPasswordRequest{
		Email:       "nobody@example.com",
		URLCallback: "https://app.example.com/reset",
	}, &unknown))

	s.Equal(known, unknown)
}

func (s *Suite) TestResetPassword_UnknownToken() {
	var errResp dto.ErrorResponse
	status := s.request(http.MethodPost, "/api/auth/reset-password", "", dto.ResetPasswordRequest{
		Token:       "not-a-real-token",
		NewPassword: "NewPassword456",
	}, &errResp)

	s.Equal(http.StatusBadRequest, status)
	s.Equal("INVALID_RESET_TOKEN", errResp.Code)
}

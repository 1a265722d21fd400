package acceptance

import (
	"context"
	"net/http"

	"github.com/prperemyshlev/spotlight-api/internal/dto"
)

func (s *Suite) promoteToAdmin(accountID string) {
	_, err := s.Postgres.DB.ExecContext(context.Background(), "UPDATE accounts SET role = 'ADMIN' WHERE id = $1", accountID)
	s.Require().NoError(err)
}

func (s *Suite) TestDisableAccount_BlocksLoginAndRefresh() {
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")
	carol := s.register("Carol", "carol@example.com")
	s.promoteToAdmin(carol.User.ID)

	var errResp dto.ErrorResponse
	status := s.request(http.MethodDelete, "/api/users/"+alice.User.ID+"/disable", bob.Tokens.AccessToken, nil, &errResp)
	s.Equal(http.StatusForbidden, status)
	s.Equal("FORBIDDEN", errResp.Code)

	var msg dto.MessageResponse
	status = s.request(http.MethodDelete, "/api/users/"+alice.User.ID+"/disable", carol.Tokens.AccessToken, nil, &msg)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("Account disabled successfully", msg.Message)

	var loginErr dto.ErrorResponse
	status = s.request(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "alice@example.com",
		Password: testPassword,
	}, &loginErr)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("ACCOUNT_DISABLED", loginErr.Code)

	var refreshErr dto.ErrorResponse
	status = s.request(http.MethodPost, "/api/auth/refresh-token", "", dto.RefreshTokenRequest{
		RefreshToken: alice.Tokens.RefreshToken,
	}, &refreshErr)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("ACCOUNT_DISABLED", refreshErr.Code)

	status = s.request(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "bob@example.com",
		Password: testPassword,
	}, nil)
	s.Equal(http.StatusOK, status)
}

func (s *Suite) TestDisableAccount_Self() {
	dave := s.register("Dave", "dave@example.com")

	status := s.request(http.MethodDelete, "/api/users/"+dave.User.ID+"/disable", dave.Tokens.AccessToken, nil, nil)
	s.Equal(http.StatusOK, status)

	var errResp dto.ErrorResponse
	status = s.request(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "dave@example.com",
		Password: "WrongPassword123",
	}, &errResp)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("ACCOUNT_DISABLED", errResp.Code)
}

func (s *Suite) TestUpdateProfileAndPreferences() {
	erin := s.register("Erin", "erin@example.com")
	token := erin.Tokens.AccessToken

	name := "Erin Hale"
	area := "Street photography"
	var profile dto.ProfileResponse
	status := s.request(http.MethodPut, "/api/users/me", token, dto.UpdateProfileRequest{
		Name:         &name,
		AreaActivity: &area,
	}, &profile)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("Erin Hale", profile.User.Name)
	s.Require().NotNil(profile.User.AreaActivity)
	s.Equal(area, *profile.User.AreaActivity)

	var prefs dto.PreferencesInfo
	s.Require().Equal(http.StatusOK, s.request(http.MethodGet, "/api/users/preferences", token, nil, &prefs))
	s.Equal(dto.PreferencesInfo{EmailNotifications: true, PushNotifications: true, ProfileVisibility: "PUBLIC"}, prefs)

	off := false
	private := "PRIVATE"
	status = s.request(http.MethodPut, "/api/users/preferences", token, dto.UpdatePreferencesRequest{
		EmailNotifications: &off,
		ProfileVisibility:  &private,
	}, &prefs)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(dto.PreferencesInfo{EmailNotifications: false, PushNotifications: true, ProfileVisibility: "PRIVATE"}, prefs)

	var me dto.ProfileResponse
	s.Require().Equal(http.StatusOK, s.request(http.MethodGet, "/api/auth/me", token, nil, &me))
	s.Equal("Erin Hale", me.User.Name)
	s.Require().NotNil(me.Preferences)
	s.Equal("PRIVATE", me.Preferences.ProfileVisibility)
}

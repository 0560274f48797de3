package authkit_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/routinely/authkit"
)

// MockAPI implements authkit.API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Login(ctx context.Context, email, password string) (*authkit.User, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*authkit.User)
	return user, args.Error(1)
}

func (m *MockAPI) Register(ctx context.Context, data authkit.RegistrationData) (*authkit.User, error) {
	args := m.Called(ctx, data)
	user, _ := args.Get(0).(*authkit.User)
	return user, args.Error(1)
}

func (m *MockAPI) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAPI) RefreshTokens(ctx context.Context, refresh string) (authkit.TokenPair, error) {
	args := m.Called(ctx, refresh)
	pair, _ := args.Get(0).(authkit.TokenPair)
	return pair, args.Error(1)
}

func (m *MockAPI) CurrentUser(ctx context.Context) (*authkit.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*authkit.User)
	return user, args.Error(1)
}

func (m *MockAPI) GoogleAuthURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) ExchangeGoogleCode(ctx context.Context, code string) (*authkit.OAuthTokens, error) {
	args := m.Called(ctx, code)
	tokens, _ := args.Get(0).(*authkit.OAuthTokens)
	return tokens, args.Error(1)
}

func (m *MockAPI) UpdateUser(ctx context.Context, data authkit.UserData) (*authkit.User, error) {
	args := m.Called(ctx, data)
	user, _ := args.Get(0).(*authkit.User)
	return user, args.Error(1)
}

func (m *MockAPI) UpdateProfile(ctx context.Context, data authkit.ProfileData) (*authkit.UserProfile, error) {
	args := m.Called(ctx, data)
	profile, _ := args.Get(0).(*authkit.UserProfile)
	return profile, args.Error(1)
}

package authkit_test

import (
	"context"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/routinely/authkit"
	"github.com/routinely/authkit/token"
)

func TestControllerLoginSuccess(t *testing.T) {
	api := &MockAPI{}
	user := &authkit.User{ID: 1, Email: "test@example.com"}
	api.On("Login", mock.Anything, "test@example.com", "secret").Return(user, nil).Once()

	c := authkit.NewController(api, token.NewMemoryStore())

	err := c.Login(context.Background(), "test@example.com", "secret")
	require.NoError(t, err)

	state := c.State()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, user, state.User)
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.Error)
	api.AssertExpectations(t)
}

func TestControllerLoginFailureSurfacesServerDetail(t *testing.T) {
	api := &MockAPI{}
	richErr := authkit.WithDetail(
		goerrors.New("identity API returned status 400", goerrors.CategoryValidation),
		"Invalid credentials",
	)
	api.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, richErr).Once()

	c := authkit.NewController(api, token.NewMemoryStore())

	err := c.Login(context.Background(), "test@example.com", "wrong")
	require.Error(t, err)

	state := c.State()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
	assert.Equal(t, "Invalid credentials", state.Error)
}

func TestControllerLoginFailureFallsBackToFixedMessage(t *testing.T) {
	api := &MockAPI{}
	api.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, goerrors.New("boom", goerrors.CategoryOperation)).Once()

	c := authkit.NewController(api, token.NewMemoryStore())

	err := c.Login(context.Background(), "test@example.com", "secret")
	require.Error(t, err)
	assert.Equal(t, "Login failed", c.State().Error)
}

func TestControllerRegisterFailureFallback(t *testing.T) {
	api := &MockAPI{}
	api.On("Register", mock.Anything, mock.Anything).
		Return(nil, goerrors.New("boom", goerrors.CategoryOperation)).Once()

	c := authkit.NewController(api, token.NewMemoryStore())

	err := c.Register(context.Background(), authkit.RegistrationData{Email: "a@b.c"})
	require.Error(t, err)
	assert.Equal(t, "Registration failed", c.State().Error)
}

func TestControllerLogoutIsIdempotentAndBestEffort(t *testing.T) {
	api := &MockAPI{}
	api.On("Logout", mock.Anything).
		Return(goerrors.New("network down", goerrors.CategoryOperation)).Twice()

	store := token.NewMemoryStore()
	require.NoError(t, store.SetPair("access", "refresh"))

	c := authkit.NewController(api, store)
	c.Dispatch(authkit.LoginSuccess(&authkit.User{ID: 1}))

	c.Logout(context.Background())
	c.Logout(context.Background())

	state := c.State()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
	assert.Empty(t, state.Error)

	access, refresh := store.Pair()
	assert.Empty(t, access)
	assert.Empty(t, refresh)
	api.AssertExpectations(t)
}

func TestControllerLoadUserWithoutTokenSettlesSignedOut(t *testing.T) {
	api := &MockAPI{}
	c := authkit.NewController(api, token.NewMemoryStore())

	c.LoadUser(context.Background())

	state := c.State()
	assert.False(t, state.IsLoading)
	assert.False(t, state.IsAuthenticated)
	assert.Empty(t, state.Error)
	api.AssertNotCalled(t, "CurrentUser", mock.Anything)
}

func TestControllerLoadUserRejectedTokenClearsStore(t *testing.T) {
	api := &MockAPI{}
	api.On("CurrentUser", mock.Anything).
		Return(nil, goerrors.New("unauthorized", goerrors.CategoryAuth)).Once()

	store := token.NewMemoryStore()
	require.NoError(t, store.SetPair("stale-access", "stale-refresh"))

	c := authkit.NewController(api, store)
	c.LoadUser(context.Background())

	state := c.State()
	assert.False(t, state.IsAuthenticated)
	assert.Empty(t, state.Error)

	_, ok := store.Get(token.SlotAccess)
	assert.False(t, ok)
	_, ok = store.Get(token.SlotRefresh)
	assert.False(t, ok)
}

func TestControllerLoadUserRunsOnce(t *testing.T) {
	api := &MockAPI{}
	store := token.NewMemoryStore()
	require.NoError(t, store.SetPair("access", "refresh"))

	started := make(chan struct{})
	release := make(chan struct{})
	user := &authkit.User{ID: 1}

	api.On("CurrentUser", mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(user, nil).Once()

	c := authkit.NewController(api, store)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.LoadUser(context.Background())
	}()

	<-started
	// Second call while the first is in flight: observes the latch, exits.
	c.LoadUser(context.Background())
	close(release)
	wg.Wait()

	assert.True(t, c.State().IsAuthenticated)
	api.AssertNumberOfCalls(t, "CurrentUser", 1)
}

func TestControllerRefreshTokenHappyPath(t *testing.T) {
	api := &MockAPI{}
	user := &authkit.User{ID: 1}
	api.On("RefreshTokens", mock.Anything, "old-refresh").
		Return(authkit.TokenPair{Access: "new-access", Refresh: "new-refresh"}, nil).Once()
	api.On("CurrentUser", mock.Anything).Return(user, nil).Once()

	store := token.NewMemoryStore()
	require.NoError(t, store.SetPair("old-access", "old-refresh"))

	c := authkit.NewController(api, store)
	c.RefreshToken(context.Background())

	state := c.State()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, user, state.User)

	access, refresh := store.Pair()
	assert.Equal(t, "new-access", access)
	assert.Equal(t, "new-refresh", refresh)
	api.AssertExpectations(t)
}

func TestControllerRefreshTokenWithoutRefreshIsNoop(t *testing.T) {
	api := &MockAPI{}
	c := authkit.NewController(api, token.NewMemoryStore())
	c.Dispatch(authkit.LoginSuccess(&authkit.User{ID: 1}))

	c.RefreshToken(context.Background())

	assert.True(t, c.State().IsAuthenticated)
	api.AssertNotCalled(t, "RefreshTokens", mock.Anything, mock.Anything)
}

func TestControllerRefreshTokenFailureIsSilent(t *testing.T) {
	api := &MockAPI{}
	api.On("RefreshTokens", mock.Anything, "refresh").
		Return(authkit.TokenPair{}, goerrors.New("expired", goerrors.CategoryAuth)).Once()

	store := token.NewMemoryStore()
	require.NoError(t, store.SetPair("access", "refresh"))

	c := authkit.NewController(api, store)
	c.RefreshToken(context.Background())

	state := c.State()
	assert.False(t, state.IsAuthenticated)
	assert.Empty(t, state.Error)
}

func TestControllerUpdateUserRefetchesCanonicalRecord(t *testing.T) {
	api := &MockAPI{}
	canonical := &authkit.User{ID: 1, FirstName: "Updated"}
	api.On("UpdateUser", mock.Anything, mock.Anything).
		Return(&authkit.User{ID: 1, FirstName: "Partial"}, nil).Once()
	api.On("CurrentUser", mock.Anything).Return(canonical, nil).Once()

	c := authkit.NewController(api, token.NewMemoryStore())
	c.Dispatch(authkit.LoginSuccess(&authkit.User{ID: 1}))

	err := c.UpdateUser(context.Background(), authkit.UserData{FirstName: "Updated"})
	require.NoError(t, err)
	assert.Equal(t, canonical, c.State().User)
	assert.True(t, c.State().IsAuthenticated)
	api.AssertExpectations(t)
}

func TestControllerUpdateProfileFailureSetsErrorAndRaises(t *testing.T) {
	api := &MockAPI{}
	api.On("UpdateProfile", mock.Anything, mock.Anything).
		Return(nil, goerrors.New("boom", goerrors.CategoryOperation)).Once()

	c := authkit.NewController(api, token.NewMemoryStore())

	err := c.UpdateProfile(context.Background(), authkit.ProfileData{})
	require.Error(t, err)
	assert.Equal(t, "Profile update failed", c.State().Error)
}

func TestControllerCompleteOAuthSignIn(t *testing.T) {
	api := &MockAPI{}
	user := &authkit.User{ID: 1}
	api.On("CurrentUser", mock.Anything).Return(user, nil).Once()

	store := token.NewMemoryStore()
	c := authkit.NewController(api, store)

	err := c.CompleteOAuthSignIn(context.Background(), "oauth-access", "oauth-refresh")
	require.NoError(t, err)

	assert.True(t, c.State().IsAuthenticated)
	access, refresh := store.Pair()
	assert.Equal(t, "oauth-access", access)
	assert.Equal(t, "oauth-refresh", refresh)
	// The user is fetched once with the stored token; no exchange call.
	api.AssertNumberOfCalls(t, "CurrentUser", 1)
	api.AssertNotCalled(t, "ExchangeGoogleCode", mock.Anything, mock.Anything)
}

func TestControllerCompleteOAuthSignInMissingAccess(t *testing.T) {
	api := &MockAPI{}
	c := authkit.NewController(api, token.NewMemoryStore())

	err := c.CompleteOAuthSignIn(context.Background(), "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, authkit.ErrMissingCredentials)
	assert.Equal(t, "Failed to complete sign-in", c.State().Error)
}

func TestControllerHandleGoogleOAuthCodeUsesExchangedUser(t *testing.T) {
	api := &MockAPI{}
	user := &authkit.User{ID: 9}
	api.On("ExchangeGoogleCode", mock.Anything, "the-code").
		Return(&authkit.OAuthTokens{Access: "a", Refresh: "r", User: user}, nil).Once()

	store := token.NewMemoryStore()
	c := authkit.NewController(api, store)

	err := c.HandleGoogleOAuthCode(context.Background(), "the-code")
	require.NoError(t, err)

	assert.Equal(t, user, c.State().User)
	access, refresh := store.Pair()
	assert.Equal(t, "a", access)
	assert.Equal(t, "r", refresh)
	api.AssertNotCalled(t, "CurrentUser", mock.Anything)
}

func TestControllerHandleGoogleOAuthCodeFetchesUserWhenAbsent(t *testing.T) {
	api := &MockAPI{}
	user := &authkit.User{ID: 9}
	api.On("ExchangeGoogleCode", mock.Anything, "the-code").
		Return(&authkit.OAuthTokens{Access: "a", Refresh: "r"}, nil).Once()
	api.On("CurrentUser", mock.Anything).Return(user, nil).Once()

	c := authkit.NewController(api, token.NewMemoryStore())

	err := c.HandleGoogleOAuthCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, user, c.State().User)
	api.AssertExpectations(t)
}

func TestControllerOnChangeObservesEveryDispatch(t *testing.T) {
	api := &MockAPI{}
	user := &authkit.User{ID: 1}
	api.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(user, nil).Once()

	var mu sync.Mutex
	var seen []authkit.AuthState
	c := authkit.NewController(api, token.NewMemoryStore(), authkit.WithOnChange(func(s authkit.AuthState) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}))

	require.NoError(t, c.Login(context.Background(), "a@b.c", "pw"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].IsLoading)
	assert.True(t, seen[1].IsAuthenticated)
}

func TestControllerClearError(t *testing.T) {
	api := &MockAPI{}
	c := authkit.NewController(api, token.NewMemoryStore())
	c.Dispatch(authkit.LoginFailure("bad"))

	c.ClearError()

	assert.Empty(t, c.State().Error)
}

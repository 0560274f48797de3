package authkit

import (
	"context"
	"fmt"
	"io"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Role describes a server-assigned role attached to a user profile.
type Role struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Permissions map[string]any `json:"permissions"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
}

// UserProfile is the extended profile record nested in a User.
type UserProfile struct {
	ID        int        `json:"id"`
	Bio       string     `json:"bio"`
	Avatar    string     `json:"avatar,omitempty"`
	Location  string     `json:"location"`
	Website   string     `json:"website"`
	Roles     []Role     `json:"roles"`
	IsPublic  bool       `json:"is_public"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// SocialAccount is a linked social identity (e.g. a Google account).
type SocialAccount struct {
	ID                  int    `json:"id"`
	Provider            string `json:"provider"`
	UID                 string `json:"uid"`
	ProviderDisplayName string `json:"provider_display_name,omitempty"`
}

// User is the canonical identity record returned by the remote API.
type User struct {
	ID             int             `json:"id"`
	Username       string          `json:"username"`
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Phone          string          `json:"phone,omitempty"`
	DateOfBirth    string          `json:"date_of_birth,omitempty"`
	IsVerified     bool            `json:"is_verified"`
	Profile        *UserProfile    `json:"profile,omitempty"`
	SocialAccounts []SocialAccount `json:"social_accounts,omitempty"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// AuthState is the single source of session truth. The Controller replaces
// it wholesale on each dispatched action; partial updates are never visible.
type AuthState struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// InitialState is the state at process start: the bootstrap load is
// considered in flight until the loader settles.
func InitialState() AuthState {
	return AuthState{IsLoading: true}
}

// TokenPair is one live credential pair. Refresh may be empty when the
// server rotates only the access token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// OAuthTokens is the result of a server-side authorization code exchange.
type OAuthTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user"`
}

// RegistrationData is the payload for the registration endpoint.
type RegistrationData struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	DateOfBirth     string `json:"date_of_birth,omitempty"`
}

// UserData is a partial update for the account record.
type UserData struct {
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// FileUpload carries a file destined for a multipart field.
type FileUpload struct {
	Filename string
	Reader   io.Reader
}

// ProfileData is a partial update for the profile record. Nil pointers mean
// "leave unchanged"; the client only encodes fields that are set.
type ProfileData struct {
	Bio      *string
	Avatar   *FileUpload
	Location *string
	Website  *string
	RoleIDs  []int
	IsPublic *bool
}

// API is the remote surface the Controller drives. *client.Client is the
// production implementation.
type API interface {
	Login(ctx context.Context, email, password string) (*User, error)
	Register(ctx context.Context, data RegistrationData) (*User, error)
	Logout(ctx context.Context) error
	RefreshTokens(ctx context.Context, refresh string) (TokenPair, error)
	CurrentUser(ctx context.Context) (*User, error)
	GoogleAuthURL(ctx context.Context) (string, error)
	ExchangeGoogleCode(ctx context.Context, code string) (*OAuthTokens, error)
	UpdateUser(ctx context.Context, data UserData) (*User, error)
	UpdateProfile(ctx context.Context, data ProfileData) (*UserProfile, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHKIT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// DefaultLogger returns the fallback logger used when none is configured.
func DefaultLogger() Logger {
	return defLogger{}
}

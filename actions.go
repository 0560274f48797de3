package authkit

// ActionType enumerates every possible session transition request.
type ActionType string

const (
	ActionLoginStart      ActionType = "login.start"
	ActionLoginSuccess    ActionType = "login.success"
	ActionLoginFailure    ActionType = "login.failure"
	ActionRegisterStart   ActionType = "register.start"
	ActionRegisterSuccess ActionType = "register.success"
	ActionRegisterFailure ActionType = "register.failure"
	ActionGoogleStart     ActionType = "google_signin.start"
	ActionGoogleSuccess   ActionType = "google_signin.success"
	ActionGoogleFailure   ActionType = "google_signin.failure"
	ActionLoadUserStart   ActionType = "load_user.start"
	ActionLoadUserSuccess ActionType = "load_user.success"
	ActionLoadUserFailure ActionType = "load_user.failure"
	ActionRefreshStart    ActionType = "refresh_token.start"
	ActionRefreshSuccess  ActionType = "refresh_token.success"
	ActionRefreshFailure  ActionType = "refresh_token.failure"
	ActionLogout          ActionType = "logout"
	ActionUpdateProfile   ActionType = "update_profile.success"
	ActionUpdateUser      ActionType = "update_user.success"
	ActionClearError      ActionType = "clear_error"
)

// Action is a pure transition request: a tag plus an optional payload.
// Success actions carry a User, failure actions that surface to the UI
// carry a Message. Actions never perform I/O; the operations that dispatch
// them do.
type Action struct {
	Type    ActionType
	User    *User
	Message string
}

func LoginStart() Action               { return Action{Type: ActionLoginStart} }
func LoginSuccess(u *User) Action      { return Action{Type: ActionLoginSuccess, User: u} }
func LoginFailure(msg string) Action   { return Action{Type: ActionLoginFailure, Message: msg} }
func RegisterStart() Action            { return Action{Type: ActionRegisterStart} }
func RegisterSuccess(u *User) Action   { return Action{Type: ActionRegisterSuccess, User: u} }
func RegisterFailure(m string) Action  { return Action{Type: ActionRegisterFailure, Message: m} }
func GoogleStart() Action              { return Action{Type: ActionGoogleStart} }
func GoogleSuccess(u *User) Action     { return Action{Type: ActionGoogleSuccess, User: u} }
func GoogleFailure(msg string) Action  { return Action{Type: ActionGoogleFailure, Message: msg} }
func LoadUserStart() Action            { return Action{Type: ActionLoadUserStart} }
func LoadUserSuccess(u *User) Action   { return Action{Type: ActionLoadUserSuccess, User: u} }
func LoadUserFailure() Action          { return Action{Type: ActionLoadUserFailure} }
func RefreshStart() Action             { return Action{Type: ActionRefreshStart} }
func RefreshSuccess(u *User) Action    { return Action{Type: ActionRefreshSuccess, User: u} }
func RefreshFailure() Action           { return Action{Type: ActionRefreshFailure} }
func Logout() Action                   { return Action{Type: ActionLogout} }
func UpdateProfileSuccess(u *User) Action {
	return Action{Type: ActionUpdateProfile, User: u}
}
func UpdateUserSuccess(u *User) Action { return Action{Type: ActionUpdateUser, User: u} }
func ClearError() Action               { return Action{Type: ActionClearError} }

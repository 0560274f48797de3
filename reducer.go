package authkit

// Reduce applies a session action to a state and returns the next state.
// It is a pure function: no I/O, no mutation of the input.
//
// Invariants it maintains:
//   - IsAuthenticated is true iff User is non-nil.
//   - Any success action clears Error.
//   - An authenticated state never carries an error message.
func Reduce(state AuthState, action Action) AuthState {
	switch action.Type {
	case ActionLoginStart, ActionRegisterStart, ActionGoogleStart:
		state.IsLoading = true
		state.Error = ""
		return state

	case ActionLoadUserStart, ActionRefreshStart:
		// Background starts keep the previous error visible until resolved.
		state.IsLoading = true
		return state

	case ActionLoginSuccess, ActionRegisterSuccess, ActionGoogleSuccess,
		ActionLoadUserSuccess, ActionRefreshSuccess:
		return AuthState{
			User:            action.User,
			IsAuthenticated: action.User != nil,
			IsLoading:       false,
			Error:           "",
		}

	case ActionLoginFailure, ActionRegisterFailure, ActionGoogleFailure:
		return AuthState{
			User:            nil,
			IsAuthenticated: false,
			IsLoading:       false,
			Error:           action.Message,
		}

	case ActionLoadUserFailure, ActionRefreshFailure, ActionLogout:
		// Silent degradation to signed-out: not an error condition.
		return AuthState{}

	case ActionUpdateProfile, ActionUpdateUser:
		state.User = action.User
		state.IsAuthenticated = action.User != nil
		state.IsLoading = false
		state.Error = ""
		return state

	case ActionClearError:
		state.Error = ""
		return state
	}

	return state
}

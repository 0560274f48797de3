// Package authkit is a Go client for the Routinely identity API. It keeps a
// local authentication session consistent with server-issued credentials.
//
// Session state:
//   - AuthState is the single source of session truth. It is only ever mutated
//     through dispatched Actions, applied by the pure Reduce function. The
//     Controller owns the state, exposes the public session operations (login,
//     register, logout, token refresh, profile/user updates, OAuth completion)
//     and guarantees that every operation dispatches a start action followed by
//     exactly one terminal success or failure action.
//
// Credentials:
//   - Access and refresh tokens live in a token.Store. Exactly one pair is live
//     at a time; a successful login or refresh replaces both values before any
//     dependent request is retried. The client package layers the bearer-attach
//     and single-retry-on-401 refresh protocol on top of the store.
//
// OAuth:
//   - The callback package turns a browser redirect back into an authenticated
//     session: it parses the callback query parameters, completes the sign-in
//     through the Controller, and renders a status page with a timed redirect.
package authkit

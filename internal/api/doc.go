// Package api implements the REST client for the Chorus backend.
//
// # Client
//
// [Client] wraps every REST endpoint the terminal client consumes:
// conversations, messages, directory search, and media upload. All methods
// take a context.Context and wrap failures with typed errors from the shared
// package.
//
// # Authentication
//
// Tokens are modeled with [oauth2.Token] and persisted by [TokenStore] as a
// JSON file under the user's config directory. Every request carries the
// current access token as a bearer header. On a 401 response the client
// attempts exactly one refresh (POST /auth/token/refresh/) and retries the
// request; a second 401 discards the stored session and surfaces
// [shared.ErrNotAuthenticated].
//
// # Response shape tolerance
//
// Message listing endpoints are served in three shapes by different backend
// versions: a bare array, {"messages": [...]}, or {"data": [...]}.
// normalizeMessageList handles all three explicitly and degrades to an empty
// list (with a logged warning) on anything else instead of erroring.
package api

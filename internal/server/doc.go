// Package server runs the short-lived local HTTP server used by `ltx auth`.
//
// # Router
//
// [BasicRouter] wraps [http.ServeMux] method patterns ("GET /callback") with a [Middleware] stack.
// The first middleware added is the outermost. [LogRequests] logs each request at debug level.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback. It checks the state parameter, exchanges the code
// through an [Exchanger] (the Spotify service) and publishes a single [OAuthResult]. Only the first callback is processed.
//
// [Serve] and [ListenAndServe] run the server until their context is cancelled, then shut it down gracefully.
package server

// Package server provides HTTP routing, middleware, and the queue API surface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally; handlers register
// method-qualified patterns through the [Handler] interface.
//
// # API Surface
//
// Four handler groups cover the service:
//   - [QueueHandler]: queue reads and mutations under /api/queue
//   - [CurrentSongHandler]: the now-playing slot under /api/current-song
//   - [SpotifyHandler]: catalog search, featured tracks, and the token endpoints under /api/spotify
//   - [WSHandler]: the /ws websocket feeding the realtime hub
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow for the CLI login.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel. It only processes one callback to prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

// Package web implements an HTMX-based web application mirroring the TUI functionality.
//
// # HTMX Web Application Implementation Plan
//
// # Architecture
//
// The web app replicates the four-view TUI workflow using server-side rendering
// with HTMX for dynamic updates. Each view corresponds to a template and handler:
//
//  1. Queue View: Server-rendered list of both users' pending songs
//  2. Search View: HTMX partial swap showing Spotify results + add buttons
//  3. History View: Played songs with who chose each one and when
//  4. Clear Confirm: Modal confirmation with hx-post trigger
//
// Core Components
//
//   - HTTP Server: net/http server with html/template rendering
//   - Service Integration: Uses the same services.QueueService and realtime.Hub as the API
//   - Identity Selection: Cookie pinning the browser to "yours" or "crush"
//   - WebSocket Bridge: Pushes queueUpdated/songUpdated events into the page
//
// Routes
//
//	GET  /                    → Queue view with now-playing banner
//	GET  /search?q=           → HTMX partial: Spotify search results
//	POST /queue               → Add song, return refreshed queue partial
//	POST /queue/next          → Advance, return now-playing partial
//	POST /queue/shuffle       → Shuffle, return refreshed queue partial
//	DELETE /queue/{songId}    → Remove song, return refreshed queue partial
//	POST /queue/clear         → Clear queue after confirmation
//	GET  /history             → History view
//	GET  /ws                  → WebSocket upgrade for live updates
//
// Templates
//
//   - base.html: Layout with identity badge and now-playing banner
//   - queue.html: Queue list with per-song remove buttons
//   - results.html: Partial template for search results
//   - history.html: Played songs grouped by day
//   - confirm.html: Clear-queue modal
//
// # State Management
//
// The page itself is stateless; every partial re-renders from the store.
// The browser keeps:
//   - Identity cookie: which of the two listeners this browser is
//   - WebSocket connection: live queueUpdated/songUpdated pushes
//
// # Live Updates
//
// Queue changes from either listener reach every open page:
//  1. Page opens a WebSocket to /ws on load
//  2. queueUpdated events trigger an hx-get refresh of the queue partial
//  3. songUpdated events swap the now-playing banner
//  4. Reconnect with backoff when the socket drops, then refetch state
//
// Identity Flow
//
//  1. First visit shows a picker for "yours" or "crush"
//  2. Choice is stored in a cookie and shown as a badge
//  3. Add operations attribute songs to the cookie identity
//  4. The picker stays reachable for shared devices
//
// Dependencies
//
//   - html/template: Server-side rendering
//   - net/http: HTTP server
//   - gorilla/websocket: live update bridge, shared with the API server
//
// Implementation Tasks
//
//  1. HTTP server setup with route registration
//  2. Template structure with HTMX integration
//  3. Identity cookie middleware
//  4. Queue view handler with service integration
//  5. Search handler (HTMX partial)
//  6. Mutation handlers returning refreshed partials
//  7. WebSocket handler reusing the realtime hub
//  8. History handler
//  9. Error handling and validation
//
// # Testing Strategy
//
// Use httptest:
//   - In-memory store behind services.QueueService
//   - Stub Catalog for search results
//   - Validate HTMX headers and response structure
//   - Test WebSocket event forwarding with a pipe connection
package web

// Package library keeps the browsing view in sync with the catalog service.
//
// # Components
//
//   - [SessionStore] holds the bearer token and user profile in a durable key-value store.
//   - [CatalogPager] pages through the catalog with the server's cursor, appending on load-more.
//   - [SearchFilter] replaces the page with filtered results and drops the cursor.
//   - [SubscriptionStore] holds the confirmed subscription set and toggles membership.
//   - [ViewController] decides which list is shown and reacts to session loss.
//
// # Session Loss
//
// Without a token no request is issued; the component redirects to [LoginPath] and returns
// [shared.ErrNotAuthenticated]. Any failed catalog or search fetch clears the session, redirects, and returns
// an error wrapping [shared.ErrSessionExpired]. Subscription calls only do so on a 401.
//
// # Concurrency
//
// Each store applies results under its own mutex. Requests run outside the lock and their results are
// applied in arrival order, so when two requests overlap the later completion wins.
package library

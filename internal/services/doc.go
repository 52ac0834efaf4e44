// Package services implements the HTTP client for the music catalog service.
//
// # Catalog Interface
//
// [Catalog] is the request/response primitive the browsing layer depends on. [Client] implements it over HTTP
// with JSON bodies. Tests substitute httptest servers rather than fakes of the interface.
//
// # Authentication
//
// Authenticated calls take the bearer token as an argument. The token is attached by an [oauth2.Transport]
// wrapping a static token source, so the header is always "Authorization: Bearer <token>". The client never
// stores the token; the session layer owns it.
//
// # Request Pacing
//
// Every request waits on a [rate.Limiter] (when configured) and carries a fresh X-Request-ID.
//
// # Error Handling
//
// Failures are classified so callers can branch with errors.Is:
//   - [shared.ErrUnauthorized] : HTTP 401 (via [StatusError])
//   - [shared.ErrAPIRequest] : any other non-2xx status (via [StatusError])
//   - [shared.ErrTransport] : the request never produced a response
//   - [shared.ErrDecode] : the response body was not the expected JSON
//   - [shared.ErrAuthFailed] : login answered success=false
//
// # API Mappings
//
//	GET  /music?limit=N[&last_evaluated_key=<urlencoded JSON>] → {items, lastEvaluatedKey}
//	GET  /music/query?title&artist&album&year                 → {items} or a bare array
//	GET  /subscriptions                                        → {albums}
//	POST /subscribe {composite_id}                             → {message}
//	POST /login {email, password}                              → {success, token, user, message}
//	POST /register {email, user_name, password}                → {message}
package services

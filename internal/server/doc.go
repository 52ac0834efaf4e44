// Package server implements a local stand-in for the music catalog service.
//
// It backs `crate mock-server` and the end-to-end tests. Nothing here is used by the client at runtime.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes.
// [CatalogHandler] registers every service endpoint this way.
//
// # Authentication
//
// POST /login issues an HS256 token whose subject is the account email. [TokenIssuer.RequireToken] guards the
// catalog and subscription endpoints and answers 401 for a missing, malformed or expired bearer token.
// Passwords are stored as bcrypt hashes.
//
// # Pagination
//
// GET /music returns albums in composite id order. lastEvaluatedKey is {"composite_id": <last id served>}
// and is null on the final page. Clients echo it back as the last_evaluated_key query parameter.
package server

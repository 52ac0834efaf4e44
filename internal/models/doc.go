// Package models defines the domain values shared by the catalog client.
//
// The package contains two categories of types:
//
// 1. Catalog values: what the catalog service returns
//   - [Album] : a catalog entry, keyed by its composite id
//   - [CatalogPage] : an ordered page of albums plus a continuation [Cursor]
//   - [SubscriptionSet] : the composite ids a user is subscribed to
//
// 2. Client state: what the client keeps between requests
//   - [Session] : the bearer token and [User] profile issued at login
//   - [SearchQuery] : the optional field filters used by catalog search
//
// A nil [Cursor] marks the final page. Composite ids are the identity key across catalog and subscription lists.
package models

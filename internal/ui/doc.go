// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI moves between a handful of screens:
//  1. [LoginScreen] : email and password, validated before anything is sent
//  2. [RegisterScreen] : account creation, returning to login on success
//  3. [BrowseScreen] : the catalog or the subscription list, with a ★ on subscribed albums
//  4. [SearchScreen] : four optional fields; enter in any of them submits
//
// Browsing state lives in a [library.ViewController]. Its redirects and notifications are collected by an
// inbox while a command runs and applied when the command's [Msg] reaches Update, so the model is only ever
// mutated on the update loop.
//
// Keys: tab flips catalog/subscriptions, a returns to the catalog, s toggles the selected subscription,
// m (or enter on the last row) loads the next page, / searches, o opens cover art, L logs out.
package ui

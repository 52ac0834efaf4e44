// Package repositories implements SQLite persistence for durable client state.
//
// The client keeps a small key-value area (the session token and the serialized user profile) that survives
// restarts. [KVRepository] stores it in the kv table created by the shared migrations.
//
// Multi-key writes and deletes run in a single transaction so related keys are persisted or removed as a unit.
// Missing keys are reported with [ErrNotFound].
package repositories

// Package mirror maintains the relational copy of the dataset registry used
// for keyword search.
//
// # Overview
//
// The JSON document managed by pkg/registry is the source of truth. This
// package projects every dataset record into a SQL table so that keyword
// search runs as an indexed query instead of a document scan. The mirror is
// derived state: it can be rebuilt from the document at any time and is never
// consulted for authoritative reads.
//
// Syncer implements registry.Sync, so the document store pushes the full
// record set through it after every successful write. Callers that finish an
// update therefore see their own change in search results immediately.
//
// # Consistency
//
// Mirror rows are only ever inserted or updated. A record that disappears
// from the document keeps its row until an operator drops the database and
// rebuilds; stale rows are considered harmless because every search result
// is a copy of what the document contained at sync time.
//
// The package also owns the database handle and schema shared with pkg/keys
// and pkg/usage. Open selects the dialect (SQLite for single-node installs,
// PostgreSQL for shared ones) and Migrate applies the idempotent DDL on
// every start.
package mirror

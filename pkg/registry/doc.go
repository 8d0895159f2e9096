// Package registry defines the dataset record model and the authoritative
// document store.
//
// # Overview
//
// Dataset metadata lives in a single JSON document on disk: an ordered array
// of records, one per dataset id. The document is the only writable source of
// truth. A relational mirror (pkg/mirror) is derived from it for keyword
// search and can be rebuilt from the document at any time without data loss.
//
// # Writes
//
// Upsert is a read-modify-write over the whole document. The store serializes
// mutations with an exclusive lock held across read, modify, write and the
// synchronous mirror sync, so concurrent upserts cannot lose updates and
// search reflects a write before its response is returned.
//
// # Failure semantics
//
// A missing document bootstraps to an empty array. An unreadable or malformed
// document surfaces as *CorruptionError; it is never treated as an empty
// store.
package registry

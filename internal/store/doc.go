// Package store owns the persisted scheduling data of the learner profile:
// cards, the append-only review log and per-set exclusion lists. It keeps a
// versioned logical schema on top of a small key-value abstraction so the same
// rules apply whether the bytes live in SQLite, PostgreSQL, Redis or memory.
package store

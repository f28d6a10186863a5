// Package domain contains the core scheduling entities of the drill: per-item
// cards with their memory state, review log entries and the closed rating,
// state and confidence enumerations. It is independent of any storage medium
// or delivery mechanism.
package domain

// Package store defines the persistence contracts of the study scheduler:
// study cards, finalized session summaries and in-progress session tallies.
// Implementations live under internal/platform.
package store

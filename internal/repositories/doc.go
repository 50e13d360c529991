// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [DeviceRepository] : Registry of removable devices keyed by stable hardware hashes
//   - [SyncRunRepository] : Per-device sync history with final counters
//
// Sequence numbers provide stable, human-readable ordering (e.g., device #3, run #42) independent of IDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories

// Package tasks orchestrates syncing catalog selections onto removable
// volumes with real-time progress reporting.
//
// # Core Operations
//
// [SyncEngine.Run] executes a full run against one volume:
//
//  1. Load the volume manifest (a missing one means a fresh volume; a
//     corrupt one aborts before anything is written)
//  2. [Reconcile] the selection against the manifest into a [Plan]
//  3. Delete content that is no longer selected, sequentially, before
//     any downloads so freed space is available up front
//  4. Sync each new album and playlist through staged download,
//     processing, and write phases
//  5. Save the manifest and report a [SyncResult]
//
// # Pipeline Stages
//
// Each unit flows through three stages: a download worker pool with
// rate limiting fetches track and cover bytes; an independent
// processing pool embeds cover art into MP3 and FLAC tags; writes land
// sequentially in track order so a pulled cable leaves at most one
// partial file. A failed track download drops that track; a failed
// embed falls back to the untagged bytes; a unit that yields zero
// tracks is a unit failure. Per-unit failures are reported and the run
// continues.
//
// # Progress Reporting
//
// Operations publish [ProgressUpdate] events through a [Publisher],
// an unbounded queue that never blocks the pipeline and never drops
// an event. The consumer reads [Publisher.Updates] until it closes.
//
// # Selection Persistence
//
// The browser's working selection survives sessions via
// [SaveSelection] and [LoadSelection] in the user cache directory.
package tasks

// Package ui renders sync progress and results in the terminal.
//
// [Summary], [TargetLine] and [ProgressLine] produce styled text for the plain CLI output.
//
// The interactive [Model] follows bubbletea's Elm architecture and walks through four views:
//  1. [TrackListView] : Browse the tracks pulled from the source
//  2. [ConfirmView] : Confirm the sync against the configured services
//  3. [SyncView] : Monitor per-service progress while the [tasks.SyncEngine] runs
//  4. [ResultView] : Show per-service statistics, then [OutcomeListView] lists rejected, missing and failed tracks
//
// Progress updates flow through a channel from the engine; the model re-arms a command to read the next one after each update.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

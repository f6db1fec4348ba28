package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ltx/internal/tasks"
)

// progressUpdateMsg carries a [tasks.ProgressUpdate] into the update loop.
type progressUpdateMsg tasks.ProgressUpdate

// syncCompleteMsg is sent once [tasks.SyncEngine.Run] returns.
type syncCompleteMsg struct {
	result *tasks.RunResult
	err    error
}

// waitForProgress relays progress until the channel is closed, then reports the run result.
func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan syncCompleteMsg) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/ltx/internal/cache"
	"github.com/desertthunder/ltx/internal/tasks"
)

// ProgressLine renders a progress update as a single styled line.
func ProgressLine(u tasks.ProgressUpdate) string {
	switch u.Phase {
	case tasks.Failed:
		return styles.error.Render(u.Message)
	case tasks.Done:
		return styles.success.Render(u.Message)
	case tasks.Resolve:
		return styles.help.Render(u.Message)
	default:
		return u.Message
	}
}

// StatsLine summarizes resolution statistics.
func StatsLine(s cache.Stats) string {
	parts := []string{
		fmt.Sprintf("%d/%d accepted", s.Accepted, s.Total),
		fmt.Sprintf("%d cached", s.CacheHits),
		fmt.Sprintf("%d searched", s.Searched),
	}
	if s.Rejected > 0 {
		parts = append(parts, fmt.Sprintf("%d rejected", s.Rejected))
	}
	if s.NotFound > 0 {
		parts = append(parts, fmt.Sprintf("%d not found", s.NotFound))
	}
	if s.Errors > 0 {
		parts = append(parts, styles.warning.Render(fmt.Sprintf("%d errors", s.Errors)))
	}
	return strings.Join(parts, " • ")
}

// TargetLine renders the outcome of a single target.
func TargetLine(r tasks.TargetResult) string {
	var b strings.Builder

	if r.Err != nil {
		b.WriteString(styles.error.Render(fmt.Sprintf("✗ %s", r.Service)))
	} else {
		b.WriteString(styles.success.Render(fmt.Sprintf("✓ %s", r.Service)))
	}

	if r.Resolution != nil {
		b.WriteString("  ")
		b.WriteString(StatsLine(r.Resolution.Stats))
	}

	switch {
	case r.Err != nil:
		fmt.Fprintf(&b, "\n    %s", styles.error.Render(r.Err.Error()))
	case r.Updated:
		fmt.Fprintf(&b, "\n    playlist %s updated", r.PlaylistID)
	case r.Resolution != nil:
		b.WriteString("\n    " + styles.help.Render("playlist not updated (dry run)"))
	}

	if r.CacheErr != nil {
		fmt.Fprintf(&b, "\n    %s", styles.warning.Render("cache: "+r.CacheErr.Error()))
	}

	return b.String()
}

// Summary renders a finished sync run.
func Summary(result *tasks.RunResult) string {
	var b strings.Builder

	title := fmt.Sprintf("Synced %d tracks to %d services", result.Tracks, len(result.Targets))
	if failed := result.Failed(); failed > 0 {
		title = fmt.Sprintf("%s (%d failed)", title, failed)
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	for _, r := range result.Targets {
		b.WriteString(TargetLine(r))
		b.WriteString("\n")
	}

	return b.String()
}

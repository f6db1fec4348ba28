package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ltx/internal/cache"
	"github.com/desertthunder/ltx/internal/formatter"
	"github.com/desertthunder/ltx/internal/models"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = outcomeItem{}
)

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Query() }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string { return i.track.Artist }

// outcomeItem wraps a [cache.Outcome] and the service it was resolved against.
type outcomeItem struct {
	service string
	outcome cache.Outcome
}

func (i outcomeItem) FilterValue() string { return i.service + " " + i.outcome.Track.Query() }
func (i outcomeItem) Title() string {
	return fmt.Sprintf("%s - %s", i.outcome.Track.Artist, i.outcome.Track.Title)
}
func (i outcomeItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.service, formatter.OutcomeStatus(i.outcome))
	switch {
	case i.outcome.Err != nil:
		desc = fmt.Sprintf("%s • %v", desc, i.outcome.Err)
	case i.outcome.Result != nil:
		rec := i.outcome.Result.Record
		desc = fmt.Sprintf("%s → %s - %s", desc, strings.Join(rec.Artists, ", "), rec.Title)
	}
	if i.outcome.CacheHit {
		desc += " (cached)"
	}
	return desc
}

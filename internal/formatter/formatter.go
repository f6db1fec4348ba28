// package formatter renders resolutions, cache contents and run history as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ltx/internal/cache"
	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/shared"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Format names accepted by [ExportCache] and [ExportResolution].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// Entry status labels
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// EntryStatus labels a cache entry.
func EntryStatus(entry *cache.Result) string {
	switch {
	case entry == nil:
		return StatusNotFound
	case entry.Accepted:
		return StatusAccepted
	default:
		return StatusRejected
	}
}

// OutcomeStatus labels a resolution outcome.
func OutcomeStatus(o cache.Outcome) string {
	if o.Err != nil {
		return StatusError
	}
	return EntryStatus(o.Result)
}

func entryColumns(entry *cache.Result) (id, title, artists string) {
	if entry == nil {
		return "", "", ""
	}
	return entry.Record.ID, entry.Record.Title, strings.Join(entry.Record.Artists, "; ")
}

// CacheToCSV converts cache pairs to CSV with columns: Artist, Title, Status, ID, Matched Title, Matched Artists
func CacheToCSV(pairs []cache.Pair) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Artist", "Title", "Status", "ID", "Matched Title", "Matched Artists"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range pairs {
		id, title, artists := entryColumns(p.Entry)
		record := []string{p.Track.Artist, p.Track.Title, EntryStatus(p.Entry), id, title, artists}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// CacheToMarkdown converts cache pairs to a Markdown table headed by name.
func CacheToMarkdown(name string, pairs []cache.Pair) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s cache\n\n", name)
	fmt.Fprintf(&buf, "**Entries**: %d\n\n", len(pairs))

	buf.WriteString("| Artist | Title | Status | Match |\n")
	buf.WriteString("|---|---|---|---|\n")
	for _, p := range pairs {
		match := ""
		if p.Entry != nil {
			match = fmt.Sprintf("%s - %s", strings.Join(p.Entry.Record.Artists, ", "), p.Entry.Record.Title)
		}
		fmt.Fprintf(&buf, "| %s | %s | %s | %s |\n",
			escapeCell(p.Track.Artist), escapeCell(p.Track.Title), EntryStatus(p.Entry), escapeCell(match))
	}

	return buf.Bytes()
}

// CacheToText converts cache pairs to plain text, one entry per line.
func CacheToText(pairs []cache.Pair) []byte {
	var buf bytes.Buffer
	for i, p := range pairs {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]", i+1, p.Track.Artist, p.Track.Title, EntryStatus(p.Entry))
		if p.Entry != nil {
			fmt.Fprintf(&buf, " -> %s (%s)", p.Entry.Record.Title, p.Entry.Record.ID)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// ExportCache renders cache pairs in the given format.
func ExportCache(format, name string, pairs []cache.Pair) ([]byte, error) {
	switch format {
	case FormatCSV:
		return CacheToCSV(pairs)
	case FormatMarkdown, "md":
		return CacheToMarkdown(name, pairs), nil
	case FormatText, "text", "":
		return CacheToText(pairs), nil
	case FormatJSON:
		if pairs == nil {
			pairs = []cache.Pair{}
		}
		return shared.MarshalJSON(pairs, true)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

// ResolutionToCSV converts resolution outcomes to CSV with columns: Artist, Title, Status, Cached, ID, Matched Title, Matched Artists
func ResolutionToCSV(res *cache.Resolution) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Artist", "Title", "Status", "Cached", "ID", "Matched Title", "Matched Artists"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range res.Outcomes {
		id, title, artists := entryColumns(o.Result)
		record := []string{
			o.Track.Artist,
			o.Track.Title,
			OutcomeStatus(o),
			strconv.FormatBool(o.CacheHit),
			id,
			title,
			artists,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResolutionToText converts a resolution to plain text with a summary line.
func ResolutionToText(service string, res *cache.Resolution) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Service: %s\n", service)
	fmt.Fprintf(&buf, "Accepted: %d/%d\n\n", res.Stats.Accepted, res.Stats.Total)

	for i, o := range res.Outcomes {
		status := OutcomeStatus(o)
		if o.CacheHit {
			status += ", cached"
		}
		fmt.Fprintf(&buf, "%d. %s - %s [%s]", i+1, o.Track.Artist, o.Track.Title, status)
		switch {
		case o.Err != nil:
			fmt.Fprintf(&buf, ": %v", o.Err)
		case o.Result != nil:
			fmt.Fprintf(&buf, " -> %s (%s)", o.Result.Record.Title, o.Result.Record.ID)
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}

// ExportResolution renders a resolution in the given format.
func ExportResolution(format, service string, res *cache.Resolution) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ResolutionToCSV(res)
	case FormatText, "text", "":
		return ResolutionToText(service, res), nil
	case FormatJSON:
		return shared.MarshalJSON(newResolutionView(service, res), true)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

type outcomeView struct {
	Track  models.Track   `json:"track"`
	Status string         `json:"status"`
	Cached bool           `json:"cached"`
	Record *models.Record `json:"record,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type resolutionView struct {
	Service  string          `json:"service"`
	Stats    cache.Stats     `json:"stats"`
	Records  []models.Record `json:"records"`
	Outcomes []outcomeView   `json:"outcomes"`
}

func newResolutionView(service string, res *cache.Resolution) resolutionView {
	v := resolutionView{
		Service:  service,
		Stats:    res.Stats,
		Records:  res.Records,
		Outcomes: make([]outcomeView, len(res.Outcomes)),
	}
	if v.Records == nil {
		v.Records = []models.Record{}
	}
	for i, o := range res.Outcomes {
		ov := outcomeView{Track: o.Track, Status: OutcomeStatus(o), Cached: o.CacheHit}
		if o.Result != nil {
			ov.Record = &o.Result.Record
		}
		if o.Err != nil {
			ov.Error = o.Err.Error()
		}
		v.Outcomes[i] = ov
	}
	return v
}

// RunsToText renders run history as a borderless table, in the order given.
func RunsToText(runs []models.RunRecord) []byte {
	tw := table.NewWriter()
	style := table.StyleDefault
	style.Options = table.Options{}
	style.Box.PaddingLeft = ""
	style.Box.PaddingRight = "  "
	tw.SetStyle(style)

	tw.AppendHeader(table.Row{"Started", "Service", "Total", "Hits", "OK", "Reject", "Errors", "Updated", "Duration"})
	for _, r := range runs {
		tw.AppendRow(table.Row{
			r.StartedAt.Local().Format(time.DateTime),
			r.Service,
			r.Total,
			r.CacheHits,
			r.Accepted,
			r.Rejected,
			r.Errors,
			yesNo(r.Updated),
			r.Duration().Round(time.Millisecond).String(),
		})
	}

	configs := make([]table.ColumnConfig, 0, 5)
	for col := 3; col <= 7; col++ {
		configs = append(configs, table.ColumnConfig{Number: col, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)

	return []byte(tw.Render() + "\n")
}

// WriteExport writes data to path, creating parent directories as needed.
func WriteExport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

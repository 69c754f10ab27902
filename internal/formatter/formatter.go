// package formatter renders a reconciliation delta in various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/lovesync/internal/models"
	"github.com/desertthunder/lovesync/internal/shared"
)

// Format is an export format name.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// Formats lists the accepted format names.
var Formats = []Format{Text, CSV, Markdown, JSON}

// ParseFormat accepts a format name or a common alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension is the file extension used by [WriteExport] when the path has none.
func (f Format) Extension() string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	case JSON:
		return ".json"
	default:
		return ".txt"
	}
}

// Report is the data rendered by the exporters.
type Report struct {
	Local  models.Snapshot `json:"local"`
	Remote models.Snapshot `json:"remote"`
	Delta  models.Delta    `json:"delta"`
}

type deltaRow struct {
	action string
	song   models.KeyedSong
}

// rows lists the delta in application order: removals, then additions.
func (r Report) rows() []deltaRow {
	rows := make([]deltaRow, 0, r.Delta.Total())
	for _, song := range r.Delta.Extra {
		rows = append(rows, deltaRow{"unlove", song})
	}
	for _, song := range r.Delta.Missing {
		rows = append(rows, deltaRow{"love", song})
	}
	return rows
}

// ExportToCSV converts a Report to CSV format with columns: Action, Artist, Title, Key
func ExportToCSV(report Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Action", "Artist", "Title", "Key"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range report.rows() {
		record := []string{row.action, row.song.Artist, row.song.Title, row.song.Key}
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

// ExportToMarkdown converts a Report to Markdown with one section per bucket
func ExportToMarkdown(report Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s → %s\n\n", report.Local.Source, report.Remote.Source)
	fmt.Fprintf(&buf, "**%s favorites**: %d\n", report.Local.Source, report.Local.Len())
	fmt.Fprintf(&buf, "**%s loved**: %d\n\n", report.Remote.Source, report.Remote.Len())

	writeSection := func(title string, songs []models.KeyedSong) {
		fmt.Fprintf(&buf, "## %s (%d)\n\n", title, len(songs))
		if len(songs) == 0 {
			buf.WriteString("_None_\n\n")
			return
		}
		for i, song := range songs {
			fmt.Fprintf(&buf, "%d. %s - %s `%s`\n", i+1, song.Artist, song.Title, song.Key)
		}
		buf.WriteString("\n")
	}

	writeSection("To unlove", report.Delta.Extra)
	writeSection("To love", report.Delta.Missing)

	return buf.Bytes(), nil
}

// ExportToText converts a Report to plain text format
func ExportToText(report Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s: %d favorites\n", report.Local.Source, report.Local.Len())
	fmt.Fprintf(&buf, "%s: %d loved\n", report.Remote.Source, report.Remote.Len())
	fmt.Fprintf(&buf, "Missing: %d\nExtra: %d\n\n", len(report.Delta.Missing), len(report.Delta.Extra))

	for i, row := range report.rows() {
		fmt.Fprintf(&buf, "%d. [%s] %s - %s\n", i+1, row.action, row.song.Artist, row.song.Title)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a Report to indented JSON
func ExportToJSON(report Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders report in format.
func Export(report Report, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return ExportToCSV(report)
	case Markdown:
		return ExportToMarkdown(report)
	case JSON:
		return ExportToJSON(report)
	case Text, "":
		return ExportToText(report)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders report and writes it to path.
//
// Defaults to delta{ext} in the working directory. Parent directories are created.
func WriteExport(report Report, format Format, path string) (string, error) {
	if path == "" {
		path = "delta" + format.Extension()
	}

	data, err := Export(report, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

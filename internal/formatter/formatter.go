// package formatter renders album listings as tables, JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/shared"
)

// Format names an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat resolves a format name, accepting "md" and "txt" as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

// Listing is a titled set of albums with the subscription state known when it was rendered.
type Listing struct {
	Title      string
	Albums     []models.Album
	Subscribed models.SubscriptionSet // nil hides the subscription column
	HasMore    bool
}

func (l Listing) marker(a models.Album) string {
	if l.Subscribed.Has(a.CompositeID) {
		return "★"
	}
	return ""
}

// Render encodes l in format.
func Render(l Listing, format Format) ([]byte, error) {
	switch format {
	case FormatTable:
		return ExportToTable(l), nil
	case FormatJSON:
		return ExportToJSON(l)
	case FormatCSV:
		return ExportToCSV(l)
	case FormatMarkdown:
		return ExportToMarkdown(l), nil
	case FormatText:
		return ExportToText(l), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// Write renders l to w.
func Write(w io.Writer, l Listing, format Format) error {
	data, err := Render(l, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// ExportToTable draws a bordered table.
func ExportToTable(l Listing) []byte {
	headers := []string{"#", "Title", "Artist", "Album", "Year"}
	if l.Subscribed != nil {
		headers = append(headers, "Sub")
	}

	rows := make([][]string, 0, len(l.Albums))
	for i, a := range l.Albums {
		row := []string{fmt.Sprint(i + 1), a.Title, a.Artist, a.Album, a.Year.String()}
		if l.Subscribed != nil {
			row = append(row, l.marker(a))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)

	var buf bytes.Buffer
	if l.Title != "" {
		buf.WriteString(l.Title + "\n")
	}
	buf.WriteString(t.String())
	buf.WriteString("\n")
	buf.WriteString(summary(l) + "\n")
	return buf.Bytes()
}

// ExportToCSV writes columns composite_id, title, artist, album, year, img_url and, when known, subscribed.
func ExportToCSV(l Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"composite_id", "title", "artist", "album", "year", "img_url"}
	if l.Subscribed != nil {
		headers = append(headers, "subscribed")
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, a := range l.Albums {
		record := []string{a.CompositeID, a.Title, a.Artist, a.Album, a.Year.String(), a.ImageURL}
		if l.Subscribed != nil {
			record = append(record, fmt.Sprint(l.Subscribed.Has(a.CompositeID)))
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

type jsonListing struct {
	Title   string      `json:"title,omitempty"`
	Count   int         `json:"count"`
	HasMore bool        `json:"has_more"`
	Items   []jsonAlbum `json:"items"`
}

type jsonAlbum struct {
	models.Album
	Subscribed *bool `json:"subscribed,omitempty"`
}

// ExportToJSON writes an indented JSON document with the albums under "items".
func ExportToJSON(l Listing) ([]byte, error) {
	out := jsonListing{Title: l.Title, Count: len(l.Albums), HasMore: l.HasMore, Items: make([]jsonAlbum, 0, len(l.Albums))}
	for _, a := range l.Albums {
		item := jsonAlbum{Album: a}
		if l.Subscribed != nil {
			sub := l.Subscribed.Has(a.CompositeID)
			item.Subscribed = &sub
		}
		out.Items = append(out.Items, item)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToMarkdown writes a heading, a summary line and a numbered list with cover links.
func ExportToMarkdown(l Listing) []byte {
	var buf bytes.Buffer

	title := l.Title
	if title == "" {
		title = "Albums"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Albums**: %d\n\n", len(l.Albums)))

	for i, a := range l.Albums {
		line := fmt.Sprintf("%d. %s - %s", i+1, a.Artist, a.Title)
		if a.Album != "" {
			line += fmt.Sprintf(" (%s", a.Album)
			if a.Year != "" {
				line += fmt.Sprintf(", %s", a.Year)
			}
			line += ")"
		}
		if m := l.marker(a); m != "" {
			line += " " + m
		}
		if a.ImageURL != "" {
			line += fmt.Sprintf(" [cover](%s)", a.ImageURL)
		}
		buf.WriteString(line + "\n")
	}

	if l.HasMore {
		buf.WriteString("\n_More albums are available._\n")
	}
	return buf.Bytes()
}

// ExportToText writes one line per album.
func ExportToText(l Listing) []byte {
	var buf bytes.Buffer
	if l.Title != "" {
		buf.WriteString(l.Title + "\n")
	}
	for i, a := range l.Albums {
		line := fmt.Sprintf("%d. %s - %s", i+1, a.Artist, a.Title)
		if m := l.marker(a); m != "" {
			line += " " + m
		}
		buf.WriteString(line + "\n")
	}
	buf.WriteString(summary(l) + "\n")
	return buf.Bytes()
}

func summary(l Listing) string {
	s := fmt.Sprintf("%d albums", len(l.Albums))
	if len(l.Albums) == 1 {
		s = "1 album"
	}
	if l.HasMore {
		s += " (more available)"
	}
	return s
}

// Extension returns the file extension used for format.
func Extension(format Format) string {
	switch format {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// WriteExport renders l to path, creating parent directories. An empty path defaults to
// albums{ext} in the working directory.
func WriteExport(l Listing, format Format, path string) (string, error) {
	if path == "" {
		path = "albums" + Extension(format)
	}

	data, err := Render(l, format)
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

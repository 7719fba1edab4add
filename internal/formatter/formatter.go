// package formatter renders recommendation responses as JSON, CSV, Markdown or plain text and writes them to disk
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

	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat accepts a format name case-insensitively; "md" and "text" are aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want json, csv, markdown or txt)", shared.ErrInvalidFlag, s)
	}
}

// Ext returns the file extension written for f.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Export renders resp in format f.
func Export(resp *models.RecommendationResponse, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(resp)
	case FormatMarkdown:
		return ExportToMarkdown(resp)
	case FormatText:
		return ExportToText(resp)
	case FormatJSON:
		return shared.MarshalJSON(resp, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToCSV converts a response to CSV with columns: Rank, SongID, SongName, Artist, Genre, Score
func ExportToCSV(resp *models.RecommendationResponse) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "SongID", "SongName", "Artist", "Genre", "Score"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range resp.Items {
		record := []string{
			strconv.Itoa(item.Rank),
			strconv.FormatInt(item.SongID, 10),
			item.SongName,
			item.Artist,
			item.Genre,
			strconv.FormatFloat(item.Score, 'f', 4, 64),
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

// ExportToMarkdown converts a response to a Markdown document with a ranked table
func ExportToMarkdown(resp *models.RecommendationResponse) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Playlist for you\n\n")
	buf.WriteString(fmt.Sprintf("**Based on**: %s\n\n", SongLabel(resp.Seed)))
	buf.WriteString(fmt.Sprintf("**Engine**: %s (%s)\n", resp.EngineVersion, resp.AudioModel))
	buf.WriteString(fmt.Sprintf("**Method**: %s\n", resp.Method))
	buf.WriteString(fmt.Sprintf("**Cached**: %s\n", yesNo(resp.Cached)))
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(resp.Items)))

	if len(resp.Items) == 0 {
		buf.WriteString("_No recommendations were returned for this seed._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Song | Artist | Genre | Score |\n")
	buf.WriteString("|---|------|--------|-------|-------|\n")
	for _, item := range resp.Items {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %.4f |\n",
			item.Rank, escapeCell(item.SongName), escapeCell(item.Artist), escapeCell(item.Genre), item.Score))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a response to plain text
func ExportToText(resp *models.RecommendationResponse) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Based on: %s\n", SongLabel(resp.Seed)))
	buf.WriteString(fmt.Sprintf("Engine: %s  Method: %s  Cached: %s\n", resp.EngineVersion, resp.Method, yesNo(resp.Cached)))
	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(resp.Items)))

	for _, item := range resp.Items {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%.3f)\n", item.Rank, item.Artist, item.SongName, item.Score))
	}

	return buf.Bytes(), nil
}

// SongLabel renders a song as "name by artist", falling back to its id when the name is unknown.
func SongLabel(s models.Song) string {
	switch {
	case s.SongName == "":
		return fmt.Sprintf("song %d", s.SongID)
	case s.Artist == "":
		return s.SongName
	default:
		return fmt.Sprintf("%s by %s", s.SongName, s.Artist)
	}
}

// DefaultFilename is recommendations_{seed_id}.{ext}.
func DefaultFilename(resp *models.RecommendationResponse, f Format) string {
	return fmt.Sprintf("recommendations_%d.%s", resp.Seed.SongID, f.Ext())
}

// WriteExport renders resp in format f and writes it to path, creating parent directories.
//
// An empty path writes [DefaultFilename] in the working directory.
func WriteExport(resp *models.RecommendationResponse, f Format, path string) (string, error) {
	if path == "" {
		path = DefaultFilename(resp, f)
	}

	data, err := Export(resp, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

// ManifestEntry summarizes one seed of a batch run.
type ManifestEntry struct {
	Seed     string   `json:"seed"`
	SeedID   int64    `json:"seed_id,omitempty"`
	SeedName string   `json:"seed_name,omitempty"`
	Status   string   `json:"status"`
	Items    int      `json:"items"`
	Files    []string `json:"files,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// BatchManifest is written as batch_manifest.json at the end of a batch run.
type BatchManifest struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Format      Format          `json:"format"`
	TotalSeeds  int             `json:"total_seeds"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	Entries     []ManifestEntry `json:"entries"`
}

// WriteBatchManifest writes m as indented JSON to path.
func WriteBatchManifest(m BatchManifest, path string) error {
	if m.GeneratedAt.IsZero() {
		m.GeneratedAt = time.Now().UTC()
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to generate manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
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

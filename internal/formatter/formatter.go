// package formatter renders batch resolution results as JSON, CSV or plain text reports
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/shared"
)

// Supported report formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatText = "txt"
)

// Formats lists the accepted values for --format
var Formats = []string{FormatJSON, FormatCSV, FormatText}

// CSVHeaders is the column order of [ExportToCSV]
var CSVHeaders = []string{"key", "feedGuid", "itemGuid", "success", "title", "artist", "audioUrl", "duration", "error"}

// ExportToJSON renders the result map keyed by "feedGuid:itemGuid"
func ExportToJSON(results map[string]models.ResolvedTrack) ([]byte, error) {
	if results == nil {
		results = map[string]models.ResolvedTrack{}
	}
	data, err := shared.MarshalJSON(results, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal results: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV renders one row per reference, sorted by key
func ExportToCSV(results map[string]models.ResolvedTrack) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(CSVHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, key := range sortedKeys(results) {
		track := results[key]
		feed, item, _ := strings.Cut(key, ":")
		record := []string{
			key,
			feed,
			item,
			strconv.FormatBool(track.Success),
			track.Title,
			track.Artist,
			track.AudioURL,
			strconv.Itoa(track.Duration),
			string(track.Error),
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

// ExportToText renders a human readable listing followed by a one line summary
func ExportToText(results map[string]models.ResolvedTrack) ([]byte, error) {
	var buf bytes.Buffer
	resolved := 0

	for i, key := range sortedKeys(results) {
		track := results[key]
		if !track.Success {
			fmt.Fprintf(&buf, "%d. [%s] %s\n", i+1, track.Error, key)
			continue
		}

		resolved++
		fmt.Fprintf(&buf, "%d. %s - %s", i+1, track.Artist, track.Title)
		if track.Duration > 0 {
			fmt.Fprintf(&buf, " [%s]", FormatDuration(track.Duration))
		}
		fmt.Fprintf(&buf, " (%s)\n", key)
	}

	if len(results) > 0 {
		buf.WriteString("\n")
	}
	fmt.Fprintf(&buf, "Resolved: %d of %d\n", resolved, len(results))

	return buf.Bytes(), nil
}

// Export renders results in the named format
func Export(results map[string]models.ResolvedTrack, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return ExportToJSON(results)
	case FormatCSV:
		return ExportToCSV(results)
	case FormatText, "text":
		return ExportToText(results)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (expected one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders results and writes them to path, creating parent directories.
//
// Defaults to batch_results.{format} in the working directory.
func WriteExport(results map[string]models.ResolvedTrack, format, path string) (string, error) {
	data, err := Export(results, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		ext := strings.ToLower(strings.TrimSpace(format))
		switch ext {
		case "":
			ext = FormatJSON
		case "text":
			ext = FormatText
		}
		path = "batch_results." + ext
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// FormatDuration renders seconds as m:ss, or h:mm:ss past an hour
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func sortedKeys(results map[string]models.ResolvedTrack) []string {
	return slices.Sorted(maps.Keys(results))
}

// package formatter renders queue state for the terminal and exports the
// shared playlist to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

// FormatQueue renders the unplayed queue as a numbered list with its totals.
func FormatQueue(entries []*models.QueueEntry, stats models.QueueStats) string {
	var buf bytes.Buffer

	if len(entries) == 0 {
		buf.WriteString("The queue is empty.\n")
		return buf.String()
	}

	buf.WriteString(fmt.Sprintf("Queue (%d songs, %s total)\n\n", stats.TotalSongs, shared.FormatDuration(stats.TotalDuration)))
	for _, entry := range entries {
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s] (added by %s)\n",
			entry.Position, entry.Song.Artist, entry.Song.SongName,
			shared.FormatDuration(entry.Song.Duration), entry.AddedBy))
	}

	buf.WriteString(fmt.Sprintf("\nyours: %d  crush: %d\n", stats.AddedByYours, stats.AddedByCrush))
	return buf.String()
}

// FormatHistory renders played songs newest first.
func FormatHistory(entries []*models.HistoryEntry) string {
	var buf bytes.Buffer

	if len(entries) == 0 {
		buf.WriteString("Nothing has been played yet.\n")
		return buf.String()
	}

	buf.WriteString(fmt.Sprintf("History (%d songs)\n\n", len(entries)))
	for i, entry := range entries {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (played by %s at %s)\n",
			i+1, entry.Song.Artist, entry.Song.SongName,
			entry.PlayedBy, entry.PlayedAt.Local().Format("Jan 2 15:04")))
	}

	return buf.String()
}

// FormatCurrent renders the now-playing slot.
func FormatCurrent(current *models.CurrentSong) string {
	if current == nil {
		return "Nothing is playing.\n"
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Now playing: %s - %s", current.Song.Artist, current.Song.SongName))
	if current.Song.Album != "" {
		buf.WriteString(fmt.Sprintf(" (%s)", current.Song.Album))
	}
	buf.WriteString(fmt.Sprintf(" [%s]\n", shared.FormatDuration(current.Song.Duration)))
	buf.WriteString(fmt.Sprintf("Chosen by %s at %s\n", current.ChosenBy, current.ChosenAt.Local().Format("Jan 2 15:04")))
	return buf.String()
}

// FormatSearchResults renders catalog tracks as a numbered list.
func FormatSearchResults(songs []models.Song) string {
	var buf bytes.Buffer

	if len(songs) == 0 {
		buf.WriteString("No tracks found.\n")
		return buf.String()
	}

	for i, song := range songs {
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]  %s\n",
			i+1, song.Artist, song.SongName, albumPart,
			shared.FormatDuration(song.Duration), song.SongID))
	}

	return buf.String()
}

// ExportToCSV converts a QueueExport to CSV format with columns: Name, Artist, Album, Duration, Added By, Spotify URL
func ExportToCSV(export *models.QueueExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Name", "Artist", "Album", "Duration", "Added By", "Spotify URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range export.Playlist {
		record := []string{
			song.Name,
			song.Artist,
			song.Album,
			strconv.Itoa(song.Duration),
			string(song.AddedBy),
			song.SpotifyURL,
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

// ExportToMarkdown converts a QueueExport to Markdown format with optional cover image
func ExportToMarkdown(export *models.QueueExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Our Playlist\n\n")

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**Exported**: %s\n", export.ExportedAt.Format("January 2, 2006")))
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n", export.TotalSongs))
	buf.WriteString(fmt.Sprintf("**Duration**: %s\n\n", shared.FormatDuration(export.TotalDuration)))

	buf.WriteString("## Songs\n\n")
	for i, song := range export.Playlist {
		duration := shared.FormatDuration(song.Duration)
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s] by %s\n", i+1, song.Artist, song.Name, albumPart, duration, song.AddedBy))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a QueueExport to plain text format
func ExportToText(export *models.QueueExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("Our Playlist\n")
	buf.WriteString(fmt.Sprintf("Exported: %s\n", export.ExportedAt.Format("2006-01-02")))
	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", export.TotalSongs))

	for i, song := range export.Playlist {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, song.Artist, song.Name))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToSummaryJSON generates a JSON representation of the export metadata (without songs)
func ToSummaryJSON(export *models.QueueExport) ([]byte, error) {
	summary := struct {
		ExportedAt    time.Time `json:"exportedAt"`
		TotalSongs    int       `json:"totalSongs"`
		TotalDuration int       `json:"totalDuration"`
	}{export.ExportedAt, export.TotalSongs, export.TotalDuration}

	return shared.MarshalJSON(summary, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	SongsFile   string
	SummaryFile string
}

// WriteCSVExport exports the queue to CSV format with an accompanying summary JSON file.
//
// Defaults to "our-playlist" as the base filename & creates {base}_songs.csv and {base}_summary.json
func WriteCSVExport(export *models.QueueExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "our-playlist"
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	songsFile := baseFilepath + "_songs.csv"
	if err := os.WriteFile(songsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	summaryJSON, err := ToSummaryJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary JSON: %w", err)
	}

	summaryFile := baseFilepath + "_summary.json"
	if err := os.WriteFile(summaryFile, summaryJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary file: %w", err)
	}

	return &CSVExportResult{
		SongsFile:   songsFile,
		SummaryFile: summaryFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports the queue to Markdown format in a dedicated directory.
//
// Directory name defaults to "our-playlist".
// The imageURL parameter is optional - if provided, attempts to download the cover image
// (typically the album art of the first song).
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(export *models.QueueExport, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "our-playlist"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := fmt.Sprintf("%s/%s", outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports the queue to plain text format.
//
// Defaults to "our-playlist.txt" as the filename.
func WriteTextExport(export *models.QueueExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = "our-playlist.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

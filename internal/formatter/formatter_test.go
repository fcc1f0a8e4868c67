package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/wherebelong/belong/internal/models"
	th "github.com/wherebelong/belong/internal/testing"
)

func sampleExport() *models.QueueExport {
	exportedAt := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	return &models.QueueExport{
		ExportedAt:    exportedAt,
		TotalSongs:    2,
		TotalDuration: 420000,
		Playlist: []models.ExportedSong{
			{
				Name:       "Song One",
				Artist:     "Artist One",
				Album:      "Album One",
				SpotifyURL: "https://open.spotify.com/track/track1",
				Duration:   180000,
				AddedBy:    models.IdentityYours,
				AddedAt:    exportedAt.Add(-time.Hour),
			},
			{
				Name:     "Song Two",
				Artist:   "Artist Two",
				Duration: 240000,
				AddedBy:  models.IdentityCrush,
				AddedAt:  exportedAt.Add(-30 * time.Minute),
			},
		},
	}
}

func TestFormatters(t *testing.T) {
	t.Run("FormatQueue", func(t *testing.T) {
		entries := []*models.QueueEntry{
			{Song: th.SongFixture("track1", "Song One"), AddedBy: models.IdentityYours, Position: 1},
			{Song: th.SongFixture("track2", "Song Two"), AddedBy: models.IdentityCrush, Position: 2},
		}
		stats := models.QueueStats{TotalSongs: 2, TotalDuration: 360000, AddedByYours: 1, AddedByCrush: 1}

		output := FormatQueue(entries, stats)

		if !strings.Contains(output, "Queue (2 songs, 6:00 total)") {
			t.Errorf("queue output missing header, got: %s", output)
		}
		if !strings.Contains(output, "1. Test Artist - Song One [3:00] (added by yours)") {
			t.Errorf("queue output missing first entry, got: %s", output)
		}
		if !strings.Contains(output, "yours: 1  crush: 1") {
			t.Errorf("queue output missing totals, got: %s", output)
		}
	})

	t.Run("FormatQueueEmpty", func(t *testing.T) {
		output := FormatQueue(nil, models.QueueStats{})
		if !strings.Contains(output, "empty") {
			t.Errorf("expected empty queue message, got: %s", output)
		}
	})

	t.Run("FormatHistory", func(t *testing.T) {
		entries := []*models.HistoryEntry{
			{Song: th.SongFixture("track1", "Song One"), PlayedBy: models.IdentityCrush, PlayedAt: time.Now()},
		}

		output := FormatHistory(entries)

		if !strings.Contains(output, "History (1 songs)") {
			t.Errorf("history output missing header, got: %s", output)
		}
		if !strings.Contains(output, "played by crush") {
			t.Errorf("history output missing identity, got: %s", output)
		}
	})

	t.Run("FormatCurrent", func(t *testing.T) {
		current := &models.CurrentSong{
			Song:     th.SongFixture("track1", "Song One"),
			ChosenBy: models.IdentityYours,
			ChosenAt: time.Now(),
		}

		output := FormatCurrent(current)

		if !strings.Contains(output, "Now playing: Test Artist - Song One (Test Album) [3:00]") {
			t.Errorf("current output missing song line, got: %s", output)
		}
		if !strings.Contains(output, "Chosen by yours") {
			t.Errorf("current output missing identity, got: %s", output)
		}

		if output := FormatCurrent(nil); !strings.Contains(output, "Nothing is playing") {
			t.Errorf("expected empty slot message, got: %s", output)
		}
	})

	t.Run("FormatSearchResults", func(t *testing.T) {
		songs := []models.Song{th.SongFixture("track1", "Song One")}

		output := FormatSearchResults(songs)

		if !strings.Contains(output, "1. Test Artist - Song One (Test Album) [3:00]  track1") {
			t.Errorf("search output missing entry, got: %s", output)
		}

		if output := FormatSearchResults(nil); !strings.Contains(output, "No tracks found") {
			t.Errorf("expected no-results message, got: %s", output)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Name,Artist,Album,Duration,Added By,Spotify URL") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "Song One,Artist One,Album One,180000,yours,https://open.spotify.com/track/track1") {
			t.Errorf("CSV missing first record, got: %s", output)
		}
		if !strings.Contains(output, "Song Two,Artist Two,,240000,crush,") {
			t.Errorf("CSV missing second record, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(), "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			if !strings.Contains(output, "# Our Playlist") {
				t.Errorf("Markdown missing title")
			}
			if !strings.Contains(output, "**Songs**: 2") {
				t.Errorf("Markdown missing song count")
			}
			if !strings.Contains(output, "**Duration**: 7:00") {
				t.Errorf("Markdown missing duration")
			}
			if !strings.Contains(output, "1. Artist One - Song One (Album One) [3:00] by yours") {
				t.Errorf("Markdown missing first song, got: %s", output)
			}
			if !strings.Contains(output, "2. Artist Two - Song Two [4:00] by crush") {
				t.Errorf("Markdown missing second song, got: %s", output)
			}
			if strings.Contains(output, "![Cover]") {
				t.Errorf("Markdown should not reference a cover image")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(), "cover.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Errorf("Markdown missing cover image reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Our Playlist") {
			t.Errorf("text missing title")
		}
		if !strings.Contains(output, "Exported: 2026-03-14") {
			t.Errorf("text missing export date, got: %s", output)
		}
		if !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("text missing first song")
		}
	})

	t.Run("ToSummaryJSON", func(t *testing.T) {
		data, err := ToSummaryJSON(sampleExport())
		if err != nil {
			t.Fatalf("ToSummaryJSON failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, `"totalSongs": 2`) {
			t.Errorf("summary missing song count, got: %s", output)
		}
		if strings.Contains(output, "Song One") {
			t.Errorf("summary should not include songs")
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(""); err == nil {
			t.Error("expected error for empty URL")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(sampleExport(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.SongsFile != "our-playlist_songs.csv" {
				t.Errorf("unexpected songs file: %s", result.SongsFile)
			}
			th.AssertFileExists(t, result.SongsFile)
			th.AssertFileExists(t, result.SummaryFile)

			csvContent := th.MustReadFile(t, result.SongsFile)
			if !strings.Contains(csvContent, "Song One") {
				t.Errorf("CSV file missing song data")
			}

			summaryContent := th.MustReadFile(t, result.SummaryFile)
			if !strings.Contains(summaryContent, `"totalSongs"`) {
				t.Errorf("summary file missing metadata")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(sampleExport(), "mixtape")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.SongsFile != "mixtape_songs.csv" {
				t.Errorf("unexpected songs file: %s", result.SongsFile)
			}
			th.AssertFileExists(t, result.SongsFile)
			th.AssertFileExists(t, result.SummaryFile)
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		result, err := WriteMarkdownExport(sampleExport(), "", "")
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		th.AssertDirExists(t, result.Directory)
		th.AssertFileExists(t, result.Directory+"/README.md")

		content := th.MustReadFile(t, result.Directory + "/README.md")
		if !strings.Contains(content, "# Our Playlist") {
			t.Errorf("README missing title")
		}
		if result.CoverImage != "" {
			t.Errorf("no image URL given, got cover image %s", result.CoverImage)
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		filepath, err := WriteTextExport(sampleExport(), "")
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}

		if filepath != "our-playlist.txt" {
			t.Errorf("unexpected filepath: %s", filepath)
		}
		th.AssertFileExists(t, filepath)

		content := th.MustReadFile(t, filepath)
		if !strings.Contains(content, "1. Artist One - Song One") {
			t.Errorf("text file missing song data")
		}
	})
}

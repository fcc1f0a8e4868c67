package shared

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./belong.db" {
			t.Errorf("expected database path ./belong.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Client.Identity != "yours" {
			t.Errorf("expected default identity yours, got %s", config.Client.Identity)
		}

		if config.Queue.HistoryLimit != 50 {
			t.Errorf("expected history limit 50, got %d", config.Queue.HistoryLimit)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "custom_client"
client_secret = "custom_secret"

[client]
base_url = "http://example.test:8080"
identity = "crush"
`

		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected custom database path, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected port 8080, got %d", config.Server.Port)
		}

		if config.Client.Identity != "crush" {
			t.Errorf("expected identity crush, got %s", config.Client.Identity)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/config.toml")
		if err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("SaveConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		config := DefaultConfig()
		config.Credentials.Spotify.AccessToken = "saved_access"
		config.Credentials.Spotify.RefreshToken = "saved_refresh"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload saved config: %v", err)
		}

		if loaded.Credentials.Spotify.AccessToken != "saved_access" {
			t.Errorf("expected access token to round-trip, got %s", loaded.Credentials.Spotify.AccessToken)
		}

		if loaded.Credentials.Spotify.RefreshToken != "saved_refresh" {
			t.Errorf("expected refresh token to round-trip, got %s", loaded.Credentials.Spotify.RefreshToken)
		}

		if loaded.Database.Path != config.Database.Path {
			t.Error("expected database settings to round-trip")
		}
	})

	t.Run("LoadConfig Malformed", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := os.WriteFile(configPath, []byte("this is not [toml"), 0644); err != nil {
			t.Fatalf("failed to write malformed config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for malformed config")
		}
	})
}

func TestSpotifyConfig(t *testing.T) {
	t.Run("Update stores tokens", func(t *testing.T) {
		config := SpotifyConfig{RefreshToken: "old_refresh"}

		err := config.Update(&oauth2.Token{
			AccessToken:  "new_access",
			RefreshToken: "new_refresh",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.AccessToken != "new_access" {
			t.Errorf("expected new access token, got %s", config.AccessToken)
		}

		if config.RefreshToken != "new_refresh" {
			t.Errorf("expected new refresh token, got %s", config.RefreshToken)
		}
	})

	t.Run("Update keeps refresh token when response omits it", func(t *testing.T) {
		config := SpotifyConfig{RefreshToken: "old_refresh"}

		if err := config.Update(&oauth2.Token{AccessToken: "new_access"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.RefreshToken != "old_refresh" {
			t.Errorf("expected refresh token to be kept, got %s", config.RefreshToken)
		}
	})

	t.Run("Update rejects nil token", func(t *testing.T) {
		config := SpotifyConfig{}

		if err := config.Update(nil); err == nil {
			t.Error("expected error for nil token")
		}
	})

	t.Run("Token rebuilds oauth token", func(t *testing.T) {
		config := SpotifyConfig{
			AccessToken:  "access",
			RefreshToken: "refresh",
		}

		token := config.Token()

		if token.AccessToken != "access" || token.RefreshToken != "refresh" {
			t.Errorf("expected stored tokens, got %+v", token)
		}
	})
}

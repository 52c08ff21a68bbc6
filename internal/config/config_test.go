// Verifies the configuration loading logic using Viper.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vrsandeep/speedread-go/internal/models"
)

// writeConfig drops a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speedread.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults from an empty config file", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}

		if cfg.ServerURL != "http://localhost:8000" {
			t.Errorf("Expected default server url 'http://localhost:8000', got '%s'", cfg.ServerURL)
		}
		if cfg.PollInterval != 2*time.Second {
			t.Errorf("Expected default poll interval 2s, got %v", cfg.PollInterval)
		}
		if cfg.RequestTimeout != 20*time.Second {
			t.Errorf("Expected default request timeout 20s, got %v", cfg.RequestTimeout)
		}
		if cfg.Downloads.Path != "./videos" {
			t.Errorf("Expected default downloads path './videos', got '%s'", cfg.Downloads.Path)
		}
		if cfg.History.Path != "./speedread.db" {
			t.Errorf("Expected default history path './speedread.db', got '%s'", cfg.History.Path)
		}
		if cfg.History.Retention != 720*time.Hour {
			t.Errorf("Expected default retention 720h, got %v", cfg.History.Retention)
		}
		if cfg.Hotfolder.Path != "" {
			t.Errorf("Expected hot folder disabled by default, got '%s'", cfg.Hotfolder.Path)
		}
		if cfg.Hotfolder.SweepInterval != 5 {
			t.Errorf("Expected default sweep interval 5, got %d", cfg.Hotfolder.SweepInterval)
		}
		if cfg.Params.StartWPM != 200 || cfg.Params.PeakWPM != 600 {
			t.Errorf("Unexpected default wpm params: %+v", cfg.Params)
		}
		if cfg.Params.RampStyle != models.RampSmooth {
			t.Errorf("Expected default ramp style 'smooth', got '%s'", cfg.Params.RampStyle)
		}
	})

	t.Run("Loads from config file", func(t *testing.T) {
		path := writeConfig(t, `
server_url: "http://video-farm:9000"
poll_interval: 500ms
request_timeout: 5s
downloads:
  path: "/tmp/out"
history:
  path: "/tmp/test.db"
  retention: 48h
hotfolder:
  path: "/tmp/drop"
  sweep_interval: 1
params:
  peak_wpm: 900
  ramp_words: 100
  chunk_duration: 60.5
unknown_setting: "should be ignored"
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}

		if cfg.ServerURL != "http://video-farm:9000" {
			t.Errorf("Expected server url 'http://video-farm:9000', got '%s'", cfg.ServerURL)
		}
		if cfg.PollInterval != 500*time.Millisecond {
			t.Errorf("Expected poll interval 500ms, got %v", cfg.PollInterval)
		}
		if cfg.History.Retention != 48*time.Hour {
			t.Errorf("Expected retention 48h, got %v", cfg.History.Retention)
		}
		if cfg.Hotfolder.Path != "/tmp/drop" {
			t.Errorf("Expected hot folder '/tmp/drop', got '%s'", cfg.Hotfolder.Path)
		}
		if cfg.Params.PeakWPM != 900 {
			t.Errorf("Expected peak_wpm 900, got %d", cfg.Params.PeakWPM)
		}
		// Values the file does not mention keep their defaults.
		if cfg.Params.StartWPM != 200 {
			t.Errorf("Expected default start_wpm 200, got %d", cfg.Params.StartWPM)
		}
		if cfg.Params.RampWords != 100 {
			t.Errorf("Expected ramp_words 100, got %d", cfg.Params.RampWords)
		}
	})

	t.Run("Environment variables override file values", func(t *testing.T) {
		path := writeConfig(t, `server_url: "http://from-file:8000"`)
		t.Setenv("SPEEDREAD_SERVER_URL", "http://from-env:8000")
		t.Setenv("SPEEDREAD_POLL_INTERVAL", "7s")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}
		if cfg.ServerURL != "http://from-env:8000" {
			t.Errorf("Expected env override 'http://from-env:8000', got '%s'", cfg.ServerURL)
		}
		if cfg.PollInterval != 7*time.Second {
			t.Errorf("Expected poll interval 7s from env, got %v", cfg.PollInterval)
		}
	})

	t.Run("Missing explicit file is an error", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
			t.Fatal("Load() with a missing explicit path should fail")
		}
	})
}

func TestParamsConfigVideoParams(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}

	vp := cfg.Params.VideoParams()
	if err := vp.Validate(); err != nil {
		t.Fatalf("Default params should validate, got: %v", err)
	}
	if vp.RampWords != nil {
		t.Errorf("Expected nil ramp_words by default, got %d", *vp.RampWords)
	}
	if vp.ChunkDuration != nil {
		t.Errorf("Expected nil chunk_duration by default, got %g", *vp.ChunkDuration)
	}

	cfg.Params.RampWords = 150
	cfg.Params.ChunkDuration = 30
	vp = cfg.Params.VideoParams()
	if vp.RampWords == nil || *vp.RampWords != 150 {
		t.Errorf("Expected ramp_words 150, got %v", vp.RampWords)
	}
	if vp.ChunkDuration == nil || *vp.ChunkDuration != 30 {
		t.Errorf("Expected chunk_duration 30, got %v", vp.ChunkDuration)
	}
}
